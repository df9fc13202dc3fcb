package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLSTATE classes worth calling out in request logs.
const (
	sqlStateCheckViolation       = "23514"
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlock             = "40P01"
)

// constraintHints names the ledger guarantees enforced by the migrations.
var constraintHints = map[string]string{
	"organizers_pending_non_negative":    "pending payout balance would go negative",
	"organizers_paid_out_non_negative":   "paid out total would go negative",
	"organizers_available_non_negative":  "available balance would go negative",
	"payouts_amount_positive":            "payout amount must be positive",
	"payouts_reference_present":          "payout reference is required",
	"ledger_events_amount_positive":      "ledger event amount must be positive",
	"tax_rules_rate_non_negative":        "tax rate must not be negative",
	"tax_rules_filing_days_non_negative": "filing days must not be negative",
}

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	// Hint is a ledger-level reading of the Postgres failure, if any.
	Hint string `json:"hint,omitempty"`
}

// Dump flattens err for logging, including driver diagnostics from either
// pgx or lib/pq.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Retryable = MetadataFor(te.Code()).Retryable
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	default:
		return d
	}

	d.Hint = hintFor(d.PGCode, d.PGConstraint)
	if d.PGCode == sqlStateSerializationFailure || d.PGCode == sqlStateDeadlock {
		d.Retryable = true
	}
	return d
}

func hintFor(code, constraint string) string {
	if hint, ok := constraintHints[constraint]; ok {
		return hint
	}
	switch code {
	case sqlStateCheckViolation:
		return "check constraint violated"
	case sqlStateUniqueViolation:
		return "duplicate row"
	case sqlStateSerializationFailure, sqlStateDeadlock:
		return "concurrent balance update, retry the request"
	}
	return ""
}
