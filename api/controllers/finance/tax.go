package finance

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tixledger/api/responses"
	"github.com/angelmondragon/tixledger/api/validators"
	"github.com/angelmondragon/tixledger/internal/taxreports"
	"github.com/angelmondragon/tixledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
	"github.com/angelmondragon/tixledger/pkg/logger"
	"github.com/angelmondragon/tixledger/pkg/types"
)

// TaxReport returns per-event tax liabilities, optionally filtered.
func TaxReport(svc taxreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tax report service unavailable"))
			return
		}
		mid, err := marketplaceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseTaxFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.GetTaxReport(r.Context(), mid, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// TaxDeadlines lists filing deadlines inside the window, soonest first.
func TaxDeadlines(svc taxreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tax report service unavailable"))
			return
		}
		mid, err := marketplaceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		windowDays, err := validators.ParseQueryInt(r, "windowDays", 0, 0, 366)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deadlines, err := svc.GetUpcomingDeadlines(r.Context(), mid, windowDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewList(deadlines))
	}
}

// TaxOverdue lists unpaid liabilities past their deadline.
func TaxOverdue(svc taxreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tax report service unavailable"))
			return
		}
		mid, err := marketplaceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		overdue, err := svc.GetOverduePayments(r.Context(), mid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewList(overdue))
	}
}

func parseTaxFilters(r *http.Request) (taxreports.Filters, error) {
	var filters taxreports.Filters
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseTaxStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"})
		}
		filters.Status = &status
	}
	var err error
	if filters.From, err = validators.ParseQueryDate(r, "from"); err != nil {
		return filters, err
	}
	if filters.To, err = validators.ParseQueryDate(r, "to"); err != nil {
		return filters, err
	}
	if filters.EventID, err = validators.ParseQueryUUID(r, "eventId"); err != nil {
		return filters, err
	}
	return filters, nil
}
