package payouts

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
)

// ErrInvalidTransition is the cause of every rejected state change.
var ErrInvalidTransition = errors.New("invalid payout transition")

// NormalizeReference trims the bank transfer identifier and rejects blanks.
func NormalizeReference(reference string) (string, error) {
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	return trimmed, nil
}

// Complete moves a processing payout to completed.
func Complete(p *models.Payout, reference string, notes *string, now time.Time) error {
	ref, err := NormalizeReference(reference)
	if err != nil {
		return err
	}
	if err := requireProcessing(p, enums.PayoutStatusCompleted); err != nil {
		return err
	}
	completedAt := now.UTC()
	p.Status = enums.PayoutStatusCompleted
	p.Reference = ref
	p.Notes = normalizeNotes(notes)
	p.CompletedAt = &completedAt
	return nil
}

// Cancel moves a processing payout to cancelled.
func Cancel(p *models.Payout, now time.Time) error {
	if err := requireProcessing(p, enums.PayoutStatusCancelled); err != nil {
		return err
	}
	cancelledAt := now.UTC()
	p.Status = enums.PayoutStatusCancelled
	p.CancelledAt = &cancelledAt
	return nil
}

func requireProcessing(p *models.Payout, target enums.PayoutStatus) error {
	if p == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout required")
	}
	if p.Status == enums.PayoutStatusProcessing {
		return nil
	}
	return pkgerrors.Wrap(
		pkgerrors.CodeInvalidTransition,
		ErrInvalidTransition,
		fmt.Sprintf("cannot move payout from %s to %s", p.Status, target),
	).WithDetails(map[string]any{"from": p.Status, "to": target})
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
