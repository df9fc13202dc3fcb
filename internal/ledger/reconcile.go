package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/tixledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
)

// Drift compares an organizer's cached balance columns with the values
// recomputed from payout rows.
type Drift struct {
	MarketplaceID         uuid.UUID
	OrganizerID           uuid.UUID
	CachedPendingCents    int64
	ComputedPendingCents  int64
	CachedPaidOutCents    int64
	ComputedPaidOutCents  int64
	NegativeAvailable     bool
	NegativeAvailableDiff int64
}

// HasDrift reports whether any cached column disagrees with payouts or the
// balance invariant is broken.
func (d Drift) HasDrift() bool {
	return d.CachedPendingCents != d.ComputedPendingCents ||
		d.CachedPaidOutCents != d.ComputedPaidOutCents ||
		d.NegativeAvailable
}

func (d Drift) Error() string {
	return fmt.Sprintf(
		"organizer %s drift: pending %d != %d, paid out %d != %d, negative available %t",
		d.OrganizerID, d.CachedPendingCents, d.ComputedPendingCents,
		d.CachedPaidOutCents, d.ComputedPaidOutCents, d.NegativeAvailable,
	)
}

// Auditor walks organizers and recomputes their payout-derived columns.
// It never writes.
type Auditor struct {
	repo Repository
}

func NewAuditor(repo Repository) (*Auditor, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &Auditor{repo: repo}, nil
}

// Organizers pages through every organizer ordered by id.
func (a *Auditor) Organizers(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Organizer, error) {
	organizers, err := a.repo.ListOrganizers(ctx, afterID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organizers")
	}
	return organizers, nil
}

// Check computes the drift for one organizer.
func (a *Auditor) Check(ctx context.Context, organizer models.Organizer) (Drift, error) {
	sums, err := a.repo.SumPayouts(ctx, organizer.ID)
	if err != nil {
		return Drift{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payouts")
	}
	available := organizer.AvailableCents()
	drift := Drift{
		MarketplaceID:        organizer.MarketplaceID,
		OrganizerID:          organizer.ID,
		CachedPendingCents:   organizer.PendingBalanceCents,
		ComputedPendingCents: sums.PendingCents,
		CachedPaidOutCents:   organizer.TotalPaidOutCents,
		ComputedPaidOutCents: sums.PaidOutCents,
		NegativeAvailable:    available < 0,
	}
	if available < 0 {
		drift.NegativeAvailableDiff = -available
	}
	return drift, nil
}
