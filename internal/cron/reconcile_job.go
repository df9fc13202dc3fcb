package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/tixledger/internal/ledger"
	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/logger"
	"github.com/angelmondragon/tixledger/pkg/metrics"
)

const (
	reconcileJobName   = "balance-reconcile"
	reconcileBatchSize = 200
)

type balanceAuditor interface {
	Organizers(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Organizer, error)
	Check(ctx context.Context, organizer models.Organizer) (ledger.Drift, error)
}

// ReconcileJobParams configures the balance reconciliation job.
type ReconcileJobParams struct {
	Logger    *logger.Logger
	Auditor   balanceAuditor
	Metrics   *metrics.CronJobMetrics
	BatchSize int
}

// NewReconcileJob builds the job that compares cached organizer balances
// with payout sums. It only reports; balances are never rewritten.
func NewReconcileJob(params ReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Auditor == nil {
		return nil, fmt.Errorf("balance auditor required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = reconcileBatchSize
	}
	return &reconcileJob{
		logg:    params.Logger,
		auditor: params.Auditor,
		metrics: params.Metrics,
		batch:   batch,
	}, nil
}

type reconcileJob struct {
	logg    *logger.Logger
	auditor balanceAuditor
	metrics *metrics.CronJobMetrics
	batch   int
}

func (j *reconcileJob) Name() string { return reconcileJobName }

// Run visits every organizer. A failed check or a drift is collected and the
// walk continues.
func (j *reconcileJob) Run(ctx context.Context) error {
	var (
		errs    error
		checked int
		drifted int
		after   = uuid.Nil
	)
	for {
		page, err := j.auditor.Organizers(ctx, after, j.batch)
		if err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		for _, organizer := range page {
			checked++
			drift, err := j.auditor.Check(ctx, organizer)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("organizer %s: %w", organizer.ID, err))
				continue
			}
			if drift.HasDrift() {
				drifted++
				j.logDrift(ctx, drift)
				errs = multierr.Append(errs, drift)
			}
		}
		if len(page) < j.batch {
			break
		}
		after = page[len(page)-1].ID
	}

	j.metrics.SetDrifted(reconcileJobName, drifted)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"organizers_checked": checked,
		"organizers_drifted": drifted,
	})
	j.logg.Info(logCtx, "balance reconciliation complete")
	return errs
}

func (j *reconcileJob) logDrift(ctx context.Context, drift ledger.Drift) {
	logCtx := j.logg.WithMarketplaceID(ctx, drift.MarketplaceID.String())
	logCtx = j.logg.WithOrganizerID(logCtx, drift.OrganizerID.String())
	logCtx = j.logg.WithFields(logCtx, map[string]any{
		"cached_pending_cents":    drift.CachedPendingCents,
		"computed_pending_cents":  drift.ComputedPendingCents,
		"cached_paid_out_cents":   drift.CachedPaidOutCents,
		"computed_paid_out_cents": drift.ComputedPaidOutCents,
		"negative_available":      drift.NegativeAvailable,
	})
	j.logg.Warn(logCtx, "organizer balance drift detected")
}
