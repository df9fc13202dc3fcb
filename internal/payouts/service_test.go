package payouts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/internal/ledger"
	"github.com/angelmondragon/tixledger/internal/tenancy"
	"github.com/angelmondragon/tixledger/pkg/db"
	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
	"github.com/angelmondragon/tixledger/pkg/metrics"
	"github.com/angelmondragon/tixledger/pkg/outbox"
	pkgpagination "github.com/angelmondragon/tixledger/pkg/pagination"
)

type payoutFixture struct {
	conn        *gorm.DB
	svc         Service
	ledger      ledger.Service
	outboxRepo  *outbox.Repository
	registry    *prometheus.Registry
	marketplace uuid.UUID
	other       uuid.UUID
	organizer   uuid.UUID
}

func newPayoutFixture(t *testing.T) payoutFixture {
	t.Helper()
	dsn := "file:payouts_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	f := payoutFixture{conn: conn, marketplace: uuid.New(), other: uuid.New(), organizer: uuid.New()}
	rows := []any{
		&models.Marketplace{ID: f.marketplace, Name: "Tix", Currency: "USD"},
		&models.Marketplace{ID: f.other, Name: "Other", Currency: "USD"},
		&models.Organizer{
			ID:                f.organizer,
			MarketplaceID:     f.marketplace,
			Name:              "Alpha Live",
			Status:            enums.OrganizerStatusActive,
			TotalRevenueCents: 1000,
			TotalPaidOutCents: 200,
		},
	}
	for _, row := range rows {
		require.NoError(t, conn.Create(row).Error)
	}

	tx := db.FromGorm(conn)
	f.outboxRepo = outbox.NewRepository(conn)
	emitter := outbox.NewService(f.outboxRepo, nil)
	f.ledger, err = ledger.NewService(ledger.NewRepository(conn), tx, emitter)
	require.NoError(t, err)

	f.registry = prometheus.NewRegistry()
	f.svc, err = NewService(ServiceParams{
		Repo:      NewRepository(conn),
		Ledger:    f.ledger,
		Directory: tenancy.NewDirectory(conn),
		Outbox:    emitter,
		Tx:        tx,
		Metrics:   metrics.NewPayoutMetrics(f.registry),
	})
	require.NoError(t, err)
	return f
}

func (f payoutFixture) balance(t *testing.T) *ledger.BalanceSnapshot {
	t.Helper()
	b, err := f.ledger.GetOrganizerBalance(context.Background(), f.marketplace, f.organizer)
	require.NoError(t, err)
	return b
}

func (f payoutFixture) create(cents int64, reference string) (*models.Payout, error) {
	return f.svc.CreatePayout(context.Background(), CreatePayoutInput{
		MarketplaceID: f.marketplace,
		OrganizerID:   f.organizer,
		AmountCents:   cents,
		Reference:     reference,
	})
}

func TestPayoutLifecycleScenario(t *testing.T) {
	f := newPayoutFixture(t)
	ctx := context.Background()
	assert.Equal(t, int64(800), f.balance(t).Available.Amount)

	payout, err := f.create(800, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutStatusProcessing, payout.Status)
	assert.Equal(t, "USD", payout.Currency)

	b := f.balance(t)
	assert.Equal(t, int64(800), b.Pending.Amount)
	assert.Zero(t, b.Available.Amount)

	completed, err := f.svc.CompletePayout(ctx, f.marketplace, payout.ID, "TRX-1", nil)
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutStatusCompleted, completed.Status)
	assert.Equal(t, "TRX-1", completed.Reference)
	require.NotNil(t, completed.CompletedAt)

	b = f.balance(t)
	assert.Equal(t, int64(1000), b.TotalPaidOut.Amount)
	assert.Zero(t, b.Pending.Amount)
	assert.Zero(t, b.Available.Amount)

	_, err = f.create(1, "REQ-2")
	assert.True(t, errors.Is(err, ledger.ErrInsufficientBalance))

	_, err = f.svc.CompletePayout(ctx, f.marketplace, payout.ID, "TRX-1", nil)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, b, f.balance(t))

	stored, err := f.svc.GetPayout(ctx, f.marketplace, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutStatusCompleted, stored.Status)

	events, err := f.outboxRepo.ListByAggregate(ctx, enums.AggregatePayout, payout.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, enums.EventPayoutCreated, events[0].EventType)
	assert.Equal(t, enums.EventPayoutCompleted, events[1].EventType)
}

func TestCancelReturnsReservation(t *testing.T) {
	f := newPayoutFixture(t)
	ctx := context.Background()

	payout, err := f.create(500, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, int64(300), f.balance(t).Available.Amount)

	cancelled, err := f.svc.CancelPayout(ctx, f.marketplace, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutStatusCancelled, cancelled.Status)
	assert.Equal(t, int64(800), f.balance(t).Available.Amount)

	_, err = f.svc.CancelPayout(ctx, f.marketplace, payout.ID)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.As(err).Code())
	_, err = f.svc.CompletePayout(ctx, f.marketplace, payout.ID, "TRX-9", nil)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, int64(800), f.balance(t).Available.Amount)
}

func TestPayoutInputValidation(t *testing.T) {
	f := newPayoutFixture(t)

	_, err := f.create(100, "  ")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	_, err = f.create(0, "REQ-1")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	payout, err := f.create(100, "REQ-1")
	require.NoError(t, err)
	_, err = f.svc.CompletePayout(context.Background(), f.marketplace, payout.ID, "", nil)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, int64(100), f.balance(t).Pending.Amount)
}

func TestPayoutTenantIsolation(t *testing.T) {
	f := newPayoutFixture(t)
	ctx := context.Background()

	payout, err := f.create(100, "REQ-1")
	require.NoError(t, err)

	_, foreignErr := f.svc.CompletePayout(ctx, f.other, payout.ID, "TRX-1", nil)
	require.Error(t, foreignErr)
	assert.True(t, tenancy.IsDenied(foreignErr))

	_, missingErr := f.svc.CompletePayout(ctx, f.other, uuid.New(), "TRX-1", nil)
	require.Error(t, missingErr)
	assert.Equal(t, foreignErr.Error(), missingErr.Error())

	_, err = f.svc.CancelPayout(ctx, f.other, payout.ID)
	assert.True(t, tenancy.IsDenied(err))
	_, err = f.svc.GetPayout(ctx, f.other, payout.ID)
	assert.True(t, tenancy.IsDenied(err))

	// organizer of another marketplace cannot be paid from this one
	_, err = f.svc.CreatePayout(ctx, CreatePayoutInput{MarketplaceID: f.other, OrganizerID: f.organizer, AmountCents: 10, Reference: "REQ-X"})
	assert.True(t, tenancy.IsDenied(err))

	assert.Equal(t, int64(100), f.balance(t).Pending.Amount)
}

func TestListPayoutsPaginates(t *testing.T) {
	f := newPayoutFixture(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	restore := timeNowUTC
	defer func() { timeNowUTC = restore }()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		timeNowUTC = func() time.Time { return at }
		p, err := f.create(100, "REQ")
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	_, err := f.svc.CancelPayout(ctx, f.marketplace, ids[0])
	require.NoError(t, err)

	page, err := f.svc.ListPayouts(ctx, ListParams{MarketplaceID: f.marketplace, Params: pkgpagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[1], page.Items[1].ID)
	require.NotEmpty(t, page.Cursor)

	next, err := f.svc.ListPayouts(ctx, ListParams{MarketplaceID: f.marketplace, Params: pkgpagination.Params{Limit: 2, Cursor: page.Cursor}})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, ids[0], next.Items[0].ID)
	assert.Empty(t, next.Cursor)

	status := enums.PayoutStatusCancelled
	filtered, err := f.svc.ListPayouts(ctx, ListParams{MarketplaceID: f.marketplace, Status: &status})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, ids[0], filtered.Items[0].ID)

	_, err = f.svc.ListPayouts(ctx, ListParams{MarketplaceID: f.marketplace, Params: pkgpagination.Params{Cursor: "not-base64!"}})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestPayoutMetricsRecorded(t *testing.T) {
	f := newPayoutFixture(t)

	_, err := f.create(300, "REQ-1")
	require.NoError(t, err)
	_, err = f.create(5000, "REQ-2")
	require.Error(t, err)

	mfs, err := f.registry.Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "tixledger_payout_transitions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "outcome" {
					counts[label.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 1.0, counts[metrics.OutcomeSuccess])
	assert.Equal(t, 1.0, counts[metrics.OutcomeRejected])
}
