package sources

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:sources_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func at(day int, hour int) *time.Time {
	ts := time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC)
	return &ts
}

type fixture struct {
	marketplaceID uuid.UUID
	otherMarket   uuid.UUID
	orgA          uuid.UUID
	orgB          uuid.UUID
}

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{marketplaceID: uuid.New(), otherMarket: uuid.New(), orgA: uuid.New(), orgB: uuid.New()}

	rows := []any{
		&models.Organizer{ID: f.orgA, MarketplaceID: f.marketplaceID, Name: "Alpha Live", Status: enums.OrganizerStatusActive},
		&models.Organizer{ID: f.orgB, MarketplaceID: f.marketplaceID, Name: "Beta Shows", Status: enums.OrganizerStatusActive},

		&models.Order{MarketplaceID: f.marketplaceID, OrganizerID: f.orgA, Status: enums.OrderStatusPaid, TotalCents: 6000, CommissionCents: 900, PaidAt: at(1, 10)},
		&models.Order{MarketplaceID: f.marketplaceID, OrganizerID: f.orgA, Status: enums.OrderStatusCompleted, TotalCents: 2000, CommissionCents: 300, PaidAt: at(5, 12)},
		&models.Order{MarketplaceID: f.marketplaceID, OrganizerID: f.orgB, Status: enums.OrderStatusConfirmed, TotalCents: 2000, CommissionCents: 300, PaidAt: at(7, 23)},
		// excluded: wrong status, outside range, other marketplace
		&models.Order{MarketplaceID: f.marketplaceID, OrganizerID: f.orgA, Status: enums.OrderStatusCancelled, TotalCents: 9999, CommissionCents: 999, PaidAt: at(2, 10)},
		&models.Order{MarketplaceID: f.marketplaceID, OrganizerID: f.orgA, Status: enums.OrderStatusPaid, TotalCents: 9999, CommissionCents: 999, PaidAt: at(8, 0)},
		&models.Order{MarketplaceID: f.otherMarket, OrganizerID: f.orgA, Status: enums.OrderStatusPaid, TotalCents: 9999, CommissionCents: 999, PaidAt: at(3, 10)},

		&models.RefundRequest{MarketplaceID: f.marketplaceID, OrganizerID: f.orgA, Status: enums.RefundRequestStatusRefunded, FeesRefundCents: 30, CompletedAt: at(5, 9)},
		&models.RefundRequest{MarketplaceID: f.marketplaceID, OrganizerID: f.orgB, Status: enums.RefundRequestStatusPartiallyRefunded, FeesRefundCents: 20, CompletedAt: at(6, 9)},
		&models.RefundRequest{MarketplaceID: f.marketplaceID, OrganizerID: f.orgB, Status: enums.RefundRequestStatusPending, FeesRefundCents: 500, CompletedAt: at(6, 9)},

		&models.GiftCard{MarketplaceID: f.marketplaceID, Code: "GC-1", Status: enums.GiftCardStatusActive, InitialAmountCents: 200, CreatedAt: *at(1, 8)},
		&models.GiftCard{MarketplaceID: f.marketplaceID, Code: "GC-2", Status: enums.GiftCardStatusRedeemed, InitialAmountCents: 100, CreatedAt: *at(7, 8)},
		&models.GiftCard{MarketplaceID: f.marketplaceID, Code: "GC-3", Status: enums.GiftCardStatusRevoked, InitialAmountCents: 700, CreatedAt: *at(7, 8)},
		&models.GiftCard{MarketplaceID: f.marketplaceID, Code: "GC-4", Status: enums.GiftCardStatusCancelled, InitialAmountCents: 700, CreatedAt: *at(7, 8)},

		&models.ServiceOrder{MarketplaceID: f.marketplaceID, OrganizerID: f.orgA, ServiceType: "promotion", PaymentStatus: enums.PaymentStatusPaid, TotalCents: 150, PaidAt: at(1, 11)},
		&models.ServiceOrder{MarketplaceID: f.marketplaceID, OrganizerID: f.orgB, ServiceType: "printing", PaymentStatus: enums.PaymentStatusPaid, TotalCents: 50, PaidAt: at(6, 11)},
		&models.ServiceOrder{MarketplaceID: f.marketplaceID, OrganizerID: f.orgB, ServiceType: "printing", PaymentStatus: enums.PaymentStatusFailed, TotalCents: 5000, PaidAt: at(6, 11)},
	}
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error)
	}
	return f
}

func march(f fixture, organizerID *uuid.UUID) Scope {
	return Scope{
		MarketplaceID: f.marketplaceID,
		OrganizerID:   organizerID,
		From:          time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:            time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestMarketplaceTotals(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewRepository(db)
	ctx := context.Background()
	scope := march(f, nil)

	orders, err := repo.OrderTotals(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, OrderTotals{SalesCents: 10000, CommissionCents: 1500, Count: 3}, orders)

	fees, err := repo.RefundFeeTotal(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(50), fees)

	// redeemed cards still count: revenue is recognized at issuance
	giftCards, err := repo.GiftCardTotal(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(300), giftCards)

	services, err := repo.ServiceTotal(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(200), services)
}

func TestOrganizerScopedTotals(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewRepository(db)
	ctx := context.Background()
	scope := march(f, &f.orgB)

	orders, err := repo.OrderTotals(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, OrderTotals{SalesCents: 2000, CommissionCents: 300, Count: 1}, orders)

	fees, err := repo.RefundFeeTotal(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(20), fees)

	giftCards, err := repo.GiftCardTotal(ctx, scope)
	require.NoError(t, err)
	assert.Zero(t, giftCards)

	services, err := repo.ServiceTotal(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(50), services)
}

func TestDailyBreakdowns(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewRepository(db)
	ctx := context.Background()
	scope := march(f, nil)

	orders, err := repo.DailyOrders(ctx, scope)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, DailyOrderRow{Day: "2024-03-01", SalesCents: 6000, CommissionCents: 900, Count: 1}, orders[0])
	assert.Equal(t, "2024-03-05", orders[1].Day)
	assert.Equal(t, "2024-03-07", orders[2].Day)

	fees, err := repo.DailyRefundFees(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, []DailyAmountRow{{Day: "2024-03-05", AmountCents: 30}, {Day: "2024-03-06", AmountCents: 20}}, fees)

	cards, err := repo.DailyGiftCards(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, []DailyAmountRow{{Day: "2024-03-01", AmountCents: 200}, {Day: "2024-03-07", AmountCents: 100}}, cards)

	services, err := repo.DailyServices(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, []DailyAmountRow{{Day: "2024-03-01", AmountCents: 150}, {Day: "2024-03-06", AmountCents: 50}}, services)
}

func TestTopOrganizers(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewRepository(db)

	rows, err := repo.TopOrganizers(context.Background(), march(f, nil), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, f.orgA, rows[0].OrganizerID)
	assert.Equal(t, "Alpha Live", rows[0].Name)
	assert.Equal(t, int64(1200), rows[0].CommissionCents)
	assert.Equal(t, int64(2), rows[0].OrderCount)
	assert.Equal(t, f.orgB, rows[1].OrganizerID)

	limited, err := repo.TopOrganizers(context.Background(), march(f, nil), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := repo.TopOrganizers(context.Background(), march(f, nil), 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestScopeIsHalfOpen(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	lastSecond := time.Date(2024, time.March, 7, 23, 59, 59, 250_000_000, time.UTC)
	require.NoError(t, db.Create(&models.Order{MarketplaceID: f.marketplaceID, OrganizerID: f.orgA, Status: enums.OrderStatusPaid, TotalCents: 700, CommissionCents: 70, PaidAt: &lastSecond}).Error)
	require.NoError(t, db.Create(&models.Order{MarketplaceID: f.marketplaceID, OrganizerID: f.orgA, Status: enums.OrderStatusPaid, TotalCents: 900, CommissionCents: 90, PaidAt: at(8, 0)}).Error)

	orders, err := repo.OrderTotals(ctx, march(f, nil))
	require.NoError(t, err)
	assert.Equal(t, OrderTotals{SalesCents: 10700, CommissionCents: 1570, Count: 4}, orders)

	top, err := repo.TopOrganizers(ctx, march(f, &f.orgA), 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(3), top[0].OrderCount)
	assert.Equal(t, int64(1270), top[0].CommissionCents)
}
