package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/enums"
)

const availableExpr = "total_revenue_cents - total_paid_out_cents - pending_balance_cents"

// balanceChange is a set of column deltas plus the precondition that must hold
// on the locked row for the update to apply.
type balanceChange struct {
	revenue   int64
	paidOut   int64
	pending   int64
	guardSQL  string
	guardArgs []any
}

// Repository manages organizer balance rows and their audit events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	MarketplaceCurrency(ctx context.Context, marketplaceID uuid.UUID) (string, error)
	FindOrganizer(ctx context.Context, organizerID uuid.UUID) (*models.Organizer, error)
	LockOrganizer(ctx context.Context, organizerID uuid.UUID) (*models.Organizer, error)
	ApplyChange(ctx context.Context, organizerID uuid.UUID, change balanceChange) (int64, error)
	CreateEvent(ctx context.Context, event *models.LedgerEvent) error
	ListEvents(ctx context.Context, organizerID uuid.UUID, limit int) ([]models.LedgerEvent, error)
	ListOrganizers(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Organizer, error)
	SumPayouts(ctx context.Context, organizerID uuid.UUID) (PayoutSums, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) MarketplaceCurrency(ctx context.Context, marketplaceID uuid.UUID) (string, error) {
	var marketplace models.Marketplace
	err := r.db.WithContext(ctx).
		Select("id", "currency").
		Where("id = ?", marketplaceID).
		First(&marketplace).Error
	if err != nil {
		return "", err
	}
	return marketplace.Currency, nil
}

func (r *repository) FindOrganizer(ctx context.Context, organizerID uuid.UUID) (*models.Organizer, error) {
	var organizer models.Organizer
	if err := r.db.WithContext(ctx).Where("id = ?", organizerID).First(&organizer).Error; err != nil {
		return nil, err
	}
	return &organizer, nil
}

// LockOrganizer reads the organizer row with SELECT ... FOR UPDATE. Dialects
// without row locks ignore the clause and rely on ApplyChange's guard.
func (r *repository) LockOrganizer(ctx context.Context, organizerID uuid.UUID) (*models.Organizer, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var organizer models.Organizer
	if err := q.Where("id = ?", organizerID).First(&organizer).Error; err != nil {
		return nil, err
	}
	return &organizer, nil
}

func (r *repository) ApplyChange(ctx context.Context, organizerID uuid.UUID, change balanceChange) (int64, error) {
	updates := map[string]any{}
	if change.revenue != 0 {
		updates["total_revenue_cents"] = gorm.Expr("total_revenue_cents + ?", change.revenue)
	}
	if change.paidOut != 0 {
		updates["total_paid_out_cents"] = gorm.Expr("total_paid_out_cents + ?", change.paidOut)
	}
	if change.pending != 0 {
		updates["pending_balance_cents"] = gorm.Expr("pending_balance_cents + ?", change.pending)
	}
	if len(updates) == 0 {
		return 0, nil
	}

	q := r.db.WithContext(ctx).Model(&models.Organizer{}).Where("id = ?", organizerID)
	if change.guardSQL != "" {
		q = q.Where(change.guardSQL, change.guardArgs...)
	}
	res := q.Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateEvent(ctx context.Context, event *models.LedgerEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListEvents(ctx context.Context, organizerID uuid.UUID, limit int) ([]models.LedgerEvent, error) {
	q := r.db.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var events []models.LedgerEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// PayoutSums are the balance columns recomputed from payout rows.
type PayoutSums struct {
	PendingCents int64 `gorm:"column:pending_cents"`
	PaidOutCents int64 `gorm:"column:paid_out_cents"`
}

func (r *repository) ListOrganizers(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Organizer, error) {
	q := r.db.WithContext(ctx).Order("id ASC")
	if afterID != uuid.Nil {
		q = q.Where("id > ?", afterID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var organizers []models.Organizer
	if err := q.Find(&organizers).Error; err != nil {
		return nil, err
	}
	return organizers, nil
}

func (r *repository) SumPayouts(ctx context.Context, organizerID uuid.UUID) (PayoutSums, error) {
	var sums PayoutSums
	err := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Select(
			"CAST(COALESCE(SUM(CASE WHEN status = ? THEN amount_cents ELSE 0 END), 0) AS BIGINT) AS pending_cents, "+
				"CAST(COALESCE(SUM(CASE WHEN status = ? THEN amount_cents ELSE 0 END), 0) AS BIGINT) AS paid_out_cents",
			enums.PayoutStatusProcessing.String(), enums.PayoutStatusCompleted.String(),
		).
		Where("organizer_id = ?", organizerID).
		Scan(&sums).Error
	if err != nil {
		return PayoutSums{}, err
	}
	return sums, nil
}
