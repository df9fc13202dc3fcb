package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/enums"
	pkgpagination "github.com/angelmondragon/tixledger/pkg/pagination"
)

// Repository persists payout rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.Payout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	UpdateState(ctx context.Context, payout *models.Payout) error
	List(ctx context.Context, opts listQuery) ([]models.Payout, error)
}

type listQuery struct {
	marketplaceID uuid.UUID
	organizerID   *uuid.UUID
	status        *enums.PayoutStatus
	limit         int
	cursor        *pkgpagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var payout models.Payout
	if err := q.Where("id = ?", id).First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

// UpdateState writes the mutable lifecycle columns only.
func (r *repository) UpdateState(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).
		Model(payout).
		Select("status", "reference", "notes", "completed_at", "cancelled_at", "updated_at").
		Updates(payout).Error
}

// List returns marketplace-scoped payouts newest first using cursor pagination.
func (r *repository) List(ctx context.Context, opts listQuery) ([]models.Payout, error) {
	query := r.db.WithContext(ctx).Model(&models.Payout{}).Where("marketplace_id = ?", opts.marketplaceID)
	if opts.organizerID != nil {
		query = query.Where("organizer_id = ?", *opts.organizerID)
	}
	if opts.status != nil {
		query = query.Where("status = ?", opts.status.String())
	}
	if opts.cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Payout
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
