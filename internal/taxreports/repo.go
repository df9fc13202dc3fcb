package taxreports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/enums"
)

// Repository loads the inputs of a tax report.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListEvents(ctx context.Context, marketplaceID uuid.UUID) ([]models.Event, error)
	ListRules(ctx context.Context, marketplaceID uuid.UUID) ([]models.TaxRule, error)
	RevenueByEvent(ctx context.Context, marketplaceID uuid.UUID) (map[uuid.UUID]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tax report repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListEvents(ctx context.Context, marketplaceID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("marketplace_id = ?", marketplaceID).
		Order("starts_at ASC").
		Order("id ASC").
		Find(&events).Error
	return events, err
}

func (r *repository) ListRules(ctx context.Context, marketplaceID uuid.UUID) ([]models.TaxRule, error) {
	var rules []models.TaxRule
	err := r.db.WithContext(ctx).
		Where("marketplace_id = ?", marketplaceID).
		Order("name ASC").
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

type eventRevenueRow struct {
	EventID    uuid.UUID `gorm:"column:event_id"`
	TotalCents int64     `gorm:"column:total_cents"`
}

// RevenueByEvent sums paid order totals per event.
func (r *repository) RevenueByEvent(ctx context.Context, marketplaceID uuid.UUID) (map[uuid.UUID]int64, error) {
	statuses := make([]string, len(enums.ReportableOrderStatuses))
	for i, s := range enums.ReportableOrderStatuses {
		statuses[i] = s.String()
	}

	var rows []eventRevenueRow
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("event_id, CAST(COALESCE(SUM(total_cents), 0) AS BIGINT) AS total_cents").
		Where("marketplace_id = ?", marketplaceID).
		Where("event_id IS NOT NULL").
		Where("status IN ?", statuses).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.EventID] = row.TotalCents
	}
	return out, nil
}
