package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/pkg/enums"
)

// Organizer is a seller on a marketplace. Balance columns are mutated only by the ledger.
type Organizer struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	MarketplaceID       uuid.UUID             `gorm:"column:marketplace_id;type:uuid;not null;index"`
	Name                string                `gorm:"column:name;not null"`
	Status              enums.OrganizerStatus `gorm:"column:status;type:organizer_status;not null;default:'pending'"`
	TotalRevenueCents   int64                 `gorm:"column:total_revenue_cents;not null;default:0"`
	TotalPaidOutCents   int64                 `gorm:"column:total_paid_out_cents;not null;default:0"`
	PendingBalanceCents int64                 `gorm:"column:pending_balance_cents;not null;default:0"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableCents is revenue minus paid out minus reserved.
func (o Organizer) AvailableCents() int64 {
	return o.TotalRevenueCents - o.TotalPaidOutCents - o.PendingBalanceCents
}

func (o *Organizer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
