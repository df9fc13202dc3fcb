package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/pkg/enums"
)

// Payout is a bank transfer to an organizer. Its amount is reserved while processing.
type Payout struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MarketplaceID uuid.UUID          `gorm:"column:marketplace_id;type:uuid;not null" json:"marketplaceId"`
	OrganizerID   uuid.UUID          `gorm:"column:organizer_id;type:uuid;not null;index" json:"organizerId"`
	AmountCents   int64              `gorm:"column:amount_cents;not null" json:"amountCents"`
	Currency      string             `gorm:"column:currency;type:char(3);not null" json:"currency"`
	Status        enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'processing'" json:"status"`
	Reference     string             `gorm:"column:reference;not null" json:"reference"`
	Notes         *string            `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt     time.Time          `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	CompletedAt   *time.Time         `gorm:"column:completed_at" json:"completedAt,omitempty"`
	CancelledAt   *time.Time         `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
}

func (p *Payout) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}
