package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/pkg/enums"
)

// LedgerEvent records an immutable balance mutation for an organizer.
type LedgerEvent struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MarketplaceID uuid.UUID             `gorm:"column:marketplace_id;type:uuid;not null" json:"marketplaceId"`
	OrganizerID   uuid.UUID             `gorm:"column:organizer_id;type:uuid;not null;index" json:"organizerId"`
	PayoutID      *uuid.UUID            `gorm:"column:payout_id;type:uuid" json:"payoutId,omitempty"`
	Type          enums.LedgerEventType `gorm:"column:type;type:ledger_event_type;not null" json:"type"`
	AmountCents   int64                 `gorm:"column:amount_cents;not null" json:"amountCents"`
	Metadata      json.RawMessage       `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time             `gorm:"column:created_at" json:"createdAt"`
}

func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}
