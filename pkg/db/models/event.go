package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/pkg/enums"
)

// Event is a ticketed event. Tax liabilities are computed per event.
type Event struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	MarketplaceID uuid.UUID `gorm:"column:marketplace_id;type:uuid;not null"`
	OrganizerID   uuid.UUID `gorm:"column:organizer_id;type:uuid;not null"`
	Name          string    `gorm:"column:name;not null"`
	EventType     string    `gorm:"column:event_type;not null"`
	Location      string    `gorm:"column:location"`
	StartsAt      time.Time `gorm:"column:starts_at;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TaxRule is a general or local tax applicable to events.
// Percent rates are expressed as percentages; fixed rates are minor units per event.
type TaxRule struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	MarketplaceID   uuid.UUID         `gorm:"column:marketplace_id;type:uuid;not null"`
	Name            string            `gorm:"column:name;not null"`
	Scope           enums.TaxScope    `gorm:"column:scope;type:tax_scope;not null"`
	RateType        enums.TaxRateType `gorm:"column:rate_type;type:tax_rate_type;not null"`
	Rate            decimal.Decimal   `gorm:"column:rate;type:numeric(12,4);not null"`
	EventTypeFilter *string           `gorm:"column:event_type_filter"`
	Location        *string           `gorm:"column:location"`
	FilingDays      int               `gorm:"column:filing_days;not null;default:30"`
	ValidFrom       time.Time         `gorm:"column:valid_from;not null"`
	ValidTo         *time.Time        `gorm:"column:valid_to"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (r *TaxRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
