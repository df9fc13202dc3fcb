package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/pkg/enums"
)

// Order is a ticket order. Read-only for this service.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	MarketplaceID   uuid.UUID         `gorm:"column:marketplace_id;type:uuid;not null"`
	OrganizerID     uuid.UUID         `gorm:"column:organizer_id;type:uuid;not null"`
	EventID         *uuid.UUID        `gorm:"column:event_id;type:uuid"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	TotalCents      int64             `gorm:"column:total_cents;not null;default:0"`
	CommissionCents int64             `gorm:"column:commission_cents;not null;default:0"`
	PaidAt          *time.Time        `gorm:"column:paid_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// RefundRequest is a buyer refund. FeesRefundCents is the portion the marketplace retains.
type RefundRequest struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	MarketplaceID   uuid.UUID                 `gorm:"column:marketplace_id;type:uuid;not null"`
	OrganizerID     uuid.UUID                 `gorm:"column:organizer_id;type:uuid;not null"`
	OrderID         *uuid.UUID                `gorm:"column:order_id;type:uuid"`
	Status          enums.RefundRequestStatus `gorm:"column:status;type:refund_request_status;not null"`
	FeesRefundCents int64                     `gorm:"column:fees_refund_cents;not null;default:0"`
	CompletedAt     *time.Time                `gorm:"column:completed_at"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (r *RefundRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// GiftCard revenue is recognized when the card is issued.
type GiftCard struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	MarketplaceID      uuid.UUID            `gorm:"column:marketplace_id;type:uuid;not null"`
	Code               string               `gorm:"column:code;not null"`
	Status             enums.GiftCardStatus `gorm:"column:status;type:gift_card_status;not null"`
	InitialAmountCents int64                `gorm:"column:initial_amount_cents;not null;default:0"`
	CreatedAt          time.Time            `gorm:"column:created_at"`
}

func (g *GiftCard) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	return nil
}

// ServiceOrder is an add-on service (promotion, ticket printing) bought by an organizer.
type ServiceOrder struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	MarketplaceID uuid.UUID           `gorm:"column:marketplace_id;type:uuid;not null"`
	OrganizerID   uuid.UUID           `gorm:"column:organizer_id;type:uuid;not null"`
	ServiceType   string              `gorm:"column:service_type;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null"`
	TotalCents    int64               `gorm:"column:total_cents;not null;default:0"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (s *ServiceOrder) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
