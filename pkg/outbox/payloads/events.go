package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tixledger/pkg/enums"
)

// PayoutCreatedEvent is emitted once the payout amount is reserved.
type PayoutCreatedEvent struct {
	PayoutID      uuid.UUID          `json:"payout_id"`
	MarketplaceID uuid.UUID          `json:"marketplace_id"`
	OrganizerID   uuid.UUID          `json:"organizer_id"`
	AmountCents   int64              `json:"amount_cents"`
	Currency      string             `json:"currency"`
	Reference     string             `json:"reference"`
	Status        enums.PayoutStatus `json:"status"`
}

// PayoutCompletedEvent is emitted when the transfer is confirmed.
type PayoutCompletedEvent struct {
	PayoutID      uuid.UUID `json:"payout_id"`
	MarketplaceID uuid.UUID `json:"marketplace_id"`
	OrganizerID   uuid.UUID `json:"organizer_id"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	Reference     string    `json:"reference"`
	CompletedAt   time.Time `json:"completed_at"`
}

// PayoutCancelledEvent is emitted when a reservation is released.
type PayoutCancelledEvent struct {
	PayoutID      uuid.UUID `json:"payout_id"`
	MarketplaceID uuid.UUID `json:"marketplace_id"`
	OrganizerID   uuid.UUID `json:"organizer_id"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	CancelledAt   time.Time `json:"cancelled_at"`
}

// RevenueRecordedEvent is emitted when organizer revenue is credited.
type RevenueRecordedEvent struct {
	MarketplaceID uuid.UUID `json:"marketplace_id"`
	OrganizerID   uuid.UUID `json:"organizer_id"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
}
