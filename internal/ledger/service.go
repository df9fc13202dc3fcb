// Package ledger owns organizer balances. Every mutation locks the organizer
// row, applies a guarded update and appends a LedgerEvent in the caller's
// transaction.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/internal/tenancy"
	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
	"github.com/angelmondragon/tixledger/pkg/money"
	"github.com/angelmondragon/tixledger/pkg/outbox"
	"github.com/angelmondragon/tixledger/pkg/outbox/payloads"
)

// ErrInsufficientBalance is the cause of every rejected reservation or settlement.
var ErrInsufficientBalance = errors.New("insufficient balance")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the organizer balance operations.
type Service interface {
	RecordRevenue(ctx context.Context, marketplaceID, organizerID uuid.UUID, amount money.Money) (*BalanceSnapshot, error)
	ReserveForPayout(ctx context.Context, tx *gorm.DB, marketplaceID, organizerID uuid.UUID, amount money.Money, opts ...EventOption) (*BalanceSnapshot, error)
	ReleaseReservation(ctx context.Context, tx *gorm.DB, marketplaceID, organizerID uuid.UUID, amount money.Money, opts ...EventOption) (*BalanceSnapshot, error)
	RecordPayoutCompleted(ctx context.Context, tx *gorm.DB, marketplaceID, organizerID uuid.UUID, amount money.Money, opts ...EventOption) (*BalanceSnapshot, error)
	GetOrganizerBalance(ctx context.Context, marketplaceID, organizerID uuid.UUID) (*BalanceSnapshot, error)
	ListEvents(ctx context.Context, marketplaceID, organizerID uuid.UUID, limit int) ([]models.LedgerEvent, error)
}

// BalanceSnapshot is an organizer's balance at one instant.
type BalanceSnapshot struct {
	MarketplaceID uuid.UUID   `json:"marketplaceId"`
	OrganizerID   uuid.UUID   `json:"organizerId"`
	TotalRevenue  money.Money `json:"totalRevenue"`
	TotalPaidOut  money.Money `json:"totalPaidOut"`
	Pending       money.Money `json:"pending"`
	Available     money.Money `json:"available"`
}

// EventOption decorates the audit event written by a mutation.
type EventOption func(*models.LedgerEvent)

// ForPayout links the audit event to a payout.
func ForPayout(payoutID uuid.UUID) EventOption {
	return func(e *models.LedgerEvent) {
		e.PayoutID = &payoutID
	}
}

// WithMetadata attaches free-form JSON to the audit event.
func WithMetadata(metadata json.RawMessage) EventOption {
	return func(e *models.LedgerEvent) {
		e.Metadata = metadata
	}
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxEmitter
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, tx txRunner, emitter outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter}, nil
}

type mutation struct {
	eventType enums.LedgerEventType
	change    func(amount int64) balanceChange
	precheck  func(org *models.Organizer, amount int64) bool
}

var (
	revenueRecorded = mutation{
		eventType: enums.LedgerEventTypeRevenueRecorded,
		change: func(amount int64) balanceChange {
			return balanceChange{revenue: amount}
		},
	}
	payoutReserved = mutation{
		eventType: enums.LedgerEventTypePayoutReserved,
		change: func(amount int64) balanceChange {
			return balanceChange{pending: amount, guardSQL: availableExpr + " >= ?", guardArgs: []any{amount}}
		},
		precheck: func(org *models.Organizer, amount int64) bool {
			return org.AvailableCents() >= amount
		},
	}
	reservationReleased = mutation{
		eventType: enums.LedgerEventTypeReservationReleased,
		change: func(amount int64) balanceChange {
			return balanceChange{pending: -amount, guardSQL: "pending_balance_cents >= ?", guardArgs: []any{amount}}
		},
		precheck: func(org *models.Organizer, amount int64) bool {
			return org.PendingBalanceCents >= amount
		},
	}
	payoutCompleted = mutation{
		eventType: enums.LedgerEventTypePayoutCompleted,
		change: func(amount int64) balanceChange {
			return balanceChange{pending: -amount, paidOut: amount, guardSQL: "pending_balance_cents >= ?", guardArgs: []any{amount}}
		},
		precheck: func(org *models.Organizer, amount int64) bool {
			return org.PendingBalanceCents >= amount
		},
	}
)

func (s *service) RecordRevenue(ctx context.Context, marketplaceID, organizerID uuid.UUID, amount money.Money) (*BalanceSnapshot, error) {
	var snapshot *BalanceSnapshot
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		snapshot, err = s.apply(ctx, tx, marketplaceID, organizerID, amount, revenueRecorded, nil)
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRevenueRecorded,
			AggregateType: enums.AggregateOrganizer,
			AggregateID:   organizerID,
			Actor:         &outbox.ActorRef{MarketplaceID: marketplaceID, Component: "ledger"},
			Data: payloads.RevenueRecordedEvent{
				MarketplaceID: marketplaceID,
				OrganizerID:   organizerID,
				AmountCents:   amount.Amount,
				Currency:      snapshot.TotalRevenue.Currency,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *service) ReserveForPayout(ctx context.Context, tx *gorm.DB, marketplaceID, organizerID uuid.UUID, amount money.Money, opts ...EventOption) (*BalanceSnapshot, error) {
	return s.apply(ctx, tx, marketplaceID, organizerID, amount, payoutReserved, opts)
}

func (s *service) ReleaseReservation(ctx context.Context, tx *gorm.DB, marketplaceID, organizerID uuid.UUID, amount money.Money, opts ...EventOption) (*BalanceSnapshot, error) {
	return s.apply(ctx, tx, marketplaceID, organizerID, amount, reservationReleased, opts)
}

func (s *service) RecordPayoutCompleted(ctx context.Context, tx *gorm.DB, marketplaceID, organizerID uuid.UUID, amount money.Money, opts ...EventOption) (*BalanceSnapshot, error) {
	return s.apply(ctx, tx, marketplaceID, organizerID, amount, payoutCompleted, opts)
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, marketplaceID, organizerID uuid.UUID, amount money.Money, m mutation, opts []EventOption) (*BalanceSnapshot, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if amount.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	repo := s.repo.WithTx(tx)

	currency, err := s.currency(ctx, repo, marketplaceID)
	if err != nil {
		return nil, err
	}
	if _, err := money.Zero(currency).Compare(amount); err != nil {
		return nil, err
	}

	organizer, err := repo.LockOrganizer(ctx, organizerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenancy.Denied("organizer")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock organizer")
	}
	if err := tenancy.EnsureOrganizer(organizer, marketplaceID); err != nil {
		return nil, err
	}

	if m.precheck != nil && !m.precheck(organizer, amount.Amount) {
		return nil, insufficient(organizer, amount)
	}
	affected, err := repo.ApplyChange(ctx, organizerID, m.change(amount.Amount))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update organizer balance")
	}
	if affected == 0 {
		return nil, insufficient(organizer, amount)
	}

	event := &models.LedgerEvent{
		MarketplaceID: marketplaceID,
		OrganizerID:   organizerID,
		Type:          m.eventType,
		AmountCents:   amount.Amount,
	}
	for _, opt := range opts {
		opt(event)
	}
	if err := repo.CreateEvent(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger event")
	}

	updated, err := repo.FindOrganizer(ctx, organizerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload organizer")
	}
	snapshot := snapshotOf(updated, currency)
	return &snapshot, nil
}

func (s *service) GetOrganizerBalance(ctx context.Context, marketplaceID, organizerID uuid.UUID) (*BalanceSnapshot, error) {
	currency, err := s.currency(ctx, s.repo, marketplaceID)
	if err != nil {
		return nil, err
	}
	organizer, err := s.guardedOrganizer(ctx, marketplaceID, organizerID)
	if err != nil {
		return nil, err
	}
	snapshot := snapshotOf(organizer, currency)
	return &snapshot, nil
}

func (s *service) ListEvents(ctx context.Context, marketplaceID, organizerID uuid.UUID, limit int) ([]models.LedgerEvent, error) {
	if _, err := s.guardedOrganizer(ctx, marketplaceID, organizerID); err != nil {
		return nil, err
	}
	events, err := s.repo.ListEvents(ctx, organizerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger events")
	}
	return events, nil
}

func (s *service) guardedOrganizer(ctx context.Context, marketplaceID, organizerID uuid.UUID) (*models.Organizer, error) {
	organizer, err := s.repo.FindOrganizer(ctx, organizerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenancy.Denied("organizer")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organizer")
	}
	if err := tenancy.EnsureOrganizer(organizer, marketplaceID); err != nil {
		return nil, err
	}
	return organizer, nil
}

func (s *service) currency(ctx context.Context, repo Repository, marketplaceID uuid.UUID) (string, error) {
	if marketplaceID == uuid.Nil {
		return "", tenancy.Denied("marketplace")
	}
	currency, err := repo.MarketplaceCurrency(ctx, marketplaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", tenancy.Denied("marketplace")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load marketplace currency")
	}
	return currency, nil
}

func insufficient(org *models.Organizer, amount money.Money) error {
	return pkgerrors.Wrap(
		pkgerrors.CodeInsufficientBalance,
		ErrInsufficientBalance,
		fmt.Sprintf("requested %s exceeds balance", amount),
	).WithDetails(map[string]any{
		"availableCents": org.AvailableCents(),
		"pendingCents":   org.PendingBalanceCents,
		"requestedCents": amount.Amount,
	})
}

func snapshotOf(org *models.Organizer, currency string) BalanceSnapshot {
	return BalanceSnapshot{
		MarketplaceID: org.MarketplaceID,
		OrganizerID:   org.ID,
		TotalRevenue:  money.New(org.TotalRevenueCents, currency),
		TotalPaidOut:  money.New(org.TotalPaidOutCents, currency),
		Pending:       money.New(org.PendingBalanceCents, currency),
		Available:     money.New(org.AvailableCents(), currency),
	}
}
