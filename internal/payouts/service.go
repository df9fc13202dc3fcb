// Package payouts drives the payout lifecycle: reserve on create, settle on
// complete, release on cancel. Each step shares one transaction with its
// ledger side effect and outbox event.
package payouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/internal/ledger"
	"github.com/angelmondragon/tixledger/internal/tenancy"
	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
	"github.com/angelmondragon/tixledger/pkg/logger"
	"github.com/angelmondragon/tixledger/pkg/metrics"
	"github.com/angelmondragon/tixledger/pkg/money"
	"github.com/angelmondragon/tixledger/pkg/outbox"
	"github.com/angelmondragon/tixledger/pkg/outbox/payloads"
	pkgpagination "github.com/angelmondragon/tixledger/pkg/pagination"
)

const (
	actionCreate   = "create"
	actionComplete = "complete"
	actionCancel   = "cancel"
)

var timeNowUTC = func() time.Time { return time.Now().UTC() }

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines payout lifecycle operations.
type Service interface {
	CreatePayout(ctx context.Context, input CreatePayoutInput) (*models.Payout, error)
	CompletePayout(ctx context.Context, marketplaceID, payoutID uuid.UUID, reference string, notes *string) (*models.Payout, error)
	CancelPayout(ctx context.Context, marketplaceID, payoutID uuid.UUID) (*models.Payout, error)
	GetPayout(ctx context.Context, marketplaceID, payoutID uuid.UUID) (*models.Payout, error)
	ListPayouts(ctx context.Context, params ListParams) (*ListResult, error)
}

type CreatePayoutInput struct {
	MarketplaceID uuid.UUID
	OrganizerID   uuid.UUID
	AmountCents   int64
	Reference     string
	Notes         *string
}

type ListParams struct {
	MarketplaceID uuid.UUID
	OrganizerID   *uuid.UUID
	Status        *enums.PayoutStatus
	pkgpagination.Params
}

type ListResult struct {
	Items  []models.Payout `json:"items"`
	Cursor string          `json:"cursor"`
}

// ServiceParams groups the collaborators NewService requires.
type ServiceParams struct {
	Repo      Repository
	Ledger    ledger.Service
	Directory tenancy.Directory
	Outbox    outboxEmitter
	Tx        txRunner
	Metrics   *metrics.PayoutMetrics
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	ledger    ledger.Service
	directory tenancy.Directory
	outbox    outboxEmitter
	tx        txRunner
	metrics   *metrics.PayoutMetrics
	logg      *logger.Logger
}

// NewService wires the payout service.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if p.Directory == nil {
		return nil, fmt.Errorf("tenant directory required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      p.Repo,
		ledger:    p.Ledger,
		directory: p.Directory,
		outbox:    p.Outbox,
		tx:        p.Tx,
		metrics:   p.Metrics,
		logg:      p.Logger,
	}, nil
}

func (s *service) CreatePayout(ctx context.Context, input CreatePayoutInput) (*models.Payout, error) {
	payout, err := s.create(ctx, input)
	s.observe(ctx, actionCreate, payout, err)
	return payout, err
}

func (s *service) create(ctx context.Context, input CreatePayoutInput) (*models.Payout, error) {
	reference, err := NormalizeReference(input.Reference)
	if err != nil {
		return nil, err
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	marketplace, err := s.directory.Marketplace(ctx, input.MarketplaceID)
	if err != nil {
		return nil, err
	}

	now := timeNowUTC()
	payout := &models.Payout{
		ID:            uuid.New(),
		MarketplaceID: input.MarketplaceID,
		OrganizerID:   input.OrganizerID,
		AmountCents:   input.AmountCents,
		Currency:      marketplace.Currency,
		Status:        enums.PayoutStatusProcessing,
		Reference:     reference,
		Notes:         normalizeNotes(input.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		amount := money.New(payout.AmountCents, payout.Currency)
		if _, err := s.ledger.ReserveForPayout(ctx, tx, payout.MarketplaceID, payout.OrganizerID, amount, ledger.ForPayout(payout.ID)); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
		}
		return s.emit(ctx, tx, enums.EventPayoutCreated, payout, payloads.PayoutCreatedEvent{
			PayoutID:      payout.ID,
			MarketplaceID: payout.MarketplaceID,
			OrganizerID:   payout.OrganizerID,
			AmountCents:   payout.AmountCents,
			Currency:      payout.Currency,
			Reference:     payout.Reference,
			Status:        payout.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) CompletePayout(ctx context.Context, marketplaceID, payoutID uuid.UUID, reference string, notes *string) (*models.Payout, error) {
	if _, err := NormalizeReference(reference); err != nil {
		s.observe(ctx, actionComplete, nil, err)
		return nil, err
	}
	payout, err := s.transition(ctx, marketplaceID, payoutID, func(tx *gorm.DB, p *models.Payout) error {
		now := timeNowUTC()
		if err := Complete(p, reference, notes, now); err != nil {
			return err
		}
		p.UpdatedAt = now
		amount := money.New(p.AmountCents, p.Currency)
		if _, err := s.ledger.RecordPayoutCompleted(ctx, tx, p.MarketplaceID, p.OrganizerID, amount, ledger.ForPayout(p.ID)); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).UpdateState(ctx, p); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}
		return s.emit(ctx, tx, enums.EventPayoutCompleted, p, payloads.PayoutCompletedEvent{
			PayoutID:      p.ID,
			MarketplaceID: p.MarketplaceID,
			OrganizerID:   p.OrganizerID,
			AmountCents:   p.AmountCents,
			Currency:      p.Currency,
			Reference:     p.Reference,
			CompletedAt:   *p.CompletedAt,
		})
	})
	s.observe(ctx, actionComplete, payout, err)
	return payout, err
}

func (s *service) CancelPayout(ctx context.Context, marketplaceID, payoutID uuid.UUID) (*models.Payout, error) {
	payout, err := s.transition(ctx, marketplaceID, payoutID, func(tx *gorm.DB, p *models.Payout) error {
		now := timeNowUTC()
		if err := Cancel(p, now); err != nil {
			return err
		}
		p.UpdatedAt = now
		amount := money.New(p.AmountCents, p.Currency)
		if _, err := s.ledger.ReleaseReservation(ctx, tx, p.MarketplaceID, p.OrganizerID, amount, ledger.ForPayout(p.ID)); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).UpdateState(ctx, p); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}
		return s.emit(ctx, tx, enums.EventPayoutCancelled, p, payloads.PayoutCancelledEvent{
			PayoutID:      p.ID,
			MarketplaceID: p.MarketplaceID,
			OrganizerID:   p.OrganizerID,
			AmountCents:   p.AmountCents,
			Currency:      p.Currency,
			CancelledAt:   *p.CancelledAt,
		})
	})
	s.observe(ctx, actionCancel, payout, err)
	return payout, err
}

// transition locks the payout, checks tenancy and runs apply in one transaction.
func (s *service) transition(ctx context.Context, marketplaceID, payoutID uuid.UUID, apply func(tx *gorm.DB, p *models.Payout) error) (*models.Payout, error) {
	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.repo.WithTx(tx).LockByID(ctx, payoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tenancy.Denied("payout")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock payout")
		}
		if err := tenancy.EnsurePayout(locked, marketplaceID); err != nil {
			return err
		}
		if err := apply(tx, locked); err != nil {
			return err
		}
		payout = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) GetPayout(ctx context.Context, marketplaceID, payoutID uuid.UUID) (*models.Payout, error) {
	payout, err := s.repo.FindByID(ctx, payoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenancy.Denied("payout")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	if err := tenancy.EnsurePayout(payout, marketplaceID); err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) ListPayouts(ctx context.Context, params ListParams) (*ListResult, error) {
	if _, err := s.directory.Marketplace(ctx, params.MarketplaceID); err != nil {
		return nil, err
	}
	if params.OrganizerID != nil {
		if _, err := s.directory.Organizer(ctx, params.MarketplaceID, *params.OrganizerID); err != nil {
			return nil, err
		}
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout status %q", *params.Status))
	}

	query := listQuery{
		marketplaceID: params.MarketplaceID,
		organizerID:   params.OrganizerID,
		status:        params.Status,
		limit:         pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	items, next := pkgpagination.Trim(rows, params.Limit, func(p models.Payout) pkgpagination.Cursor {
		return pkgpagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	if items == nil {
		items = []models.Payout{}
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, p *models.Payout, data any) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayout,
		AggregateID:   p.ID,
		Actor:         &outbox.ActorRef{MarketplaceID: p.MarketplaceID, Component: "payouts"},
		Data:          data,
		Version:       1,
	})
}

func (s *service) observe(ctx context.Context, action string, p *models.Payout, err error) {
	switch {
	case err == nil:
		s.metrics.Observe(action, metrics.OutcomeSuccess)
		if p != nil {
			s.metrics.AddAmount(action, p.Currency, p.AmountCents)
		}
		if s.logg != nil && p != nil {
			logCtx := s.logg.WithPayoutID(ctx, p.ID.String())
			logCtx = s.logg.WithOrganizerID(logCtx, p.OrganizerID.String())
			s.logg.Info(logCtx, fmt.Sprintf("payout %s: %s", action, p.Status))
		}
	case isRejection(err):
		s.metrics.Observe(action, metrics.OutcomeRejected)
	default:
		s.metrics.Observe(action, metrics.OutcomeError)
		if s.logg != nil {
			s.logg.Error(ctx, fmt.Sprintf("payout %s failed", action), err)
		}
	}
}

func isRejection(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return false
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeInsufficientBalance,
		pkgerrors.CodeInvalidTransition,
		pkgerrors.CodeCurrencyMismatch:
		return true
	default:
		return false
	}
}
