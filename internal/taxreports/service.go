package taxreports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/internal/tenancy"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
)

var timeNowUTC = func() time.Time { return time.Now().UTC() }

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes marketplace tax reporting.
type Service interface {
	GetTaxReport(ctx context.Context, marketplaceID uuid.UUID, filters Filters) (*TaxReport, error)
	GetUpcomingDeadlines(ctx context.Context, marketplaceID uuid.UUID, windowDays int) ([]Deadline, error)
	GetOverduePayments(ctx context.Context, marketplaceID uuid.UUID) ([]Deadline, error)
}

type service struct {
	repo       Repository
	directory  tenancy.Directory
	tx         txRunner
	windowDays int
}

// NewService wires the tax report service. windowDays sets the due_soon horizon.
func NewService(repo Repository, directory tenancy.Directory, tx txRunner, windowDays int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tax report repository required")
	}
	if directory == nil {
		return nil, fmt.Errorf("tenant directory required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if windowDays <= 0 {
		windowDays = 30
	}
	return &service{repo: repo, directory: directory, tx: tx, windowDays: windowDays}, nil
}

func (s *service) GetTaxReport(ctx context.Context, marketplaceID uuid.UUID, filters Filters) (*TaxReport, error) {
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid tax status %q", *filters.Status))
	}
	report, err := s.build(ctx, marketplaceID)
	if err != nil {
		return nil, err
	}
	filtered := ApplyFilters(*report, filters)
	return &filtered, nil
}

func (s *service) GetUpcomingDeadlines(ctx context.Context, marketplaceID uuid.UUID, windowDays int) ([]Deadline, error) {
	if windowDays <= 0 {
		windowDays = s.windowDays
	}
	report, err := s.build(ctx, marketplaceID)
	if err != nil {
		return nil, err
	}
	return UpcomingDeadlines(*report, windowDays), nil
}

func (s *service) GetOverduePayments(ctx context.Context, marketplaceID uuid.UUID) ([]Deadline, error) {
	report, err := s.build(ctx, marketplaceID)
	if err != nil {
		return nil, err
	}
	return OverduePayments(*report), nil
}

func (s *service) build(ctx context.Context, marketplaceID uuid.UUID) (*TaxReport, error) {
	marketplace, err := s.directory.Marketplace(ctx, marketplaceID)
	if err != nil {
		return nil, err
	}

	var report TaxReport
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		events, err := repo.ListEvents(ctx, marketplaceID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
		}
		rules, err := repo.ListRules(ctx, marketplaceID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tax rules")
		}
		revenue, err := repo.RevenueByEvent(ctx, marketplaceID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum event revenue")
		}
		report = Build(events, revenue, rules, marketplace.Currency, timeNowUTC(), s.windowDays)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}
