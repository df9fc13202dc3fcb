package reporting

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/internal/sources"
	"github.com/angelmondragon/tixledger/internal/tenancy"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service builds income reports.
type Service interface {
	GetIncomeReport(ctx context.Context, query IncomeQuery) (*IncomeReport, error)
}

type IncomeQuery struct {
	MarketplaceID uuid.UUID
	OrganizerID   *uuid.UUID
	Range         DateRange
}

type Options struct {
	TopOrganizersLimit int
	MaxRangeDays       int
}

type BreakdownItem struct {
	Source       string  `json:"source"`
	AmountCents  int64   `json:"amountCents"`
	SharePercent float64 `json:"sharePercent"`
}

// Deltas are percent changes against the previous period; nil means N/A.
type Deltas struct {
	GrandTotal              *float64 `json:"grandTotal"`
	TotalSales              *float64 `json:"totalSales"`
	Commissions             *float64 `json:"commissions"`
	RefundFeeRevenue        *float64 `json:"refundFeeRevenue"`
	GiftCardRevenue         *float64 `json:"giftCardRevenue"`
	ServicesRevenue         *float64 `json:"servicesRevenue"`
	TotalOrders             *float64 `json:"totalOrders"`
	AvgOrderValue           *float64 `json:"avgOrderValue"`
	EffectiveCommissionRate *float64 `json:"effectiveCommissionRate"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

type ChartSeries struct {
	Revenue []TimeSeriesPoint `json:"revenue"`
	Sales   []TimeSeriesPoint `json:"sales"`
	Orders  []TimeSeriesPoint `json:"orders"`
}

type TopOrganizer struct {
	OrganizerID     uuid.UUID `json:"organizerId"`
	Name            string    `json:"name"`
	OrderCount      int64     `json:"orderCount"`
	SalesCents      int64     `json:"salesCents"`
	CommissionCents int64     `json:"commissionCents"`
	SharePercent    float64   `json:"sharePercent"`
}

// IncomeReport is everything the income screens render for one period.
type IncomeReport struct {
	MarketplaceID uuid.UUID       `json:"marketplaceId"`
	OrganizerID   *uuid.UUID      `json:"organizerId,omitempty"`
	Currency      string          `json:"currency"`
	Current       PeriodTotals    `json:"current"`
	Previous      PeriodTotals    `json:"previous"`
	Deltas        Deltas          `json:"deltas"`
	Breakdown     []BreakdownItem `json:"breakdown"`
	Chart         ChartSeries     `json:"chart"`
	TopOrganizers []TopOrganizer  `json:"topOrganizers"`
}

const (
	SourceCommissions = "commissions"
	SourceRefundFees  = "refund_fees"
	SourceGiftCards   = "gift_cards"
	SourceServices    = "services"
)

type service struct {
	reader    sources.Reader
	directory tenancy.Directory
	tx        txRunner
	opts      Options
}

// NewService wires the income report service.
func NewService(reader sources.Reader, directory tenancy.Directory, tx txRunner, opts Options) (Service, error) {
	if reader == nil {
		return nil, fmt.Errorf("sources reader required")
	}
	if directory == nil {
		return nil, fmt.Errorf("tenant directory required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if opts.TopOrganizersLimit < 0 {
		opts.TopOrganizersLimit = 0
	}
	return &service{reader: reader, directory: directory, tx: tx, opts: opts}, nil
}

func (s *service) GetIncomeReport(ctx context.Context, query IncomeQuery) (*IncomeReport, error) {
	if query.Range.Start.IsZero() || query.Range.End.Before(query.Range.Start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid date range required")
	}
	if s.opts.MaxRangeDays > 0 && query.Range.Days() > s.opts.MaxRangeDays {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("date range exceeds %d days", s.opts.MaxRangeDays))
	}

	marketplace, err := s.directory.Marketplace(ctx, query.MarketplaceID)
	if err != nil {
		return nil, err
	}
	if query.OrganizerID != nil {
		if _, err := s.directory.Organizer(ctx, query.MarketplaceID, *query.OrganizerID); err != nil {
			return nil, err
		}
	}

	report := &IncomeReport{
		MarketplaceID: marketplace.ID,
		OrganizerID:   query.OrganizerID,
		Currency:      marketplace.Currency,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reader := s.reader.WithTx(tx)
		agg := &Aggregator{reader: reader}

		current, err := agg.Aggregate(ctx, query.MarketplaceID, query.OrganizerID, query.Range)
		if err != nil {
			return err
		}
		previous, err := agg.Totals(ctx, query.MarketplaceID, query.OrganizerID, query.Range.Previous())
		if err != nil {
			return err
		}
		top, err := reader.TopOrganizers(ctx, scopeFor(query.MarketplaceID, query.OrganizerID, query.Range), s.opts.TopOrganizersLimit)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load top organizers")
		}

		report.Current = current
		report.Previous = previous
		report.TopOrganizers = topOrganizers(top, current.CommissionCents)
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Deltas = computeDeltas(report.Current, report.Previous)
	report.Breakdown = breakdown(report.Current)
	report.Chart = chart(report.Current.Daily)
	return report, nil
}

func computeDeltas(current, previous PeriodTotals) Deltas {
	return Deltas{
		GrandTotal:              DeltaPercent(current.GrandTotalCents, previous.GrandTotalCents),
		TotalSales:              DeltaPercent(current.TotalSalesCents, previous.TotalSalesCents),
		Commissions:             DeltaPercent(current.CommissionCents, previous.CommissionCents),
		RefundFeeRevenue:        DeltaPercent(current.RefundFeeRevenueCents, previous.RefundFeeRevenueCents),
		GiftCardRevenue:         DeltaPercent(current.GiftCardRevenueCents, previous.GiftCardRevenueCents),
		ServicesRevenue:         DeltaPercent(current.ServicesRevenueCents, previous.ServicesRevenueCents),
		TotalOrders:             DeltaPercent(current.TotalOrders, previous.TotalOrders),
		AvgOrderValue:           DeltaPercent(current.AvgOrderValueCents, previous.AvgOrderValueCents),
		EffectiveCommissionRate: deltaFloat(current.EffectiveCommissionRate, previous.EffectiveCommissionRate),
	}
}

func breakdown(t PeriodTotals) []BreakdownItem {
	items := []BreakdownItem{
		{Source: SourceCommissions, AmountCents: t.CommissionCents},
		{Source: SourceRefundFees, AmountCents: t.RefundFeeRevenueCents},
		{Source: SourceGiftCards, AmountCents: t.GiftCardRevenueCents},
		{Source: SourceServices, AmountCents: t.ServicesRevenueCents},
	}
	for i := range items {
		items[i].SharePercent = percentOf(items[i].AmountCents, t.GrandTotalCents)
	}
	return items
}

func chart(daily []DailyRow) ChartSeries {
	series := ChartSeries{
		Revenue: make([]TimeSeriesPoint, 0, len(daily)),
		Sales:   make([]TimeSeriesPoint, 0, len(daily)),
		Orders:  make([]TimeSeriesPoint, 0, len(daily)),
	}
	for _, row := range daily {
		series.Revenue = append(series.Revenue, TimeSeriesPoint{Date: row.Date, Value: row.RevenueCents})
		series.Sales = append(series.Sales, TimeSeriesPoint{Date: row.Date, Value: row.SalesCents})
		series.Orders = append(series.Orders, TimeSeriesPoint{Date: row.Date, Value: row.Orders})
	}
	return series
}

func topOrganizers(rows []sources.OrganizerRevenueRow, totalCommission int64) []TopOrganizer {
	out := make([]TopOrganizer, 0, len(rows))
	for _, row := range rows {
		out = append(out, TopOrganizer{
			OrganizerID:     row.OrganizerID,
			Name:            row.Name,
			OrderCount:      row.OrderCount,
			SalesCents:      row.SalesCents,
			CommissionCents: row.CommissionCents,
			SharePercent:    percentOf(row.CommissionCents, totalCommission),
		})
	}
	return out
}
