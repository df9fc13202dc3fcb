package reporting

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tixledger/internal/sources"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
)

// DailyRow holds one calendar day. Days without activity carry zeros.
type DailyRow struct {
	Date            string `json:"date"`
	Orders          int64  `json:"orders"`
	SalesCents      int64  `json:"salesCents"`
	CommissionCents int64  `json:"commissionCents"`
	RefundFeeCents  int64  `json:"refundFeeCents"`
	GiftCardCents   int64  `json:"giftCardCents"`
	ServicesCents   int64  `json:"servicesCents"`
	RevenueCents    int64  `json:"revenueCents"`
}

// PeriodTotals is the bucketed result for one date range.
// GrandTotalCents is retained marketplace revenue and never includes gross sales.
type PeriodTotals struct {
	Range                   DateRange  `json:"range"`
	Days                    int        `json:"days"`
	TotalOrders             int64      `json:"totalOrders"`
	TotalSalesCents         int64      `json:"totalSalesCents"`
	CommissionCents         int64      `json:"commissionCents"`
	RefundFeeRevenueCents   int64      `json:"refundFeeRevenueCents"`
	GiftCardRevenueCents    int64      `json:"giftCardRevenueCents"`
	ServicesRevenueCents    int64      `json:"servicesRevenueCents"`
	GrandTotalCents         int64      `json:"grandTotalCents"`
	AvgDailySalesCents      int64      `json:"avgDailySalesCents"`
	AvgDailyRevenueCents    int64      `json:"avgDailyRevenueCents"`
	AvgDailyOrders          float64    `json:"avgDailyOrders"`
	AvgOrderValueCents      int64      `json:"avgOrderValueCents"`
	EffectiveCommissionRate float64    `json:"effectiveCommissionRate"`
	Daily                   []DailyRow `json:"daily,omitempty"`
}

// Aggregator turns source facts into PeriodTotals.
type Aggregator struct {
	reader sources.Reader
}

func NewAggregator(reader sources.Reader) (*Aggregator, error) {
	if reader == nil {
		return nil, fmt.Errorf("sources reader required")
	}
	return &Aggregator{reader: reader}, nil
}

// Aggregate sums every bucket and builds the gap-filled daily breakdown.
func (a *Aggregator) Aggregate(ctx context.Context, marketplaceID uuid.UUID, organizerID *uuid.UUID, rng DateRange) (PeriodTotals, error) {
	totals, err := a.Totals(ctx, marketplaceID, organizerID, rng)
	if err != nil {
		return PeriodTotals{}, err
	}
	daily, err := a.daily(ctx, scopeFor(marketplaceID, organizerID, rng), rng)
	if err != nil {
		return PeriodTotals{}, err
	}
	totals.Daily = daily
	return totals, nil
}

// Totals is Aggregate without the daily breakdown.
func (a *Aggregator) Totals(ctx context.Context, marketplaceID uuid.UUID, organizerID *uuid.UUID, rng DateRange) (PeriodTotals, error) {
	scope := scopeFor(marketplaceID, organizerID, rng)

	orders, err := a.reader.OrderTotals(ctx, scope)
	if err != nil {
		return PeriodTotals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order totals")
	}
	refundFees, err := a.reader.RefundFeeTotal(ctx, scope)
	if err != nil {
		return PeriodTotals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund fee totals")
	}
	giftCards, err := a.reader.GiftCardTotal(ctx, scope)
	if err != nil {
		return PeriodTotals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gift card totals")
	}
	services, err := a.reader.ServiceTotal(ctx, scope)
	if err != nil {
		return PeriodTotals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service totals")
	}

	return buildTotals(rng, orders, refundFees, giftCards, services), nil
}

func buildTotals(rng DateRange, orders sources.OrderTotals, refundFees, giftCards, services int64) PeriodTotals {
	days := int64(rng.Days())
	t := PeriodTotals{
		Range:                 rng,
		Days:                  rng.Days(),
		TotalOrders:           orders.Count,
		TotalSalesCents:       orders.SalesCents,
		CommissionCents:       orders.CommissionCents,
		RefundFeeRevenueCents: refundFees,
		GiftCardRevenueCents:  giftCards,
		ServicesRevenueCents:  services,
	}
	t.GrandTotalCents = t.CommissionCents + t.RefundFeeRevenueCents + t.GiftCardRevenueCents + t.ServicesRevenueCents
	t.AvgDailySalesCents = averageCents(t.TotalSalesCents, days)
	t.AvgDailyRevenueCents = averageCents(t.GrandTotalCents, days)
	t.AvgDailyOrders, _ = ratio(decimal.NewFromInt(t.TotalOrders), decimal.NewFromInt(days)).Round(2).Float64()
	t.AvgOrderValueCents = averageCents(t.TotalSalesCents, t.TotalOrders)
	t.EffectiveCommissionRate = percentOf(t.CommissionCents, t.TotalSalesCents)
	return t
}

func (a *Aggregator) daily(ctx context.Context, scope sources.Scope, rng DateRange) ([]DailyRow, error) {
	orders, err := a.reader.DailyOrders(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load daily orders")
	}
	refundFees, err := a.reader.DailyRefundFees(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load daily refund fees")
	}
	giftCards, err := a.reader.DailyGiftCards(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load daily gift cards")
	}
	services, err := a.reader.DailyServices(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load daily services")
	}
	return fillDays(rng, orders, refundFees, giftCards, services), nil
}

// fillDays emits one row per day in rng. Rows outside rng are ignored.
func fillDays(rng DateRange, orders []sources.DailyOrderRow, refundFees, giftCards, services []sources.DailyAmountRow) []DailyRow {
	keys := rng.DayKeys()
	rows := make([]DailyRow, len(keys))
	index := make(map[string]int, len(keys))
	for i, key := range keys {
		rows[i] = DailyRow{Date: key}
		index[key] = i
	}

	for _, o := range orders {
		if i, ok := index[o.Day]; ok {
			rows[i].Orders += o.Count
			rows[i].SalesCents += o.SalesCents
			rows[i].CommissionCents += o.CommissionCents
		}
	}
	for _, r := range refundFees {
		if i, ok := index[r.Day]; ok {
			rows[i].RefundFeeCents += r.AmountCents
		}
	}
	for _, g := range giftCards {
		if i, ok := index[g.Day]; ok {
			rows[i].GiftCardCents += g.AmountCents
		}
	}
	for _, s := range services {
		if i, ok := index[s.Day]; ok {
			rows[i].ServicesCents += s.AmountCents
		}
	}
	for i := range rows {
		rows[i].RevenueCents = rows[i].CommissionCents + rows[i].RefundFeeCents + rows[i].GiftCardCents + rows[i].ServicesCents
	}
	return rows
}

func scopeFor(marketplaceID uuid.UUID, organizerID *uuid.UUID, rng DateRange) sources.Scope {
	return sources.Scope{
		MarketplaceID: marketplaceID,
		OrganizerID:   organizerID,
		From:          rng.Start,
		To:            rng.Until(),
	}
}
