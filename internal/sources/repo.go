// Package sources reads the four financial fact streams (orders, refund
// requests, gift cards and service orders) that income reports aggregate.
package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/pkg/enums"
)

// Scope selects facts for one marketplace and an optional organizer in the
// half-open window [From, To).
type Scope struct {
	MarketplaceID uuid.UUID
	OrganizerID   *uuid.UUID
	From          time.Time
	To            time.Time
}

type OrderTotals struct {
	SalesCents      int64 `gorm:"column:sales_cents"`
	CommissionCents int64 `gorm:"column:commission_cents"`
	Count           int64 `gorm:"column:order_count"`
}

type DailyOrderRow struct {
	Day             string `gorm:"column:day"`
	SalesCents      int64  `gorm:"column:sales_cents"`
	CommissionCents int64  `gorm:"column:commission_cents"`
	Count           int64  `gorm:"column:order_count"`
}

type DailyAmountRow struct {
	Day         string `gorm:"column:day"`
	AmountCents int64  `gorm:"column:amount_cents"`
}

type OrganizerRevenueRow struct {
	OrganizerID     uuid.UUID `gorm:"column:organizer_id"`
	Name            string    `gorm:"column:name"`
	SalesCents      int64     `gorm:"column:sales_cents"`
	CommissionCents int64     `gorm:"column:commission_cents"`
	OrderCount      int64     `gorm:"column:order_count"`
}

// Reader is the read-only surface over the fact tables.
type Reader interface {
	WithTx(tx *gorm.DB) Reader
	OrderTotals(ctx context.Context, scope Scope) (OrderTotals, error)
	RefundFeeTotal(ctx context.Context, scope Scope) (int64, error)
	GiftCardTotal(ctx context.Context, scope Scope) (int64, error)
	ServiceTotal(ctx context.Context, scope Scope) (int64, error)
	DailyOrders(ctx context.Context, scope Scope) ([]DailyOrderRow, error)
	DailyRefundFees(ctx context.Context, scope Scope) ([]DailyAmountRow, error)
	DailyGiftCards(ctx context.Context, scope Scope) ([]DailyAmountRow, error)
	DailyServices(ctx context.Context, scope Scope) ([]DailyAmountRow, error)
	TopOrganizers(ctx context.Context, scope Scope, limit int) ([]OrganizerRevenueRow, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a Reader bound to the provided database.
func NewRepository(db *gorm.DB) Reader {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Reader {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) OrderTotals(ctx context.Context, scope Scope) (OrderTotals, error) {
	var out OrderTotals
	err := r.orders(ctx, scope).
		Select(sumExpr("total_cents") + " AS sales_cents, " + sumExpr("commission_cents") + " AS commission_cents, COUNT(*) AS order_count").
		Scan(&out).Error
	if err != nil {
		return OrderTotals{}, fmt.Errorf("sum orders: %w", err)
	}
	return out, nil
}

func (r *repository) RefundFeeTotal(ctx context.Context, scope Scope) (int64, error) {
	var total int64
	if err := r.refunds(ctx, scope).Select(sumExpr("fees_refund_cents")).Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum refund fees: %w", err)
	}
	return total, nil
}

// GiftCardTotal is always zero for organizer-scoped reads; gift cards belong to the marketplace.
func (r *repository) GiftCardTotal(ctx context.Context, scope Scope) (int64, error) {
	if scope.OrganizerID != nil {
		return 0, nil
	}
	var total int64
	if err := r.giftCards(ctx, scope).Select(sumExpr("initial_amount_cents")).Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum gift cards: %w", err)
	}
	return total, nil
}

func (r *repository) ServiceTotal(ctx context.Context, scope Scope) (int64, error) {
	var total int64
	if err := r.services(ctx, scope).Select(sumExpr("total_cents")).Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum service orders: %w", err)
	}
	return total, nil
}

func (r *repository) DailyOrders(ctx context.Context, scope Scope) ([]DailyOrderRow, error) {
	day := dayExpr(r.db, "paid_at")
	var rows []DailyOrderRow
	err := r.orders(ctx, scope).
		Select(day + " AS day, " + sumExpr("total_cents") + " AS sales_cents, " + sumExpr("commission_cents") + " AS commission_cents, COUNT(*) AS order_count").
		Group(day).
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("daily orders: %w", err)
	}
	return rows, nil
}

func (r *repository) DailyRefundFees(ctx context.Context, scope Scope) ([]DailyAmountRow, error) {
	return r.dailyAmounts(ctx, r.refunds(ctx, scope), "completed_at", "fees_refund_cents", "daily refund fees")
}

func (r *repository) DailyGiftCards(ctx context.Context, scope Scope) ([]DailyAmountRow, error) {
	if scope.OrganizerID != nil {
		return nil, nil
	}
	return r.dailyAmounts(ctx, r.giftCards(ctx, scope), "created_at", "initial_amount_cents", "daily gift cards")
}

func (r *repository) DailyServices(ctx context.Context, scope Scope) ([]DailyAmountRow, error) {
	return r.dailyAmounts(ctx, r.services(ctx, scope), "paid_at", "total_cents", "daily service orders")
}

// TopOrganizers ranks organizers by commission earned for the marketplace in scope.
func (r *repository) TopOrganizers(ctx context.Context, scope Scope, limit int) ([]OrganizerRevenueRow, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx).
		Table("orders AS o").
		Joins("JOIN organizers AS org ON org.id = o.organizer_id").
		Select("o.organizer_id AS organizer_id, org.name AS name, " + sumExpr("o.total_cents") + " AS sales_cents, " + sumExpr("o.commission_cents") + " AS commission_cents, COUNT(*) AS order_count").
		Where("o.marketplace_id = ?", scope.MarketplaceID).
		Where("o.status IN ?", statusStrings(enums.ReportableOrderStatuses)).
		Where("o.paid_at >= ? AND o.paid_at < ?", scope.From.UTC(), scope.To.UTC())
	if scope.OrganizerID != nil {
		q = q.Where("o.organizer_id = ?", *scope.OrganizerID)
	}

	var rows []OrganizerRevenueRow
	err := q.Group("o.organizer_id, org.name").
		Order("commission_cents DESC").
		Order("sales_cents DESC").
		Order("org.name ASC").
		Order("o.organizer_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("top organizers: %w", err)
	}
	return rows, nil
}

func (r *repository) dailyAmounts(ctx context.Context, q *gorm.DB, tsColumn, amountColumn, label string) ([]DailyAmountRow, error) {
	day := dayExpr(r.db, tsColumn)
	var rows []DailyAmountRow
	err := q.Select(fmt.Sprintf("%s AS day, %s AS amount_cents", day, sumExpr(amountColumn))).
		Group(day).
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return rows, nil
}

func (r *repository) orders(ctx context.Context, scope Scope) *gorm.DB {
	return r.scoped(ctx, "orders", "paid_at", scope, true).
		Where("status IN ?", statusStrings(enums.ReportableOrderStatuses))
}

func (r *repository) refunds(ctx context.Context, scope Scope) *gorm.DB {
	return r.scoped(ctx, "refund_requests", "completed_at", scope, true).
		Where("status IN ?", statusStrings(enums.RetainedFeeRefundStatuses))
}

func (r *repository) giftCards(ctx context.Context, scope Scope) *gorm.DB {
	return r.scoped(ctx, "gift_cards", "created_at", scope, false).
		Where("status NOT IN ?", statusStrings(enums.VoidGiftCardStatuses))
}

func (r *repository) services(ctx context.Context, scope Scope) *gorm.DB {
	return r.scoped(ctx, "service_orders", "paid_at", scope, true).
		Where("payment_status = ?", enums.PaymentStatusPaid.String())
}

func (r *repository) scoped(ctx context.Context, table, tsColumn string, scope Scope, organizerScoped bool) *gorm.DB {
	q := r.db.WithContext(ctx).
		Table(table).
		Where("marketplace_id = ?", scope.MarketplaceID).
		Where(tsColumn+" >= ? AND "+tsColumn+" < ?", scope.From.UTC(), scope.To.UTC())
	if organizerScoped && scope.OrganizerID != nil {
		q = q.Where("organizer_id = ?", *scope.OrganizerID)
	}
	return q
}

// dayExpr renders a UTC calendar-day key (YYYY-MM-DD) for the active dialect.
func dayExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", column)
	}
	return fmt.Sprintf("to_char(%s AT TIME ZONE 'UTC', 'YYYY-MM-DD')", column)
}

func sumExpr(column string) string {
	return fmt.Sprintf("CAST(COALESCE(SUM(%s), 0) AS BIGINT)", column)
}

func statusStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
