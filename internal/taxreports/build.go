// Package taxreports computes per-event tax liabilities and filing deadlines.
// Building and filtering are pure; the service only loads inputs.
package taxreports

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/enums"
	"github.com/angelmondragon/tixledger/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// TaxLine is one rule applied to one event.
type TaxLine struct {
	RuleID   uuid.UUID         `json:"ruleId"`
	RuleName string            `json:"ruleName"`
	Scope    enums.TaxScope    `json:"scope"`
	RateType enums.TaxRateType `json:"rateType"`
	Rate     decimal.Decimal   `json:"rate"`
	Tax      money.Money       `json:"tax"`
	Deadline time.Time         `json:"deadline"`
	Status   enums.TaxStatus   `json:"status"`
}

// EventTaxReport is the liability of a single event.
type EventTaxReport struct {
	EventID          uuid.UUID       `json:"eventId"`
	OrganizerID      uuid.UUID       `json:"organizerId"`
	Name             string          `json:"name"`
	EventType        string          `json:"eventType"`
	Location         string          `json:"location"`
	StartsAt         time.Time       `json:"startsAt"`
	EstimatedRevenue money.Money     `json:"estimatedRevenue"`
	TotalTax         money.Money     `json:"totalTax"`
	Status           enums.TaxStatus `json:"status"`
	NextDeadline     *time.Time      `json:"nextDeadline,omitempty"`
	Lines            []TaxLine       `json:"lines"`
}

// FilteredTotals are always derived from Events, never fetched.
type FilteredTotals struct {
	TotalRevenue money.Money `json:"totalRevenue"`
	TotalTax     money.Money `json:"totalTax"`
	EventCount   int         `json:"eventCount"`
}

type TaxReport struct {
	Currency string           `json:"currency"`
	AsOf     time.Time        `json:"asOf"`
	Events   []EventTaxReport `json:"events"`
	Totals   FilteredTotals   `json:"totals"`
}

// Build evaluates every rule against every event. Events are ordered by
// start time and lines by rule name so equal inputs give equal reports.
func Build(events []models.Event, revenueByEvent map[uuid.UUID]int64, rules []models.TaxRule, currency string, now time.Time, windowDays int) TaxReport {
	now = now.UTC()
	report := TaxReport{
		Currency: money.Zero(currency).Currency,
		AsOf:     now,
		Events:   make([]EventTaxReport, 0, len(events)),
	}

	sortedRules := append([]models.TaxRule(nil), rules...)
	sort.SliceStable(sortedRules, func(i, j int) bool {
		if sortedRules[i].Name != sortedRules[j].Name {
			return sortedRules[i].Name < sortedRules[j].Name
		}
		return sortedRules[i].ID.String() < sortedRules[j].ID.String()
	})

	for _, event := range events {
		revenue := money.New(revenueByEvent[event.ID], currency)
		row := EventTaxReport{
			EventID:          event.ID,
			OrganizerID:      event.OrganizerID,
			Name:             event.Name,
			EventType:        event.EventType,
			Location:         event.Location,
			StartsAt:         event.StartsAt.UTC(),
			EstimatedRevenue: revenue,
			TotalTax:         money.Zero(currency),
			Status:           enums.TaxStatusPending,
			Lines:            []TaxLine{},
		}
		for _, rule := range sortedRules {
			if !ruleApplies(rule, event) {
				continue
			}
			line := TaxLine{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Scope:    rule.Scope,
				RateType: rule.RateType,
				Rate:     rule.Rate,
				Tax:      taxFor(rule, revenue),
				Deadline: event.StartsAt.UTC().AddDate(0, 0, rule.FilingDays),
			}
			line.Status = statusFor(line.Deadline, now, windowDays)
			row.Lines = append(row.Lines, line)
			row.TotalTax.Amount += line.Tax.Amount
			if line.Status.Severity() > row.Status.Severity() {
				row.Status = line.Status
			}
			if row.NextDeadline == nil || line.Deadline.Before(*row.NextDeadline) {
				deadline := line.Deadline
				row.NextDeadline = &deadline
			}
		}
		report.Events = append(report.Events, row)
	}

	sort.SliceStable(report.Events, func(i, j int) bool {
		a, b := report.Events[i], report.Events[j]
		if !a.StartsAt.Equal(b.StartsAt) {
			return a.StartsAt.Before(b.StartsAt)
		}
		return a.EventID.String() < b.EventID.String()
	})
	report.Totals = totalsOf(report.Events, report.Currency)
	return report
}

func ruleApplies(rule models.TaxRule, event models.Event) bool {
	if rule.EventTypeFilter != nil && *rule.EventTypeFilter != "" && *rule.EventTypeFilter != event.EventType {
		return false
	}
	if rule.Location != nil && *rule.Location != "" && *rule.Location != event.Location {
		return false
	}
	startsAt := event.StartsAt.UTC()
	if startsAt.Before(rule.ValidFrom.UTC()) {
		return false
	}
	if rule.ValidTo != nil && startsAt.After(rule.ValidTo.UTC()) {
		return false
	}
	return true
}

func taxFor(rule models.TaxRule, revenue money.Money) money.Money {
	switch rule.RateType {
	case enums.TaxRateTypeFixed:
		return money.New(rule.Rate.RoundBank(0).IntPart(), revenue.Currency)
	default:
		return revenue.MultiplyByDecimal(rule.Rate.Div(hundred))
	}
}

func statusFor(deadline, now time.Time, windowDays int) enums.TaxStatus {
	switch {
	case deadline.Before(now):
		return enums.TaxStatusOverdue
	case !deadline.After(now.AddDate(0, 0, windowDays)):
		return enums.TaxStatusDueSoon
	default:
		return enums.TaxStatusPending
	}
}

func totalsOf(events []EventTaxReport, currency string) FilteredTotals {
	totals := FilteredTotals{
		TotalRevenue: money.Zero(currency),
		TotalTax:     money.Zero(currency),
		EventCount:   len(events),
	}
	for _, e := range events {
		totals.TotalRevenue.Amount += e.EstimatedRevenue.Amount
		totals.TotalTax.Amount += e.TotalTax.Amount
	}
	return totals
}
