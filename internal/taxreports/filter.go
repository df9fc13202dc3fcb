package taxreports

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tixledger/pkg/enums"
	"github.com/angelmondragon/tixledger/pkg/money"
)

// Filters narrow an already built report. From and To bound the event start.
type Filters struct {
	Status  *enums.TaxStatus
	From    *time.Time
	To      *time.Time
	EventID *uuid.UUID
}

// ApplyFilters returns a copy of report holding only matching events, with
// totals recomputed over that subset.
func ApplyFilters(report TaxReport, f Filters) TaxReport {
	out := TaxReport{
		Currency: report.Currency,
		AsOf:     report.AsOf,
		Events:   make([]EventTaxReport, 0, len(report.Events)),
	}
	for _, e := range report.Events {
		if f.Status != nil && e.Status != *f.Status {
			continue
		}
		if f.EventID != nil && e.EventID != *f.EventID {
			continue
		}
		if f.From != nil && e.StartsAt.Before(f.From.UTC()) {
			continue
		}
		if f.To != nil && e.StartsAt.After(f.To.UTC()) {
			continue
		}
		out.Events = append(out.Events, e)
	}
	out.Totals = totalsOf(out.Events, report.Currency)
	return out
}

// Deadline is one filing obligation.
type Deadline struct {
	EventID   uuid.UUID       `json:"eventId"`
	EventName string          `json:"eventName"`
	RuleID    uuid.UUID       `json:"ruleId"`
	RuleName  string          `json:"ruleName"`
	Tax       money.Money     `json:"tax"`
	Deadline  time.Time       `json:"deadline"`
	Status    enums.TaxStatus `json:"status"`
}

// UpcomingDeadlines lists lines due within [asOf, asOf+windowDays], soonest first.
func UpcomingDeadlines(report TaxReport, windowDays int) []Deadline {
	until := report.AsOf.AddDate(0, 0, windowDays)
	return collect(report, func(l TaxLine) bool {
		return !l.Deadline.Before(report.AsOf) && !l.Deadline.After(until)
	})
}

// OverduePayments lists lines past their deadline with tax owed, oldest first.
func OverduePayments(report TaxReport) []Deadline {
	return collect(report, func(l TaxLine) bool {
		return l.Deadline.Before(report.AsOf) && l.Tax.Amount > 0
	})
}

func collect(report TaxReport, keep func(TaxLine) bool) []Deadline {
	out := []Deadline{}
	for _, e := range report.Events {
		for _, l := range e.Lines {
			if !keep(l) {
				continue
			}
			out = append(out, Deadline{
				EventID:   e.EventID,
				EventName: e.Name,
				RuleID:    l.RuleID,
				RuleName:  l.RuleName,
				Tax:       l.Tax,
				Deadline:  l.Deadline,
				Status:    l.Status,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		if out[i].EventName != out[j].EventName {
			return out[i].EventName < out[j].EventName
		}
		return out[i].RuleName < out[j].RuleName
	})
	return out
}
