// Package finance holds the admin finance HTTP handlers. Every handler is
// scoped to the marketplace resolved by middleware.MarketplaceScope.
package finance

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tixledger/api/middleware"
	"github.com/angelmondragon/tixledger/api/validators"
	"github.com/angelmondragon/tixledger/internal/reporting"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
)

var timeNowUTC = func() time.Time { return time.Now().UTC() }

var rangePresets = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

func marketplaceID(r *http.Request) (uuid.UUID, error) {
	id := middleware.MarketplaceIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "marketplace context missing")
	}
	return id, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	return validators.ParseURLUUID(chi.URLParam(r, param), param)
}

// parseIncomeQuery reads from/to or a range preset. Explicit dates win.
func parseIncomeQuery(r *http.Request, defaultRangeDays int) (reporting.IncomeQuery, error) {
	query := reporting.IncomeQuery{}

	mid, err := marketplaceID(r)
	if err != nil {
		return query, err
	}
	query.MarketplaceID = mid

	organizerID, err := validators.ParseQueryUUID(r, "organizerId")
	if err != nil {
		return query, err
	}
	query.OrganizerID = organizerID

	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return query, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return query, err
	}

	switch {
	case from != nil && to != nil:
		rng, err := reporting.NewDateRange(*from, *to)
		if err != nil {
			return query, err
		}
		query.Range = rng
	case from != nil || to != nil:
		return query, pkgerrors.New(pkgerrors.CodeValidation, "from and to must be provided together")
	default:
		days := defaultRangeDays
		if preset := strings.TrimSpace(r.URL.Query().Get("range")); preset != "" {
			n, ok := rangePresets[preset]
			if !ok {
				return query, pkgerrors.New(pkgerrors.CodeValidation, "range must be one of 7d, 30d, 90d").WithDetails(map[string]any{"field": "range"})
			}
			days = n
		}
		query.Range = reporting.LastDays(timeNowUTC(), days)
	}
	return query, nil
}
