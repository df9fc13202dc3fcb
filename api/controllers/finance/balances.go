package finance

import (
	"net/http"

	"github.com/angelmondragon/tixledger/api/responses"
	"github.com/angelmondragon/tixledger/api/validators"
	"github.com/angelmondragon/tixledger/internal/ledger"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
	"github.com/angelmondragon/tixledger/pkg/logger"
	"github.com/angelmondragon/tixledger/pkg/money"
	"github.com/angelmondragon/tixledger/pkg/types"
)

type recordRevenueRequest struct {
	AmountCents int64  `json:"amountCents" validate:"gt=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
}

// OrganizerBalance returns the organizer's revenue, paid out, pending and available amounts.
func OrganizerBalance(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		mid, err := marketplaceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		organizerID, err := pathUUID(r, "organizerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.GetOrganizerBalance(r.Context(), mid, organizerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// LedgerEvents returns the organizer's most recent balance mutations.
func LedgerEvents(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		mid, err := marketplaceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		organizerID, err := pathUUID(r, "organizerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		events, err := svc.ListEvents(r.Context(), mid, organizerID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewList(events))
	}
}

// RecordRevenue credits settled ticket revenue to an organizer.
func RecordRevenue(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		mid, err := marketplaceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		organizerID, err := pathUUID(r, "organizerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req recordRevenueRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.RecordRevenue(r.Context(), mid, organizerID, money.New(req.AmountCents, req.Currency))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, snapshot)
	}
}
