package finance

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/tixledger/api/responses"
	"github.com/angelmondragon/tixledger/api/validators"
	"github.com/angelmondragon/tixledger/internal/payouts"
	"github.com/angelmondragon/tixledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
	"github.com/angelmondragon/tixledger/pkg/logger"
	"github.com/angelmondragon/tixledger/pkg/pagination"
)

const maxNotesLen = 1000

type createPayoutRequest struct {
	OrganizerID string  `json:"organizerId" validate:"required,uuid"`
	AmountCents int64   `json:"amountCents" validate:"gt=0"`
	Reference   string  `json:"reference" validate:"required,max=128"`
	Notes       *string `json:"notes" validate:"omitempty,max=1000"`
}

type completePayoutRequest struct {
	Reference string  `json:"reference" validate:"required,max=128"`
	Notes     *string `json:"notes" validate:"omitempty,max=1000"`
}

// ListPayouts returns payouts newest first with cursor pagination.
func ListPayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}
		mid, err := marketplaceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := payouts.ListParams{MarketplaceID: mid}

		if params.OrganizerID, err = validators.ParseQueryUUID(r, "organizerId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePayoutStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"}))
				return
			}
			params.Status = &status
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Params = pagination.Params{Limit: limit, Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}

		result, err := svc.ListPayouts(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetPayout returns one payout.
func GetPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}
		mid, payoutID, err := payoutPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payout, err := svc.GetPayout(r.Context(), mid, payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

// CreatePayout reserves the amount and opens a processing payout.
func CreatePayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}
		mid, err := marketplaceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createPayoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		organizerID, err := uuid.Parse(req.OrganizerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organizerId"))
			return
		}

		payout, err := svc.CreatePayout(r.Context(), payouts.CreatePayoutInput{
			MarketplaceID: mid,
			OrganizerID:   organizerID,
			AmountCents:   req.AmountCents,
			Reference:     req.Reference,
			Notes:         cleanNotes(req.Notes),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payout)
	}
}

// CompletePayout records the bank transfer reference and settles the reservation.
func CompletePayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}
		mid, payoutID, err := payoutPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req completePayoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payout, err := svc.CompletePayout(r.Context(), mid, payoutID, req.Reference, cleanNotes(req.Notes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

// CancelPayout releases the reservation of a processing payout.
func CancelPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}
		mid, payoutID, err := payoutPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payout, err := svc.CancelPayout(r.Context(), mid, payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

// cleanNotes trims notes and drops them when only whitespace remains.
func cleanNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	cleaned := validators.SanitizeString(*notes, maxNotesLen)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func payoutPath(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	mid, err := marketplaceID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	payoutID, err := pathUUID(r, "payoutId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return mid, payoutID, nil
}
