package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/tixledger/api/responses"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
	"github.com/angelmondragon/tixledger/pkg/logger"
)

// MarketplaceHeader carries the caller's tenant. Authentication happens upstream.
const MarketplaceHeader = "X-Marketplace-ID"

// MarketplaceScope rejects requests without a valid marketplace id and
// scopes the request context and logger to it.
func MarketplaceScope(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(MarketplaceHeader))
			marketplaceID, err := uuid.Parse(raw)
			if raw == "" || err != nil || marketplaceID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "marketplace context missing"))
				return
			}
			ctx := WithMarketplaceID(r.Context(), marketplaceID)
			if logg != nil {
				ctx = logg.WithMarketplaceID(ctx, marketplaceID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
