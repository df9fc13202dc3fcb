package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxMarketplaceID contextKey = "marketplace_id"

// MarketplaceIDFromContext returns the tenant resolved by MarketplaceScope.
func MarketplaceIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxMarketplaceID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithMarketplaceID injects the marketplace identifier into the context for downstream handlers.
func WithMarketplaceID(ctx context.Context, marketplaceID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxMarketplaceID, marketplaceID)
}
