// Package tenancy holds the single guard every mutating ledger and payout path
// runs before touching balances.
package tenancy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/tixledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
)

// ErrAccessDenied covers both missing rows and rows owned by another marketplace.
var ErrAccessDenied = errors.New("access denied")

// Denied builds the error returned for an inaccessible resource. The message
// is identical whether the row is missing or foreign.
func Denied(resource string) error {
	return pkgerrors.Wrap(pkgerrors.CodeForbidden, ErrAccessDenied, fmt.Sprintf("%s not accessible", resource))
}

// EnsureOrganizer fails unless org exists and belongs to marketplaceID.
func EnsureOrganizer(org *models.Organizer, marketplaceID uuid.UUID) error {
	if org == nil || marketplaceID == uuid.Nil || org.MarketplaceID != marketplaceID {
		return Denied("organizer")
	}
	return nil
}

// EnsurePayout fails unless payout exists and belongs to marketplaceID.
func EnsurePayout(payout *models.Payout, marketplaceID uuid.UUID) error {
	if payout == nil || marketplaceID == uuid.Nil || payout.MarketplaceID != marketplaceID {
		return Denied("payout")
	}
	return nil
}

// IsDenied reports whether err came from this guard.
func IsDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
