package tenancy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tixledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
)

// Directory resolves marketplaces and organizers through the tenant guard.
type Directory interface {
	Marketplace(ctx context.Context, marketplaceID uuid.UUID) (*models.Marketplace, error)
	Organizer(ctx context.Context, marketplaceID, organizerID uuid.UUID) (*models.Organizer, error)
}

type directory struct {
	db *gorm.DB
}

// NewDirectory returns a Directory bound to the provided database.
func NewDirectory(db *gorm.DB) Directory {
	return &directory{db: db}
}

func (d *directory) Marketplace(ctx context.Context, marketplaceID uuid.UUID) (*models.Marketplace, error) {
	if marketplaceID == uuid.Nil {
		return nil, Denied("marketplace")
	}
	var marketplace models.Marketplace
	err := d.db.WithContext(ctx).Where("id = ?", marketplaceID).First(&marketplace).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Denied("marketplace")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load marketplace")
	}
	return &marketplace, nil
}

func (d *directory) Organizer(ctx context.Context, marketplaceID, organizerID uuid.UUID) (*models.Organizer, error) {
	var organizer models.Organizer
	err := d.db.WithContext(ctx).Where("id = ?", organizerID).First(&organizer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Denied("organizer")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organizer")
	}
	if err := EnsureOrganizer(&organizer, marketplaceID); err != nil {
		return nil, err
	}
	return &organizer, nil
}
