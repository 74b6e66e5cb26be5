package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/internal/infra/database/models"
)

// OwnershipRepository persists which users maintain which resources.
type OwnershipRepository struct {
	db *gorm.DB
}

func NewOwnershipRepository(db *gorm.DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

func (r *OwnershipRepository) Statuses(ctx context.Context, login string, resourceIDs []string) (map[string]registry.OwnershipStatus, error) {
	out := map[string]registry.OwnershipStatus{}
	if login == "" || len(resourceIDs) == 0 {
		return out, nil
	}
	var rows []models.ResourceOwnership
	err := r.db.WithContext(ctx).
		Where("login = ? AND resource_id IN ?", login, resourceIDs).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load resource ownership")
	}
	for _, row := range rows {
		out[row.ResourceID] = registry.OwnershipStatus(row.Status)
	}
	return out, nil
}

// Request inserts a pending claim. An existing row for the pair is kept as
// is, so a repeated request never downgrades a granted ownership.
func (r *OwnershipRepository) Request(ctx context.Context, login, resourceID string) error {
	row := models.ResourceOwnership{
		Login:      login,
		ResourceID: resourceID,
		Status:     int(registry.OwnershipPending),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "login"}, {Name: "resource_id"}},
			DoNothing: true,
		}).
		Create(&row).Error
	if err != nil {
		return errors.Wrap(err, "failed to record ownership request")
	}
	return nil
}

func (r *OwnershipRepository) Set(ctx context.Context, login, resourceID string, status registry.OwnershipStatus) error {
	row := models.ResourceOwnership{
		Login:      login,
		ResourceID: resourceID,
		Status:     int(status),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "login"}, {Name: "resource_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status"}),
		}).
		Create(&row).Error
	if err != nil {
		return errors.Wrap(err, "failed to set resource ownership")
	}
	return nil
}
