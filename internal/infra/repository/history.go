package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/mirreg/registry/internal/infra/database/models"
	"github.com/mirreg/registry/internal/usecase"
)

// HistoryRepository is the append-only edit trail. No update or delete
// methods exist on purpose.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, entry usecase.EditHistoryEntry) error {
	row := models.EditHistory{
		CollectionID: entry.CollectionID,
		Actor:        entry.Actor,
		Diff:         entry.Diff,
		Checksum:     entry.Checksum,
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	return errors.Wrap(err, "failed to append edit history")
}

func (r *HistoryRepository) List(ctx context.Context, collectionID string) ([]usecase.EditHistoryEntry, error) {
	var rows []models.EditHistory
	err := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list edit history")
	}
	entries := make([]usecase.EditHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, usecase.EditHistoryEntry{
			CollectionID: row.CollectionID,
			Actor:        row.Actor,
			Diff:         row.Diff,
			Checksum:     row.Checksum,
			CreatedAt:    row.CDate,
		})
	}
	return entries, nil
}
