package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/internal/infra/database/models"
	"github.com/mirreg/registry/internal/usecase"
)

// ExistenceChecker answers duplicate queries against the shared URI and
// synonym indexes, so one pass covers both partitions.
type ExistenceChecker struct {
	db *gorm.DB
}

func NewExistenceChecker(db *gorm.DB) *ExistenceChecker {
	return &ExistenceChecker{db: db}
}

func (r *ExistenceChecker) ExistsLike(ctx context.Context, c *registry.DataCollection) (usecase.Existence, error) {
	names := make([]string, 0, len(c.Synonyms)+1)
	if c.Name != "" {
		names = append(names, c.Name)
	}
	names = append(names, c.Synonyms...)

	values := make([]string, 0, len(c.URIs)+2)
	if c.URN != "" {
		values = append(values, c.URN)
	}
	if c.URL != "" {
		values = append(values, c.URL)
	}
	for _, u := range c.URIs {
		if u.Value != "" {
			values = append(values, u.Value)
		}
	}

	var existence usecase.Existence
	for _, partition := range []string{partitionPublic, partitionCuration} {
		matched, err := r.partitionMatch(ctx, partition, c.ID, names, values)
		if err != nil {
			return usecase.Existence{}, err
		}
		switch partition {
		case partitionPublic:
			existence.Public = matched != ""
			existence.PublicID = matched
		case partitionCuration:
			existence.Curation = matched != ""
			existence.CurationID = matched
		}
	}
	return existence, nil
}

// partitionMatch returns the identifier of a colliding record, excluding the
// record's own identifier so an edit never collides with itself.
func (r *ExistenceChecker) partitionMatch(ctx context.Context, partition, selfID string, names, values []string) (string, error) {
	if len(names) > 0 {
		var rows []models.SynonymEntry
		query := r.db.WithContext(ctx).
			Where("partition = ? AND value IN ?", partition, names)
		if selfID != "" {
			query = query.Where("collection_id <> ?", selfID)
		}
		if err := query.Limit(1).Find(&rows).Error; err != nil {
			return "", errors.Wrap(err, "failed to query synonym index")
		}
		if len(rows) > 0 {
			return rows[0].CollectionID, nil
		}
	}

	if len(values) > 0 {
		var rows []models.URIEntry
		query := r.db.WithContext(ctx).
			Where("partition = ? AND value IN ?", partition, values)
		if selfID != "" {
			query = query.Where("collection_id <> ?", selfID)
		}
		if err := query.Limit(1).Find(&rows).Error; err != nil {
			return "", errors.Wrap(err, "failed to query uri index")
		}
		if len(rows) > 0 {
			return rows[0].CollectionID, nil
		}
	}
	return "", nil
}
