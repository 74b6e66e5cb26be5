package repository

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/mirreg/registry/internal/domain"
	"github.com/mirreg/registry/internal/infra/database/models"
	"github.com/mirreg/registry/internal/usecase"
)

const taxonomyCacheKey = "restriction-categories"

// TaxonomyRepository serves the restriction category taxonomy. The table is
// tiny and changes rarely, so the whole of it is cached in process.
type TaxonomyRepository struct {
	db    *gorm.DB
	cache *gocache.Cache
}

func NewTaxonomyRepository(db *gorm.DB, ttl time.Duration) *TaxonomyRepository {
	return &TaxonomyRepository{
		db:    db,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (r *TaxonomyRepository) Category(ctx context.Context, id int) (usecase.RestrictionCategory, error) {
	categories, err := r.load(ctx)
	if err != nil {
		return usecase.RestrictionCategory{}, err
	}
	for _, c := range categories {
		if c.ID == id {
			return c, nil
		}
	}
	return usecase.RestrictionCategory{}, domain.ValidationError{
		Message: fmt.Sprintf("unknown restriction category %d", id),
	}
}

func (r *TaxonomyRepository) Categories(ctx context.Context) ([]usecase.RestrictionCategory, error) {
	return r.load(ctx)
}

func (r *TaxonomyRepository) load(ctx context.Context) ([]usecase.RestrictionCategory, error) {
	if cached, ok := r.cache.Get(taxonomyCacheKey); ok {
		return cached.([]usecase.RestrictionCategory), nil
	}

	var rows []models.RestrictionCategory
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load restriction categories")
	}
	categories := make([]usecase.RestrictionCategory, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, usecase.RestrictionCategory{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
		})
	}
	r.cache.Set(taxonomyCacheKey, categories, gocache.DefaultExpiration)
	return categories, nil
}
