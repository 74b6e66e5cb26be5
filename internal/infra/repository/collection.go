package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/internal/domain"
	"github.com/mirreg/registry/internal/infra/database/models"
)

// CollectionRepository persists published records.
type CollectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func (r *CollectionRepository) Get(ctx context.Context, id string) (*registry.DataCollection, error) {
	var row models.Collection
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "data collection " + id}
		}
		return nil, errors.Wrap(err, "failed to load data collection")
	}
	return r.hydrate(&row)
}

func (r *CollectionRepository) GetByNamespace(ctx context.Context, namespace string) (*registry.DataCollection, error) {
	var row models.Collection
	err := r.db.WithContext(ctx).First(&row, "namespace = ?", namespace).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "namespace " + namespace}
		}
		return nil, errors.Wrap(err, "failed to resolve namespace")
	}
	return r.hydrate(&row)
}

func (r *CollectionRepository) hydrate(row *models.Collection) (*registry.DataCollection, error) {
	c, err := unmarshalCollection(row.Document)
	if err != nil {
		return nil, err
	}
	c.ID = row.ID
	c.Version = row.Version
	c.CreatedAt = row.CDate
	c.UpdatedAt = row.MDate
	return c, nil
}

func (r *CollectionRepository) Store(ctx context.Context, c *registry.DataCollection) (string, error) {
	var id string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = nextID(tx, sequencePublic)
		if err != nil {
			return err
		}
		c.ID = id
		c.Version = 1

		document, err := marshalCollection(c)
		if err != nil {
			return err
		}
		row := models.Collection{
			ID:        id,
			Name:      c.Name,
			Namespace: c.Namespace(),
			Document:  document,
			Version:   c.Version,
		}
		if err := tx.Create(&row).Error; err != nil {
			return errors.Wrap(err, "failed to store data collection")
		}
		return syncIndexes(tx, partitionPublic, c)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *CollectionRepository) Update(ctx context.Context, c *registry.DataCollection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next := c.Clone()
		next.Version = c.Version + 1

		document, err := marshalCollection(next)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Collection{}).
			Where("id = ? AND version = ?", c.ID, c.Version).
			Updates(map[string]any{
				"name":      next.Name,
				"namespace": next.Namespace(),
				"document":  document,
				"version":   next.Version,
				"obsolete":  next.Obsolete,
				"m_date":    time.Now(),
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to update data collection")
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Collection{}).Where("id = ?", c.ID).Count(&count).Error; err != nil {
				return errors.Wrap(err, "failed to check data collection")
			}
			if count == 0 {
				return domain.NotFoundError{Resource: "data collection " + c.ID}
			}
			return domain.ConflictError{ID: c.ID}
		}
		return syncIndexes(tx, partitionPublic, next)
	})
}

// UpdateResources replaces only the matching resources of a stored record.
// The row is locked for the read-modify-write, so partial edits never race
// each other.
func (r *CollectionRepository) UpdateResources(ctx context.Context, id string, resources []registry.Resource) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := r.lock(tx, id)
		if err != nil {
			return err
		}
		for _, res := range resources {
			for i := range c.Resources {
				if c.Resources[i].SameEntry(res) {
					ownership := c.Resources[i].Ownership
					c.Resources[i] = res
					c.Resources[i].Ownership = ownership
					break
				}
			}
		}
		return r.save(tx, c)
	})
}

func (r *CollectionRepository) AddRestriction(ctx context.Context, id string, restriction registry.Restriction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := r.lock(tx, id)
		if err != nil {
			return err
		}
		c.Restrictions = append(c.Restrictions, restriction)
		c.Restricted = true
		return r.save(tx, c)
	})
}

func (r *CollectionRepository) Deprecate(ctx context.Context, id, comment, replacedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := r.lock(tx, id)
		if err != nil {
			return err
		}
		c.Obsolete = true
		c.DeprecationComment = comment
		c.ReplacedBy = replacedBy
		return r.save(tx, c)
	})
}

func (r *CollectionRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Collection{}).
		Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check data collection")
	}
	return count > 0, nil
}

func (r *CollectionRepository) lock(tx *gorm.DB, id string) (*registry.DataCollection, error) {
	var row models.Collection
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "data collection " + id}
		}
		return nil, errors.Wrap(err, "failed to lock data collection")
	}
	return r.hydrate(&row)
}

func (r *CollectionRepository) save(tx *gorm.DB, c *registry.DataCollection) error {
	c.Version++
	document, err := marshalCollection(c)
	if err != nil {
		return err
	}
	err = tx.Model(&models.Collection{}).Where("id = ?", c.ID).
		Updates(map[string]any{
			"name":      c.Name,
			"namespace": c.Namespace(),
			"document":  document,
			"version":   c.Version,
			"obsolete":  c.Obsolete,
			"m_date":    time.Now(),
		}).Error
	if err != nil {
		return errors.Wrap(err, "failed to save data collection")
	}
	return syncIndexes(tx, partitionPublic, c)
}
