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
	"github.com/mirreg/registry/internal/usecase"
)

// CurationRepository persists curation pipeline records.
type CurationRepository struct {
	db *gorm.DB
}

func NewCurationRepository(db *gorm.DB) *CurationRepository {
	return &CurationRepository{db: db}
}

func (r *CurationRepository) Get(ctx context.Context, id string) (*registry.DataCollection, error) {
	var row models.CurationRecord
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "pipeline record " + id}
		}
		return nil, errors.Wrap(err, "failed to load pipeline record")
	}
	c, err := unmarshalCollection(row.Document)
	if err != nil {
		return nil, err
	}
	c.ID = row.ID
	c.CreatedAt = row.CDate
	c.UpdatedAt = row.MDate
	return c, nil
}

func (r *CurationRepository) StorePending(ctx context.Context, c *registry.DataCollection, comment string) (string, error) {
	var id string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = nextID(tx, sequenceCuration)
		if err != nil {
			return err
		}
		c.ID = id

		document, err := marshalCollection(c)
		if err != nil {
			return err
		}
		row := models.CurationRecord{
			ID:       id,
			Name:     c.Name,
			Document: document,
			State:    string(domain.StateSubmitted),
			Comment:  comment,
		}
		if err := tx.Create(&row).Error; err != nil {
			return errors.Wrap(err, "failed to store pipeline record")
		}
		return syncIndexes(tx, partitionCuration, c)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *CurationRepository) List(ctx context.Context, state domain.CurationState) ([]usecase.CurationEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.CurationRecord{}).Order("c_date DESC")
	if state != "" {
		query = query.Where("state = ?", string(state))
	}
	var rows []models.CurationRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list pipeline records")
	}
	entries := make([]usecase.CurationEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, usecase.CurationEntry{
			ID:        row.ID,
			Name:      row.Name,
			State:     domain.CurationState(row.State),
			PublicID:  row.PublicID,
			Comment:   row.Comment,
			CreatedAt: row.CDate,
		})
	}
	return entries, nil
}

func (r *CurationRepository) State(ctx context.Context, id string) (domain.CurationState, error) {
	var row models.CurationRecord
	err := r.db.WithContext(ctx).Select("state").First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.NotFoundError{Resource: "pipeline record " + id}
		}
		return "", errors.Wrap(err, "failed to load pipeline state")
	}
	return domain.CurationState(row.State), nil
}

// SetState enforces the pipeline state machine under a row lock.
func (r *CurationRepository) SetState(ctx context.Context, id string, state domain.CurationState) error {
	return r.transition(ctx, id, func(current domain.CurationState) error {
		if !current.CanTransition(state) {
			return domain.ValidationError{
				Message: "pipeline record " + id + " cannot move from " + string(current) + " to " + string(state),
			}
		}
		return nil
	}, map[string]any{
		"state":  string(state),
		"m_date": time.Now(),
	})
}

// MarkPublished records the terminal state. Which active states may publish
// is the caller's decision; only terminal states are refused here.
func (r *CurationRepository) MarkPublished(ctx context.Context, id, publicID string) error {
	return r.transition(ctx, id, func(current domain.CurationState) error {
		if !current.Active() {
			return domain.ValidationError{
				Message: "pipeline record " + id + " is already " + string(current),
			}
		}
		return nil
	}, map[string]any{
		"state":     string(domain.StatePublished),
		"public_id": publicID,
		"m_date":    time.Now(),
	})
}

func (r *CurationRepository) transition(ctx context.Context, id string, check func(domain.CurationState) error, updates map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.CurationRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "state").First(&row, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Resource: "pipeline record " + id}
			}
			return errors.Wrap(err, "failed to lock pipeline record")
		}
		if err := check(domain.CurationState(row.State)); err != nil {
			return err
		}
		err = tx.Model(&models.CurationRecord{}).Where("id = ?", id).Updates(updates).Error
		return errors.Wrap(err, "failed to update pipeline record")
	})
}

func (r *CurationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ? AND partition = ?", id, partitionCuration).
			Delete(&models.URIEntry{}).Error; err != nil {
			return errors.Wrap(err, "failed to clear uri index")
		}
		if err := tx.Where("collection_id = ? AND partition = ?", id, partitionCuration).
			Delete(&models.SynonymEntry{}).Error; err != nil {
			return errors.Wrap(err, "failed to clear synonym index")
		}
		res := tx.Delete(&models.CurationRecord{}, "id = ?", id)
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to delete pipeline record")
		}
		if res.RowsAffected == 0 {
			return domain.NotFoundError{Resource: "pipeline record " + id}
		}
		return nil
	})
}

func (r *CurationRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CurationRecord{}).
		Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check pipeline record")
	}
	return count > 0, nil
}

func (r *CurationRepository) AddRestriction(ctx context.Context, id string, restriction registry.Restriction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.CurationRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Resource: "pipeline record " + id}
			}
			return errors.Wrap(err, "failed to lock pipeline record")
		}
		c, err := unmarshalCollection(row.Document)
		if err != nil {
			return err
		}
		c.ID = row.ID
		c.Restrictions = append(c.Restrictions, restriction)
		c.Restricted = true

		document, err := marshalCollection(c)
		if err != nil {
			return err
		}
		err = tx.Model(&models.CurationRecord{}).Where("id = ?", id).
			Updates(map[string]any{"document": document, "m_date": time.Now()}).Error
		return errors.Wrap(err, "failed to update pipeline record")
	})
}
