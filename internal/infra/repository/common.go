package repository

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/internal/infra/database/models"
)

const (
	partitionPublic   = "publ"
	partitionCuration = "cura"
)

const (
	sequencePublic   = "public"
	sequenceCuration = "curation"
)

// nextID increments the named sequence under a row lock and renders the MIR
// identifier. Public records get MIR:000xxxxx, pipeline records MIR:009xxxxx.
func nextID(tx *gorm.DB, sequence string) (string, error) {
	var seq models.Sequence
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(models.Sequence{Name: sequence}).
		Attrs(models.Sequence{Next: 1}).
		FirstOrCreate(&seq).Error
	if err != nil {
		return "", errors.Wrap(err, "failed to acquire sequence")
	}

	n := seq.Next
	if err := tx.Model(&models.Sequence{}).Where("name = ?", sequence).Update("next", n+1).Error; err != nil {
		return "", errors.Wrap(err, "failed to advance sequence")
	}

	switch sequence {
	case sequenceCuration:
		return fmt.Sprintf("MIR:009%05d", n), nil
	default:
		return fmt.Sprintf("MIR:%08d", n), nil
	}
}

func marshalCollection(c *registry.DataCollection) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal data collection")
	}
	return string(raw), nil
}

func unmarshalCollection(document string) (*registry.DataCollection, error) {
	var c registry.DataCollection
	if err := json.Unmarshal([]byte(document), &c); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal data collection")
	}
	return &c, nil
}

// syncIndexes rebuilds the URI and synonym index rows of a record. Runs
// inside the caller's transaction.
func syncIndexes(tx *gorm.DB, partition string, c *registry.DataCollection) error {
	if err := tx.Where("collection_id = ? AND partition = ?", c.ID, partition).
		Delete(&models.URIEntry{}).Error; err != nil {
		return errors.Wrap(err, "failed to clear uri index")
	}
	if err := tx.Where("collection_id = ? AND partition = ?", c.ID, partition).
		Delete(&models.SynonymEntry{}).Error; err != nil {
		return errors.Wrap(err, "failed to clear synonym index")
	}

	seen := map[string]bool{}
	var uris []models.URIEntry
	add := func(value string, deprecated bool) {
		if value == "" || seen[value] {
			return
		}
		seen[value] = true
		uris = append(uris, models.URIEntry{
			CollectionID: c.ID,
			Partition:    partition,
			Value:        value,
			Deprecated:   deprecated,
		})
	}
	add(c.URN, false)
	add(c.URL, false)
	for _, u := range c.URIs {
		add(u.Value, u.Deprecated != registry.URICurrent)
	}
	if len(uris) > 0 {
		if err := tx.Create(&uris).Error; err != nil {
			return errors.Wrap(err, "failed to write uri index")
		}
	}

	var synonyms []models.SynonymEntry
	names := append([]string{c.Name}, c.Synonyms...)
	for _, name := range names {
		if name == "" {
			continue
		}
		synonyms = append(synonyms, models.SynonymEntry{
			CollectionID: c.ID,
			Partition:    partition,
			Value:        name,
		})
	}
	if len(synonyms) > 0 {
		if err := tx.Create(&synonyms).Error; err != nil {
			return errors.Wrap(err, "failed to write synonym index")
		}
	}
	return nil
}
