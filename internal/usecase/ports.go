package usecase

import (
	"context"
	"time"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/internal/domain"
)

// Existence is the result of checking both storage partitions for a record
// equivalent to a submission. The IDs point at the matched records so
// duplicate notifications can name them.
type Existence struct {
	Public     bool
	Curation   bool
	PublicID   string
	CurationID string
}

// Any reports whether the record exists in either partition.
func (e Existence) Any() bool {
	return e.Public || e.Curation
}

// MatchedID returns the identifier of the matched record, preferring the
// public partition.
func (e Existence) MatchedID() string {
	if e.PublicID != "" {
		return e.PublicID
	}
	return e.CurationID
}

// PublicRepository defines persistence for the public registry partition.
type PublicRepository interface {
	Get(ctx context.Context, id string) (*registry.DataCollection, error)
	GetByNamespace(ctx context.Context, namespace string) (*registry.DataCollection, error)
	// Store inserts the collection and returns its freshly assigned
	// public identifier.
	Store(ctx context.Context, c *registry.DataCollection) (string, error)
	// Update overwrites the stored record. The stored version must match
	// c.Version; domain.ErrConflict is returned otherwise.
	Update(ctx context.Context, c *registry.DataCollection) error
	// UpdateResources overwrites only the given resources of the record,
	// leaving every other field and resource untouched.
	UpdateResources(ctx context.Context, id string, resources []registry.Resource) error
	Exists(ctx context.Context, id string) (bool, error)
	AddRestriction(ctx context.Context, id string, r registry.Restriction) error
	Deprecate(ctx context.Context, id, comment, replacedBy string) error
}

// CurationEntry is a pipeline listing row.
type CurationEntry struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	State     domain.CurationState `json:"state"`
	PublicID  string               `json:"publicId,omitempty"`
	Comment   string               `json:"comment,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
}

// CurationRepository defines persistence for the curation pipeline partition.
type CurationRepository interface {
	Get(ctx context.Context, id string) (*registry.DataCollection, error)
	// StorePending inserts the collection in state Submitted with the
	// given submission comment and returns its pipeline identifier.
	StorePending(ctx context.Context, c *registry.DataCollection, comment string) (string, error)
	List(ctx context.Context, state domain.CurationState) ([]CurationEntry, error)
	State(ctx context.Context, id string) (domain.CurationState, error)
	SetState(ctx context.Context, id string, state domain.CurationState) error
	// MarkPublished records the terminal Published state together with the
	// assigned public identifier; the pipeline copy is kept.
	MarkPublished(ctx context.Context, id, publicID string) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	AddRestriction(ctx context.Context, id string, r registry.Restriction) error
}

// ExistenceChecker answers whether an equivalent record (by name, synonym or
// URI) is already present in either partition.
type ExistenceChecker interface {
	ExistsLike(ctx context.Context, c *registry.DataCollection) (Existence, error)
}

// OwnershipRepository tracks which users maintain which resources. Ownership
// lives in its own table, not in the stored aggregate, and is resolved for
// the acting user when an edit is applied.
type OwnershipRepository interface {
	// Statuses returns the ownership status the login holds on each of the
	// given resources, keyed by resource identifier. Resources without a
	// recorded status are absent from the map.
	Statuses(ctx context.Context, login string, resourceIDs []string) (map[string]registry.OwnershipStatus, error)
	// Request records a pending ownership claim. An existing claim, pending
	// or granted, is left untouched.
	Request(ctx context.Context, login, resourceID string) error
	// Set records the curator's decision on a claim.
	Set(ctx context.Context, login, resourceID string, status registry.OwnershipStatus) error
}

// EditHistoryEntry is one immutable audit-trail record.
type EditHistoryEntry struct {
	CollectionID string    `json:"collectionId"`
	Actor        string    `json:"actor"`
	Diff         string    `json:"diff"`
	Checksum     string    `json:"checksum"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HistoryRepository is append-only: entries are never mutated or deleted.
type HistoryRepository interface {
	Append(ctx context.Context, entry EditHistoryEntry) error
	List(ctx context.Context, collectionID string) ([]EditHistoryEntry, error)
}

// RestrictionCategory is one entry of the closed restriction taxonomy.
type RestrictionCategory struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TaxonomyRepository resolves restriction categories (external reference
// data).
type TaxonomyRepository interface {
	Category(ctx context.Context, id int) (RestrictionCategory, error)
	Categories(ctx context.Context) ([]RestrictionCategory, error)
}

// EventSink receives lifecycle events. Implementations deliver them
// (email, live feed) on their own schedule; Publish must not block the
// calling lifecycle operation on delivery.
type EventSink interface {
	Publish(ctx context.Context, event domain.Event)
}

// ResolutionCache is the look-aside cache in front of the public partition's
// read path.
type ResolutionCache interface {
	Get(ctx context.Context, key string) (*registry.DataCollection, bool)
	Set(ctx context.Context, key string, c *registry.DataCollection)
	Invalidate(ctx context.Context, keys ...string)
}
