package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/internal/domain"
)

// persistRoundTrip mimics the document-column persistence: everything the
// JSON representation does not carry, resource ownership included, is gone
// after a load.
func persistRoundTrip(c *registry.DataCollection) *registry.DataCollection {
	raw, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	var out registry.DataCollection
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

type mockPublicRepo struct {
	records        map[string]*registry.DataCollection
	stored         []*registry.DataCollection
	updated        *registry.DataCollection
	updatedRes     []registry.Resource
	deprecatedID   string
	deprecatedComm string
	deprecatedRepl string
	restrictions   map[string][]registry.Restriction
	storeErr       error
	updateErr      error
	nextID         int
}

func newMockPublicRepo() *mockPublicRepo {
	return &mockPublicRepo{
		records:      map[string]*registry.DataCollection{},
		restrictions: map[string][]registry.Restriction{},
		nextID:       1,
	}
}

func (m *mockPublicRepo) Get(ctx context.Context, id string) (*registry.DataCollection, error) {
	c, ok := m.records[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "data collection " + id}
	}
	return persistRoundTrip(c), nil
}

func (m *mockPublicRepo) GetByNamespace(ctx context.Context, namespace string) (*registry.DataCollection, error) {
	for _, c := range m.records {
		if c.Namespace() == namespace {
			return persistRoundTrip(c), nil
		}
	}
	return nil, domain.NotFoundError{Resource: "namespace " + namespace}
}

func (m *mockPublicRepo) Store(ctx context.Context, c *registry.DataCollection) (string, error) {
	if m.storeErr != nil {
		return "", m.storeErr
	}
	id := fmt.Sprintf("MIR:%08d", m.nextID)
	m.nextID++
	c.ID = id
	m.records[id] = c.Clone()
	m.stored = append(m.stored, c)
	return id, nil
}

func (m *mockPublicRepo) Update(ctx context.Context, c *registry.DataCollection) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = c
	m.records[c.ID] = c.Clone()
	return nil
}

func (m *mockPublicRepo) UpdateResources(ctx context.Context, id string, resources []registry.Resource) error {
	m.updatedRes = resources
	return nil
}

func (m *mockPublicRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.records[id]
	return ok, nil
}

func (m *mockPublicRepo) AddRestriction(ctx context.Context, id string, r registry.Restriction) error {
	m.restrictions[id] = append(m.restrictions[id], r)
	return nil
}

func (m *mockPublicRepo) Deprecate(ctx context.Context, id, comment, replacedBy string) error {
	m.deprecatedID = id
	m.deprecatedComm = comment
	m.deprecatedRepl = replacedBy
	return nil
}

type mockCurationRepo struct {
	records      map[string]*registry.DataCollection
	states       map[string]domain.CurationState
	comments     map[string]string
	publicIDs    map[string]string
	deleted      []string
	restrictions map[string][]registry.Restriction
	storeErr     error
	nextID       int
}

func newMockCurationRepo() *mockCurationRepo {
	return &mockCurationRepo{
		records:      map[string]*registry.DataCollection{},
		states:       map[string]domain.CurationState{},
		comments:     map[string]string{},
		publicIDs:    map[string]string{},
		restrictions: map[string][]registry.Restriction{},
		nextID:       1,
	}
}

func (m *mockCurationRepo) Get(ctx context.Context, id string) (*registry.DataCollection, error) {
	c, ok := m.records[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "pipeline record " + id}
	}
	return c.Clone(), nil
}

func (m *mockCurationRepo) StorePending(ctx context.Context, c *registry.DataCollection, comment string) (string, error) {
	if m.storeErr != nil {
		return "", m.storeErr
	}
	id := fmt.Sprintf("MIR:009%05d", m.nextID)
	m.nextID++
	c.ID = id
	m.records[id] = c.Clone()
	m.states[id] = domain.StateSubmitted
	m.comments[id] = comment
	return id, nil
}

func (m *mockCurationRepo) List(ctx context.Context, state domain.CurationState) ([]CurationEntry, error) {
	var entries []CurationEntry
	for id, c := range m.records {
		if state != "" && m.states[id] != state {
			continue
		}
		entries = append(entries, CurationEntry{ID: id, Name: c.Name, State: m.states[id]})
	}
	return entries, nil
}

func (m *mockCurationRepo) State(ctx context.Context, id string) (domain.CurationState, error) {
	s, ok := m.states[id]
	if !ok {
		return "", domain.NotFoundError{Resource: "pipeline record " + id}
	}
	return s, nil
}

func (m *mockCurationRepo) SetState(ctx context.Context, id string, state domain.CurationState) error {
	m.states[id] = state
	return nil
}

func (m *mockCurationRepo) MarkPublished(ctx context.Context, id, publicID string) error {
	m.states[id] = domain.StatePublished
	m.publicIDs[id] = publicID
	return nil
}

func (m *mockCurationRepo) Delete(ctx context.Context, id string) error {
	delete(m.records, id)
	delete(m.states, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockCurationRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.records[id]
	return ok, nil
}

func (m *mockCurationRepo) AddRestriction(ctx context.Context, id string, r registry.Restriction) error {
	m.restrictions[id] = append(m.restrictions[id], r)
	return nil
}

type mockChecker struct {
	existence Existence
	err       error
}

func (m *mockChecker) ExistsLike(ctx context.Context, c *registry.DataCollection) (Existence, error) {
	return m.existence, m.err
}

type mockHistoryRepo struct {
	entries []EditHistoryEntry
}

func (m *mockHistoryRepo) Append(ctx context.Context, entry EditHistoryEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockHistoryRepo) List(ctx context.Context, collectionID string) ([]EditHistoryEntry, error) {
	var out []EditHistoryEntry
	for _, e := range m.entries {
		if e.CollectionID == collectionID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockTaxonomy struct {
	categories map[int]RestrictionCategory
}

func (m *mockTaxonomy) Category(ctx context.Context, id int) (RestrictionCategory, error) {
	c, ok := m.categories[id]
	if !ok {
		return RestrictionCategory{}, domain.ValidationError{Message: fmt.Sprintf("unknown restriction category %d", id)}
	}
	return c, nil
}

func (m *mockTaxonomy) Categories(ctx context.Context) ([]RestrictionCategory, error) {
	var out []RestrictionCategory
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

type mockEvents struct {
	published []domain.Event
}

func (m *mockEvents) Publish(ctx context.Context, event domain.Event) {
	m.published = append(m.published, event)
}

func (m *mockEvents) last() (domain.Event, bool) {
	if len(m.published) == 0 {
		return domain.Event{}, false
	}
	return m.published[len(m.published)-1], true
}

type mockOwnershipRepo struct {
	statuses  map[string]map[string]registry.OwnershipStatus
	requested [][2]string
	err       error
}

func newMockOwnershipRepo() *mockOwnershipRepo {
	return &mockOwnershipRepo{statuses: map[string]map[string]registry.OwnershipStatus{}}
}

func (m *mockOwnershipRepo) grant(login, resourceID string, status registry.OwnershipStatus) {
	if m.statuses[login] == nil {
		m.statuses[login] = map[string]registry.OwnershipStatus{}
	}
	m.statuses[login][resourceID] = status
}

func (m *mockOwnershipRepo) Statuses(ctx context.Context, login string, resourceIDs []string) (map[string]registry.OwnershipStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]registry.OwnershipStatus{}
	for _, id := range resourceIDs {
		if s, ok := m.statuses[login][id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (m *mockOwnershipRepo) Request(ctx context.Context, login, resourceID string) error {
	m.requested = append(m.requested, [2]string{login, resourceID})
	if m.statuses[login] == nil {
		m.statuses[login] = map[string]registry.OwnershipStatus{}
	}
	if _, ok := m.statuses[login][resourceID]; !ok {
		m.statuses[login][resourceID] = registry.OwnershipPending
	}
	return nil
}

func (m *mockOwnershipRepo) Set(ctx context.Context, login, resourceID string, status registry.OwnershipStatus) error {
	m.grant(login, resourceID, status)
	return nil
}

type mockCache struct {
	store       map[string]*registry.DataCollection
	invalidated []string
}

func newMockCache() *mockCache {
	return &mockCache{store: map[string]*registry.DataCollection{}}
}

func (m *mockCache) Get(ctx context.Context, key string) (*registry.DataCollection, bool) {
	c, ok := m.store[key]
	return c, ok
}

func (m *mockCache) Set(ctx context.Context, key string, c *registry.DataCollection) {
	m.store[key] = c
}

func (m *mockCache) Invalidate(ctx context.Context, keys ...string) {
	for _, k := range keys {
		delete(m.store, k)
	}
	m.invalidated = append(m.invalidated, keys...)
}
