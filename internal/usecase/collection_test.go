package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mirreg/registry/internal/domain"
)

func newCollectionFixture() (*CollectionUsecase, *mockPublicRepo, *mockCurationRepo, *mockHistoryRepo, *mockEvents, *mockCache) {
	public := newMockPublicRepo()
	curation := newMockCurationRepo()
	history := &mockHistoryRepo{}
	events := &mockEvents{}
	cache := newMockCache()
	return NewCollectionUsecase(public, curation, history, events, cache), public, curation, history, events, cache
}

func TestCollectionGetCachesResult(t *testing.T) {
	uc, public, _, _, _, cache := newCollectionFixture()
	c := publishedCollection()
	public.records[c.ID] = c

	got, err := uc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != c.Name {
		t.Fatalf("unexpected record %+v", got)
	}
	if _, ok := cache.store[c.ID]; !ok {
		t.Fatalf("result not cached")
	}

	// Second read must come from the cache even if storage changes.
	want := c.Name
	public.records[c.ID].Name = "mutated"
	again, err := uc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if again.Name != want {
		t.Fatalf("expected cached record, got %+v", again)
	}
}

func TestCollectionGetNotFound(t *testing.T) {
	uc, _, _, _, _, _ := newCollectionFixture()

	_, err := uc.Get(context.Background(), "MIR:00099999")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestCollectionResolveByNamespace(t *testing.T) {
	uc, public, _, _, _, _ := newCollectionFixture()
	c := publishedCollection()
	public.records[c.ID] = c

	got, err := uc.Resolve(context.Background(), "chebi")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("resolved wrong record %+v", got)
	}
}

func TestCollectionPipelineFilter(t *testing.T) {
	uc, _, curation, _, _, _ := newCollectionFixture()
	a := validCollection()
	idA, _ := curation.StorePending(context.Background(), &a, "")
	b := validCollection()
	b.Name = "UniProt"
	idB, _ := curation.StorePending(context.Background(), &b, "")
	curation.states[idB] = domain.StateCuration

	entries, err := uc.Pipeline(context.Background(), domain.StateCuration)
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != idB {
		t.Fatalf("expected only %s, got %+v", idB, entries)
	}

	all, err := uc.Pipeline(context.Background(), "")
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both records, got %+v", all)
	}
	_ = idA
}

func TestCollectionHistoryUnknownRecord(t *testing.T) {
	uc, _, _, _, _, _ := newCollectionFixture()

	_, err := uc.History(context.Background(), "MIR:00099999")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestCollectionDeprecate(t *testing.T) {
	uc, public, _, _, events, cache := newCollectionFixture()
	c := publishedCollection()
	replacement := publishedCollection()
	replacement.ID = "MIR:00000007"
	public.records[c.ID] = c
	public.records[replacement.ID] = replacement
	cache.store[c.ID] = c

	err := uc.Deprecate(context.Background(), c.ID, "superseded", replacement.ID, curator())
	if err != nil {
		t.Fatalf("deprecate failed: %v", err)
	}
	if public.deprecatedID != c.ID || public.deprecatedRepl != replacement.ID {
		t.Fatalf("deprecation not persisted: %+v", public)
	}
	if _, ok := cache.store[c.ID]; ok {
		t.Fatalf("cache must be invalidated")
	}
	if e, _ := events.last(); e.Type != domain.EventRecordDeprecated {
		t.Fatalf("expected deprecation event, got %s", e.Type)
	}
}

func TestCollectionDeprecateDropsMissingReplacement(t *testing.T) {
	uc, public, _, _, _, _ := newCollectionFixture()
	c := publishedCollection()
	public.records[c.ID] = c

	err := uc.Deprecate(context.Background(), c.ID, "gone", "MIR:00099999", curator())
	if err != nil {
		t.Fatalf("deprecate failed: %v", err)
	}
	if public.deprecatedRepl != "" {
		t.Fatalf("missing replacement must be dropped, got %q", public.deprecatedRepl)
	}
}

func TestCollectionDeprecateRequiresCurator(t *testing.T) {
	uc, public, _, _, _, _ := newCollectionFixture()
	c := publishedCollection()
	public.records[c.ID] = c

	err := uc.Deprecate(context.Background(), c.ID, "nope", "", domain.Actor{Login: "bob", Role: domain.RoleGeneral})
	if !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestCollectionVerifyHistory(t *testing.T) {
	uc, _, _, history, _, _ := newCollectionFixture()
	good := EditHistoryEntry{CollectionID: "MIR:00000002", Diff: "Name:\n\t< a\n\t> b\n\n"}
	good.Checksum = Checksum(good.Diff)
	bad := EditHistoryEntry{CollectionID: "MIR:00000002", Diff: "Name:\n\t< a\n\t> c\n\n", Checksum: "deadbeef"}
	history.entries = []EditHistoryEntry{good, bad}

	tampered, err := uc.VerifyHistory(context.Background(), "MIR:00000002")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if len(tampered) != 1 || tampered[0].Checksum != "deadbeef" {
		t.Fatalf("expected only the tampered entry, got %+v", tampered)
	}
}
