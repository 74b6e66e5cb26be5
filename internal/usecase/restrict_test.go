package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mirreg/registry/internal/domain"
)

func newRestrictFixture() (*RestrictionUsecase, *mockPublicRepo, *mockCurationRepo, *mockEvents) {
	public := newMockPublicRepo()
	curation := newMockCurationRepo()
	taxonomy := &mockTaxonomy{categories: map[int]RestrictionCategory{
		1: {ID: 1, Name: "licensing"},
		2: {ID: 2, Name: "authentication required"},
	}}
	events := &mockEvents{}
	cache := newMockCache()
	return NewRestrictionUsecase(public, curation, taxonomy, events, cache), public, curation, events
}

func curator() domain.Actor {
	return domain.Actor{Login: "alice", Role: domain.RoleCurator}
}

func TestRestrictionRequiresCurator(t *testing.T) {
	uc, _, _, _ := newRestrictFixture()

	err := uc.Add(context.Background(), RestrictionInput{
		CollectionID: "MIR:00000001",
		Partition:    PartitionPublic,
		CategoryID:   1,
		Description:  "commercial use requires a license",
		Actor:        domain.Actor{Login: "bob", Role: domain.RoleGeneral},
	})
	if !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestRestrictionDescriptionMandatory(t *testing.T) {
	uc, _, _, _ := newRestrictFixture()

	err := uc.Add(context.Background(), RestrictionInput{
		CollectionID: "MIR:00000001",
		Partition:    PartitionPublic,
		CategoryID:   1,
		Description:  "   ",
		Actor:        curator(),
	})
	if !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRestrictionLinkNeedsDescription(t *testing.T) {
	uc, _, _, _ := newRestrictFixture()

	err := uc.Add(context.Background(), RestrictionInput{
		CollectionID: "MIR:00000001",
		Partition:    PartitionPublic,
		CategoryID:   1,
		Description:  "commercial use requires a license",
		Link:         "https://example.org/terms",
		Actor:        curator(),
	})
	if !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected validation error for bare link, got %v", err)
	}
}

func TestRestrictionUnknownCategoryRejected(t *testing.T) {
	uc, public, _, _ := newRestrictFixture()

	err := uc.Add(context.Background(), RestrictionInput{
		CollectionID: "MIR:00000001",
		Partition:    PartitionPublic,
		CategoryID:   99,
		Description:  "commercial use requires a license",
		Actor:        curator(),
	})
	if !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected validation error for unknown category, got %v", err)
	}
	if len(public.restrictions) != 0 {
		t.Fatalf("nothing must be attached on rejection")
	}
}

func TestRestrictionAttachedToPublicPartition(t *testing.T) {
	uc, public, _, events := newRestrictFixture()

	err := uc.Add(context.Background(), RestrictionInput{
		CollectionID: "MIR:00000001",
		Partition:    PartitionPublic,
		CategoryID:   1,
		Description:  "commercial use requires a license",
		Link:         "https://example.org/terms",
		LinkDesc:     "license terms",
		Actor:        curator(),
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	attached := public.restrictions["MIR:00000001"]
	if len(attached) != 1 {
		t.Fatalf("expected one restriction, got %d", len(attached))
	}
	if attached[0].Category != "licensing" {
		t.Fatalf("expected resolved category name, got %q", attached[0].Category)
	}
	if e, _ := events.last(); e.Type != domain.EventRestrictionAdded {
		t.Fatalf("expected restriction event, got %s", e.Type)
	}
}

func TestRestrictionAttachedToCurationPartition(t *testing.T) {
	uc, _, curation, _ := newRestrictFixture()

	err := uc.Add(context.Background(), RestrictionInput{
		CollectionID: "MIR:00900001",
		Partition:    PartitionCuration,
		CategoryID:   2,
		Description:  "requires an account",
		Actor:        curator(),
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(curation.restrictions["MIR:00900001"]) != 1 {
		t.Fatalf("expected restriction on the pipeline record")
	}
}
