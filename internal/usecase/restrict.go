package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/internal/domain"
)

// Partition selects which storage partition an operation targets.
type Partition string

const (
	PartitionPublic   Partition = "public"
	PartitionCuration Partition = "curation"
)

// RestrictionInput describes a restriction to attach to a record.
type RestrictionInput struct {
	CollectionID string
	Partition    Partition
	CategoryID   int
	Description  string
	Link         string
	LinkDesc     string
	Actor        domain.Actor
}

type RestrictionUsecase struct {
	public   PublicRepository
	curation CurationRepository
	taxonomy TaxonomyRepository
	events   EventSink
	cache    ResolutionCache
}

func NewRestrictionUsecase(
	public PublicRepository,
	curation CurationRepository,
	taxonomy TaxonomyRepository,
	events EventSink,
	cache ResolutionCache,
) *RestrictionUsecase {
	return &RestrictionUsecase{
		public:   public,
		curation: curation,
		taxonomy: taxonomy,
		events:   events,
		cache:    cache,
	}
}

// Add attaches an access restriction to a record in either partition.
func (uc *RestrictionUsecase) Add(ctx context.Context, input RestrictionInput) error {
	ctx, span := tracer.Start(ctx, "Restriction.Usecase.Add")
	defer span.End()

	if !input.Actor.IsCurator() {
		return domain.ErrNotAuthorized
	}
	if strings.TrimSpace(input.Description) == "" {
		return domain.ValidationError{Message: "a restriction needs a description"}
	}
	if input.Link != "" && strings.TrimSpace(input.LinkDesc) == "" {
		return domain.ValidationError{Message: "a restriction link needs a description"}
	}

	category, err := uc.taxonomy.Category(ctx, input.CategoryID)
	if err != nil {
		return err
	}

	r := registry.Restriction{
		CategoryID:      category.ID,
		Category:        category.Name,
		Description:     input.Description,
		Link:            input.Link,
		LinkDescription: input.LinkDesc,
	}

	switch input.Partition {
	case PartitionCuration:
		err = uc.curation.AddRestriction(ctx, input.CollectionID, r)
	case PartitionPublic:
		err = uc.public.AddRestriction(ctx, input.CollectionID, r)
		if err == nil {
			uc.cache.Invalidate(ctx, input.CollectionID)
		}
	default:
		return domain.ValidationError{Message: fmt.Sprintf("unknown partition %q", input.Partition)}
	}
	if err != nil {
		return err
	}

	uc.events.Publish(ctx, domain.Event{
		Type:         domain.EventRestrictionAdded,
		CollectionID: input.CollectionID,
		Actor:        input.Actor.Login,
		Subject:      category.Name,
		Body:         input.Description,
		OccurredAt:   time.Now(),
	})
	return nil
}

// Categories exposes the restriction taxonomy for form rendering.
func (uc *RestrictionUsecase) Categories(ctx context.Context) ([]RestrictionCategory, error) {
	ctx, span := tracer.Start(ctx, "Restriction.Usecase.Categories")
	defer span.End()

	return uc.taxonomy.Categories(ctx)
}
