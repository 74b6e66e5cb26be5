package usecase

import (
	"context"
	"log/slog"
	"time"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/internal/domain"
)

type CollectionUsecase struct {
	public   PublicRepository
	curation CurationRepository
	history  HistoryRepository
	events   EventSink
	cache    ResolutionCache
}

func NewCollectionUsecase(
	public PublicRepository,
	curation CurationRepository,
	history HistoryRepository,
	events EventSink,
	cache ResolutionCache,
) *CollectionUsecase {
	return &CollectionUsecase{
		public:   public,
		curation: curation,
		history:  history,
		events:   events,
		cache:    cache,
	}
}

// Get returns a published record by identifier, cache first.
func (uc *CollectionUsecase) Get(ctx context.Context, id string) (*registry.DataCollection, error) {
	ctx, span := tracer.Start(ctx, "Collection.Usecase.Get")
	defer span.End()

	if c, ok := uc.cache.Get(ctx, id); ok {
		return c, nil
	}
	c, err := uc.public.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.cache.Set(ctx, id, c)
	return c, nil
}

// Resolve returns the published record a namespace belongs to.
func (uc *CollectionUsecase) Resolve(ctx context.Context, namespace string) (*registry.DataCollection, error) {
	ctx, span := tracer.Start(ctx, "Collection.Usecase.Resolve")
	defer span.End()

	if c, ok := uc.cache.Get(ctx, namespace); ok {
		return c, nil
	}
	c, err := uc.public.GetByNamespace(ctx, namespace)
	if err != nil {
		return nil, err
	}
	uc.cache.Set(ctx, namespace, c)
	return c, nil
}

// Pipeline lists curation pipeline records, optionally filtered by state.
func (uc *CollectionUsecase) Pipeline(ctx context.Context, state domain.CurationState) ([]CurationEntry, error) {
	ctx, span := tracer.Start(ctx, "Collection.Usecase.Pipeline")
	defer span.End()

	return uc.curation.List(ctx, state)
}

// Transition moves a pipeline record through the curation state machine.
func (uc *CollectionUsecase) Transition(ctx context.Context, id string, state domain.CurationState) error {
	ctx, span := tracer.Start(ctx, "Collection.Usecase.Transition")
	defer span.End()

	return uc.curation.SetState(ctx, id, state)
}

// History lists the append-only edit trail of a published record.
func (uc *CollectionUsecase) History(ctx context.Context, id string) ([]EditHistoryEntry, error) {
	ctx, span := tracer.Start(ctx, "Collection.Usecase.History")
	defer span.End()

	ok, err := uc.public.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NotFoundError{Resource: "data collection " + id}
	}
	return uc.history.List(ctx, id)
}

// Deprecate flags a published record obsolete with an explanatory comment
// and an optional replacement. A replacement that does not resolve is
// dropped rather than rejected.
func (uc *CollectionUsecase) Deprecate(ctx context.Context, id, comment, replacedBy string, actor domain.Actor) error {
	ctx, span := tracer.Start(ctx, "Collection.Usecase.Deprecate")
	defer span.End()

	if !actor.IsCurator() {
		return domain.ErrNotAuthorized
	}

	c, err := uc.public.Get(ctx, id)
	if err != nil {
		return err
	}

	if replacedBy != "" {
		ok, err := uc.public.Exists(ctx, replacedBy)
		if err != nil {
			return err
		}
		if !ok {
			slog.Warn("deprecation replacement does not exist, dropping",
				slog.String("module", "usecase"),
				slog.String("id", id),
				slog.String("replacedBy", replacedBy))
			replacedBy = ""
		}
	}

	if err := uc.public.Deprecate(ctx, id, comment, replacedBy); err != nil {
		return err
	}

	keys := []string{id}
	if ns := c.Namespace(); ns != "" {
		keys = append(keys, ns)
	}
	uc.cache.Invalidate(ctx, keys...)

	uc.events.Publish(ctx, domain.Event{
		Type:         domain.EventRecordDeprecated,
		CollectionID: id,
		Name:         c.Name,
		Actor:        actor.Login,
		Subject:      replacedBy,
		Body:         comment,
		OccurredAt:   time.Now(),
	})
	return nil
}

// VerifyHistory recomputes every stored checksum and returns the entries
// whose diff no longer matches it.
func (uc *CollectionUsecase) VerifyHistory(ctx context.Context, id string) ([]EditHistoryEntry, error) {
	ctx, span := tracer.Start(ctx, "Collection.Usecase.VerifyHistory")
	defer span.End()

	entries, err := uc.history.List(ctx, id)
	if err != nil {
		return nil, err
	}
	var tampered []EditHistoryEntry
	for _, e := range entries {
		if Checksum(e.Diff) != e.Checksum {
			tampered = append(tampered, e)
		}
	}
	return tampered, nil
}
