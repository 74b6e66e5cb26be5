package usecase

import (
	"context"
	"fmt"
	"time"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/internal/domain"
)

// PublishOptions are the curation gates, loaded from configuration.
type PublishOptions struct {
	// RequireState is the pipeline state a record must be in before it can
	// be published. Empty disables the gate.
	RequireState domain.CurationState
	// RetainAfterPublish keeps the pipeline copy in state Published with a
	// pointer to the public identifier instead of deleting it.
	RetainAfterPublish bool
}

type PublishUsecase struct {
	public   PublicRepository
	curation CurationRepository
	events   EventSink
	cache    ResolutionCache
	opts     PublishOptions
}

func NewPublishUsecase(
	public PublicRepository,
	curation CurationRepository,
	events EventSink,
	cache ResolutionCache,
	opts PublishOptions,
) *PublishUsecase {
	return &PublishUsecase{
		public:   public,
		curation: curation,
		events:   events,
		cache:    cache,
		opts:     opts,
	}
}

// Publish promotes a curation pipeline record into the public registry under
// a freshly assigned public identifier.
func (uc *PublishUsecase) Publish(ctx context.Context, curationID string, actor domain.Actor) (string, error) {
	ctx, span := tracer.Start(ctx, "Publish.Usecase.Publish")
	defer span.End()

	if !actor.IsCurator() {
		return "", domain.ErrNotAuthorized
	}

	c, err := uc.curation.Get(ctx, curationID)
	if err != nil {
		return "", err
	}

	state, err := uc.curation.State(ctx, curationID)
	if err != nil {
		return "", err
	}
	if state == domain.StatePublished {
		return "", domain.ValidationError{Message: fmt.Sprintf("record %s is already published", curationID)}
	}
	if uc.opts.RequireState != "" && state != uc.opts.RequireState {
		return "", domain.ValidationError{
			Message: fmt.Sprintf("record %s is in state %q, publication requires %q", curationID, state, uc.opts.RequireState),
		}
	}

	published := c.Clone()
	published.ID = ""
	published.Version = 0

	publicID, err := uc.public.Store(ctx, published)
	if err != nil {
		uc.events.Publish(ctx, domain.Event{
			Type:         domain.EventPublishFailed,
			CollectionID: curationID,
			Name:         c.Name,
			Actor:        actor.Login,
			Body:         err.Error(),
			OccurredAt:   time.Now(),
		})
		return "", err
	}

	if uc.opts.RetainAfterPublish {
		err = uc.curation.MarkPublished(ctx, curationID, publicID)
	} else {
		err = uc.curation.Delete(ctx, curationID)
	}
	if err != nil {
		uc.events.Publish(ctx, domain.Event{
			Type:         domain.EventPublishFailed,
			CollectionID: curationID,
			Name:         c.Name,
			Actor:        actor.Login,
			Body:         fmt.Sprintf("published as %s but pipeline bookkeeping failed: %v", publicID, err),
			OccurredAt:   time.Now(),
		})
		return publicID, err
	}

	uc.invalidate(ctx, publicID, published)
	uc.events.Publish(ctx, domain.Event{
		Type:         domain.EventRecordPublished,
		CollectionID: publicID,
		Name:         c.Name,
		Actor:        actor.Login,
		Body:         fmt.Sprintf("Pipeline record %s is now published as %s.\n\n%s", curationID, publicID, c.Summary()),
		OccurredAt:   time.Now(),
	})
	return publicID, nil
}

func (uc *PublishUsecase) invalidate(ctx context.Context, id string, c *registry.DataCollection) {
	keys := []string{id}
	if ns := c.Namespace(); ns != "" {
		keys = append(keys, ns)
	}
	uc.cache.Invalidate(ctx, keys...)
}
