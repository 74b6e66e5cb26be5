package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/trace"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/diff"
	"github.com/mirreg/registry/internal/domain"
)

// EditInput carries a proposed revision of a published record.
type EditInput struct {
	Collection registry.DataCollection
	Actor      domain.Actor
	UserInfo   string
	Honeypot   string
}

// EditKind tags the outcome of an edit.
type EditKind int

const (
	EditApplied EditKind = iota
	EditPartial
	EditSuggested
	EditSessionExpired
	EditRejected
	EditNotFound
	EditSpam
	EditConflict
)

func (k EditKind) String() string {
	switch k {
	case EditApplied:
		return "applied"
	case EditPartial:
		return "partial"
	case EditSuggested:
		return "suggested"
	case EditSessionExpired:
		return "session-expired"
	case EditRejected:
		return "rejected"
	case EditNotFound:
		return "not-found"
	case EditSpam:
		return "spam"
	case EditConflict:
		return "conflict"
	}
	return "unknown"
}

// EditOutcome reports how an edit was handled. Diff is filled for every
// outcome that computed one.
type EditOutcome struct {
	Kind    EditKind
	ID      string
	Diff    string
	Problem string
}

type EditUsecase struct {
	public    PublicRepository
	ownership OwnershipRepository
	history   HistoryRepository
	events    EventSink
	cache     ResolutionCache
}

func NewEditUsecase(
	public PublicRepository,
	ownership OwnershipRepository,
	history HistoryRepository,
	events EventSink,
	cache ResolutionCache,
) *EditUsecase {
	return &EditUsecase{
		public:    public,
		ownership: ownership,
		history:   history,
		events:    events,
		cache:     cache,
	}
}

// Apply runs a proposed edit against the published record it targets. What
// actually gets persisted depends on who is asking: curators overwrite,
// authenticated users touch only the resources they own, and anonymous
// input becomes a suggestion for curators to review.
func (uc *EditUsecase) Apply(ctx context.Context, input EditInput) (EditOutcome, error) {
	ctx, span := tracer.Start(ctx, "Edit.Usecase.Apply")
	defer span.End()

	stored, err := uc.public.Get(ctx, input.Collection.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return EditOutcome{Kind: EditNotFound, ID: input.Collection.ID}, nil
		}
		return EditOutcome{}, err
	}

	if !stored.HasActiveResource() {
		return EditOutcome{
			Kind:    EditRejected,
			ID:      stored.ID,
			Problem: "record has no active resource and cannot be edited",
		}, nil
	}

	if input.Honeypot != "" {
		uc.events.Publish(ctx, domain.Event{
			Type:         domain.EventSubmissionSpam,
			CollectionID: stored.ID,
			Name:         stored.Name,
			UserInfo:     input.UserInfo,
			OccurredAt:   time.Now(),
		})
		return EditOutcome{Kind: EditSpam, ID: stored.ID}, nil
	}

	proposed := input.Collection
	proposed.Normalize()

	if old, next := stored.Namespace(), proposed.Namespace(); next != "" && old != "" && old != next {
		registry.MigrateNamespace(&proposed, registry.ComposeURN(old), registry.ComposeURL(old))
	}

	switch {
	case input.Actor.IsCurator():
		return uc.applyFull(ctx, stored, &proposed, input)
	case input.Actor.IsAuthenticated():
		if err := uc.loadOwnership(ctx, stored, input.Actor.Login); err != nil {
			return EditOutcome{}, err
		}
		return uc.applyOwned(ctx, stored, &proposed, input)
	case input.UserInfo == "":
		return EditOutcome{Kind: EditSessionExpired, ID: stored.ID}, nil
	default:
		return uc.suggest(ctx, stored, &proposed, input)
	}
}

func (uc *EditUsecase) applyFull(ctx context.Context, stored, proposed *registry.DataCollection, input EditInput) (EditOutcome, error) {
	delta := diff.Collections(stored, proposed)

	if err := uc.public.Update(ctx, proposed); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return EditOutcome{
				Kind:    EditConflict,
				ID:      stored.ID,
				Problem: "record changed since it was loaded, reload and retry",
			}, nil
		}
		return EditOutcome{}, err
	}

	uc.invalidate(ctx, stored, proposed)
	uc.record(ctx, stored.ID, input.Actor.Login, delta)
	uc.events.Publish(ctx, domain.Event{
		Type:         domain.EventRecordUpdated,
		CollectionID: stored.ID,
		Name:         proposed.Name,
		Actor:        input.Actor.Login,
		Body:         delta,
		OccurredAt:   time.Now(),
	})
	return EditOutcome{Kind: EditApplied, ID: stored.ID, Diff: delta}, nil
}

// loadOwnership resolves the actor's ownership over the stored resources.
// Ownership is kept in its own table, never in the stored aggregate, so a
// freshly hydrated record carries no status until this runs.
func (uc *EditUsecase) loadOwnership(ctx context.Context, stored *registry.DataCollection, login string) error {
	ids := make([]string, 0, len(stored.Resources))
	for _, r := range stored.Resources {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	statuses, err := uc.ownership.Statuses(ctx, login, ids)
	if err != nil {
		return err
	}
	for i := range stored.Resources {
		stored.Resources[i].Ownership = statuses[stored.Resources[i].ID]
	}
	return nil
}

// PartialEditNote marks diffs of edits where only the owned resources were
// persisted, so the audit trail and curator notifications distinguish them
// from full overwrites.
const PartialEditNote = "only owned-resource changes applied"

// applyOwned persists only the resources the actor owns. Everything else in
// the proposal is surfaced to curators through the diff, not stored.
func (uc *EditUsecase) applyOwned(ctx context.Context, stored, proposed *registry.DataCollection, input EditInput) (EditOutcome, error) {
	var owned []registry.Resource
	for _, r := range proposed.Resources {
		for _, s := range stored.Resources {
			if r.SameEntry(s) && s.Ownership == registry.OwnershipGranted {
				owned = append(owned, r)
				break
			}
		}
	}

	merged := stored.Clone()
	for _, r := range owned {
		for i := range merged.Resources {
			if merged.Resources[i].SameEntry(r) {
				merged.Resources[i] = r
				break
			}
		}
	}

	delta := PartialEditNote + "\n\n" + diff.Collections(stored, proposed)

	if len(owned) > 0 {
		if err := uc.public.UpdateResources(ctx, stored.ID, owned); err != nil {
			return EditOutcome{}, err
		}
		uc.invalidate(ctx, stored, merged)
		uc.record(ctx, stored.ID, input.Actor.Login, PartialEditNote+"\n\n"+diff.Collections(stored, merged))
	}

	uc.events.Publish(ctx, domain.Event{
		Type:         domain.EventEditPartial,
		CollectionID: stored.ID,
		Name:         stored.Name,
		Actor:        input.Actor.Login,
		Body:         delta,
		OccurredAt:   time.Now(),
	})
	return EditOutcome{Kind: EditPartial, ID: stored.ID, Diff: delta}, nil
}

// RequestOwnership records an authenticated user's claim on a resource of a
// published record and notifies curators. The claim starts pending; nothing
// changes on the record itself until a curator decides.
func (uc *EditUsecase) RequestOwnership(ctx context.Context, actor domain.Actor, collectionID, resourceID string) error {
	ctx, span := tracer.Start(ctx, "Edit.Usecase.RequestOwnership")
	defer span.End()

	if !actor.IsAuthenticated() {
		return domain.ErrNotAuthorized
	}

	stored, err := uc.public.Get(ctx, collectionID)
	if err != nil {
		return err
	}
	found := false
	for _, r := range stored.Resources {
		if r.ID == resourceID {
			found = true
			break
		}
	}
	if !found {
		return domain.NotFoundError{Resource: "resource " + resourceID}
	}

	if err := uc.ownership.Request(ctx, actor.Login, resourceID); err != nil {
		return err
	}
	uc.events.Publish(ctx, domain.Event{
		Type:         domain.EventOwnershipRequested,
		CollectionID: stored.ID,
		Name:         stored.Name,
		Actor:        actor.Login,
		Body:         fmt.Sprintf("User %s requests ownership of resource %s.", actor.Login, resourceID),
		OccurredAt:   time.Now(),
	})
	return nil
}

// DecideOwnership records a curator's decision on an ownership claim.
func (uc *EditUsecase) DecideOwnership(ctx context.Context, actor domain.Actor, login, resourceID string, status registry.OwnershipStatus) error {
	ctx, span := tracer.Start(ctx, "Edit.Usecase.DecideOwnership")
	defer span.End()

	if !actor.IsCurator() {
		return domain.ErrNotAuthorized
	}
	return uc.ownership.Set(ctx, login, resourceID, status)
}

// suggest stores nothing. The diff travels with the event so curators see
// exactly what the anonymous contributor proposed.
func (uc *EditUsecase) suggest(ctx context.Context, stored, proposed *registry.DataCollection, input EditInput) (EditOutcome, error) {
	delta := diff.Collections(stored, proposed)
	uc.events.Publish(ctx, domain.Event{
		Type:         domain.EventEditSuggested,
		CollectionID: stored.ID,
		Name:         stored.Name,
		UserInfo:     input.UserInfo,
		Body:         delta,
		OccurredAt:   time.Now(),
	})
	return EditOutcome{Kind: EditSuggested, ID: stored.ID, Diff: delta}, nil
}

func (uc *EditUsecase) record(ctx context.Context, id, actor, delta string) {
	err := uc.history.Append(ctx, EditHistoryEntry{
		CollectionID: id,
		Actor:        actor,
		Diff:         delta,
		Checksum:     Checksum(delta),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		// Audit trail failures must not undo an already persisted edit.
		trace.SpanFromContext(ctx).RecordError(err)
		slog.Error("failed to append edit history",
			slog.String("module", "usecase"),
			slog.String("id", id),
			slog.String("error", err.Error()))
	}
}

func (uc *EditUsecase) invalidate(ctx context.Context, stored, next *registry.DataCollection) {
	keys := []string{stored.ID, stored.Namespace()}
	if ns := next.Namespace(); ns != stored.Namespace() {
		keys = append(keys, ns)
	}
	uc.cache.Invalidate(ctx, keys...)
}

// Checksum returns the hex xxh3 digest of a diff, stored alongside it so the
// audit trail can be verified later.
func Checksum(delta string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(delta))
}
