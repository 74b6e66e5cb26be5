package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/internal/domain"
)

var tracer = otel.Tracer("usecase")

// SubmissionInput carries a candidate record together with the submitter's
// session context.
type SubmissionInput struct {
	Collection registry.DataCollection
	Actor      domain.Actor
	// UserInfo is the free-text attribution an anonymous submitter leaves.
	UserInfo string
	Comment  string
	// PublishNow asks for direct publication. Only honored for curators.
	PublishNow bool
	// Honeypot is a hidden form field. Humans leave it empty.
	Honeypot string
}

// SubmissionKind tags the outcome of a submission.
type SubmissionKind int

const (
	SubmissionSpam SubmissionKind = iota
	SubmissionInvalid
	SubmissionDuplicate
	SubmissionSessionExpired
	SubmissionPending
	SubmissionPublished
	SubmissionFailed
)

func (k SubmissionKind) String() string {
	switch k {
	case SubmissionSpam:
		return "spam"
	case SubmissionInvalid:
		return "invalid"
	case SubmissionDuplicate:
		return "duplicate"
	case SubmissionSessionExpired:
		return "session-expired"
	case SubmissionPending:
		return "pending"
	case SubmissionPublished:
		return "published"
	case SubmissionFailed:
		return "failed"
	}
	return "unknown"
}

// SubmissionOutcome reports how a submission was routed. ID is the assigned
// identifier for SessionExpired, Pending and Published outcomes.
type SubmissionOutcome struct {
	Kind    SubmissionKind
	ID      string
	Problem string
}

type SubmitUsecase struct {
	public   PublicRepository
	curation CurationRepository
	checker  ExistenceChecker
	events   EventSink
}

func NewSubmitUsecase(
	public PublicRepository,
	curation CurationRepository,
	checker ExistenceChecker,
	events EventSink,
) *SubmitUsecase {
	return &SubmitUsecase{
		public:   public,
		curation: curation,
		checker:  checker,
		events:   events,
	}
}

// Submit routes a candidate record by trust level. Curators may publish
// directly, everyone else lands in the curation pipeline, and expired
// sessions are still stored so the work is not lost.
func (uc *SubmitUsecase) Submit(ctx context.Context, input SubmissionInput) (SubmissionOutcome, error) {
	ctx, span := tracer.Start(ctx, "Submit.Usecase.Submit")
	defer span.End()

	if input.Honeypot != "" {
		uc.events.Publish(ctx, domain.Event{
			Type:       domain.EventSubmissionSpam,
			Name:       input.Collection.Name,
			Actor:      input.Actor.Login,
			UserInfo:   input.UserInfo,
			OccurredAt: time.Now(),
		})
		return SubmissionOutcome{Kind: SubmissionSpam}, nil
	}

	c := input.Collection
	c.Normalize()

	if problems := c.Problems(); len(problems) > 0 {
		// Authenticated submitters get the problems back to fix. Anonymous
		// ones cannot be round-tripped, so missing fields are filled with
		// placeholders for curators to complete.
		if input.Actor.IsAuthenticated() {
			return SubmissionOutcome{Kind: SubmissionInvalid, Problem: strings.Join(problems, "; ")}, nil
		}
		c.CoercePlaceholders()
	}

	existence, err := uc.checker.ExistsLike(ctx, &c)
	if err != nil {
		return SubmissionOutcome{}, err
	}
	if existence.Any() {
		partition := "public registry"
		if !existence.Public {
			partition = "curation pipeline"
		}
		slog.Info("duplicate submission rejected",
			slog.String("module", "usecase"),
			slog.String("name", c.Name),
			slog.String("partition", partition))
		uc.events.Publish(ctx, domain.Event{
			Type:         domain.EventSubmissionDuplicate,
			CollectionID: existence.MatchedID(),
			Name:         c.Name,
			Actor:        input.Actor.Login,
			UserInfo:     input.UserInfo,
			Subject:      partition,
			OccurredAt:   time.Now(),
		})
		return SubmissionOutcome{Kind: SubmissionDuplicate, Problem: "already registered in " + partition}, nil
	}

	if input.Actor.IsCurator() && input.PublishNow {
		id, err := uc.public.Store(ctx, &c)
		if err != nil {
			uc.events.Publish(ctx, domain.Event{
				Type:       domain.EventPublishFailed,
				Name:       c.Name,
				Actor:      input.Actor.Login,
				Body:       err.Error(),
				OccurredAt: time.Now(),
			})
			return SubmissionOutcome{Kind: SubmissionFailed, Problem: err.Error()}, nil
		}
		uc.events.Publish(ctx, domain.Event{
			Type:         domain.EventRecordPublished,
			CollectionID: id,
			Name:         c.Name,
			Actor:        input.Actor.Login,
			UserInfo:     input.UserInfo,
			Body:         c.Summary(),
			OccurredAt:   time.Now(),
		})
		return SubmissionOutcome{Kind: SubmissionPublished, ID: id}, nil
	}

	sessionExpired := !input.Actor.IsAuthenticated() && input.UserInfo == ""

	comment := input.Comment
	switch {
	case sessionExpired:
		comment = "curator's session timeout"
	case input.Actor.IsAuthenticated():
		comment = fmt.Sprintf("Submitted by curator: %s", input.Actor.Login)
		if input.Comment != "" {
			comment += "\n" + input.Comment
		}
	}

	id, err := uc.curation.StorePending(ctx, &c, comment)
	if err != nil {
		uc.events.Publish(ctx, domain.Event{
			Type:       domain.EventPublishFailed,
			Name:       c.Name,
			Actor:      input.Actor.Login,
			Body:       err.Error(),
			OccurredAt: time.Now(),
		})
		return SubmissionOutcome{Kind: SubmissionFailed, Problem: err.Error()}, nil
	}

	if sessionExpired {
		uc.events.Publish(ctx, domain.Event{
			Type:         domain.EventSubmissionSessionExpiry,
			CollectionID: id,
			Name:         c.Name,
			Body:         c.Summary(),
			OccurredAt:   time.Now(),
		})
		return SubmissionOutcome{Kind: SubmissionSessionExpired, ID: id}, nil
	}

	uc.events.Publish(ctx, domain.Event{
		Type:         domain.EventSubmissionAccepted,
		CollectionID: id,
		Name:         c.Name,
		Actor:        input.Actor.Login,
		UserInfo:     input.UserInfo,
		Subject:      comment,
		Body:         c.Summary(),
		OccurredAt:   time.Now(),
	})
	return SubmissionOutcome{Kind: SubmissionPending, ID: id}, nil
}
