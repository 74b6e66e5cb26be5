package service

import (
	"context"

	"github.com/mirreg/registry/internal/domain"
	"github.com/mirreg/registry/internal/usecase"
)

// EventFanout delivers every event to each configured sink.
type EventFanout struct {
	sinks []usecase.EventSink
}

func NewEventFanout(sinks ...usecase.EventSink) *EventFanout {
	return &EventFanout{sinks: sinks}
}

func (f *EventFanout) Publish(ctx context.Context, event domain.Event) {
	for _, sink := range f.sinks {
		sink.Publish(ctx, event)
	}
}
