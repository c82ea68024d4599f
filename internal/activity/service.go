package activity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"soultribe/pkg/requestcontext"
)

// Recorder is the narrow interface domain services depend on.
type Recorder interface {
	Emit(ctx context.Context, action string, actorID uuid.UUID, metadata map[string]any)
}

// Service buffers events onto a channel drained by the Worker. When the
// buffer is full the event is dropped with a warning; requests never block on
// the activity pipeline.
type Service struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewService creates the activity service with the given buffer depth.
func NewService(buffer int, logger *slog.Logger) *Service {
	if buffer <= 0 {
		buffer = 256
	}
	return &Service{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the receive side for the Worker.
func (s *Service) Inbox() <-chan Event {
	return s.inbox
}

// Emit enqueues an event, stamping it from the request context.
func (s *Service) Emit(ctx context.Context, action string, actorID uuid.UUID, metadata map[string]any) {
	event := Event{
		ID:        uuid.New(),
		Action:    action,
		ActorID:   actorID,
		Timestamp: requestcontext.Now(ctx).UTC(),
		RequestID: requestcontext.RequestID(ctx),
		Metadata:  metadata,
	}
	select {
	case s.inbox <- event:
	default:
		s.logger.Warn("activity buffer full, dropping event", "action", action)
	}
}

// Nop is a Recorder that discards everything; used in tests and when the
// pipeline is disabled.
type Nop struct{}

func (Nop) Emit(context.Context, string, uuid.UUID, map[string]any) {}
