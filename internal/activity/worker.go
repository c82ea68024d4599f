package activity

import (
	"context"
	"log/slog"
)

// Worker drains the service inbox into the store and, when configured, the
// Kafka publisher. A failed sink is logged and skipped: losing one activity
// record is preferable to backing up the whole pipeline.
type Worker struct {
	store     Store
	publisher *KafkaPublisher
	inbox     <-chan Event
	logger    *slog.Logger
}

// NewWorker wires the worker. publisher may be nil when Kafka is not
// configured.
func NewWorker(store Store, publisher *KafkaPublisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, publisher: publisher, inbox: inbox, logger: logger}
}

// Run processes events until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("append activity event", "action", event.Action, "error", err)
			}
			if w.publisher != nil {
				if err := w.publisher.Publish(ctx, event); err != nil {
					w.logger.Error("publish activity event", "action", event.Action, "error", err)
				}
			}
		}
	}
}
