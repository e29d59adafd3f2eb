package workers

import (
	"context"
	"log/slog"
	"syncbridge/contract"
	"syncbridge/domain"
	"time"
)

// EventFanout hands every history entry to the registered sinks, in history order.
//
// It is best effort: a failing or slow sink is logged and skipped, there is no retry.
// Sinks observe the chat after the fact and never influence delivery to sessions.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan domain.Entry
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, events <-chan domain.Entry, sinkTimeout time.Duration,
	sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{log: log, events: events, sinks: sinks, sinkTimeout: sinkTimeout}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case entry, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel closed, stopping fanout")
				return nil
			}
			w.Fanout(ctx, entry)
		case <-ctx.Done():
			w.drain()
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// drain hands over what is already buffered, the last departures included.
func (w *EventFanout) drain() {
	for {
		select {
		case entry, ok := <-w.events:
			if !ok {
				return
			}
			w.Fanout(context.Background(), entry)
		default:
			return
		}
	}
}

// Fanout gives each sink its own deadline.
func (w *EventFanout) Fanout(ctx context.Context, entry domain.Entry) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, entry); err != nil {
			w.log.Warn("Sink failed", "sink", sinkName(sink), "seq", entry.Seq, "error", err)
		}
		cancel()
	}
}

func sinkName(sink contract.EventSink) string {
	if named, ok := sink.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "unnamed"
}
