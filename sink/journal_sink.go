package sink

import (
	"context"
	"log/slog"
	"syncbridge/domain"
	"syncbridge/infrastructure/storage"
	"syncbridge/observability"
)

// JournalSink archives every history entry.
type JournalSink struct {
	repository storage.IJournalRepository
	log        *slog.Logger
}

func NewJournalSink(repository storage.IJournalRepository, log *slog.Logger) JournalSink {
	return JournalSink{repository: repository, log: log}
}

func (j JournalSink) Name() string { return "journal" }

func (j JournalSink) Consume(ctx context.Context, e domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := j.repository.Store(e); err != nil {
		observability.JournalWrites.WithLabelValues("failure").Inc()
		return err
	}
	observability.JournalWrites.WithLabelValues("success").Inc()
	return nil
}
