package sink_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"syncbridge/domain"
	"syncbridge/mocks"
	"syncbridge/observability"
	"syncbridge/sink"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestJournalSink_Consume(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIJournalRepository(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := sink.NewJournalSink(mockRepo, logger)

	entry := domain.NewEntry("alice: hello", time.Now().UTC())
	entry.Seq = 7

	t.Run("Entry is stored as is", func(t *testing.T) {
		before := testutil.ToFloat64(observability.JournalWrites.WithLabelValues("success"))
		mockRepo.EXPECT().Store(entry).Return(nil).Times(1)

		req.NoError(s.Consume(context.Background(), entry))
		req.Equal(before+1, testutil.ToFloat64(observability.JournalWrites.WithLabelValues("success")))
	})

	t.Run("Repository failure is returned", func(t *testing.T) {
		before := testutil.ToFloat64(observability.JournalWrites.WithLabelValues("failure"))
		mockRepo.EXPECT().Store(gomock.Any()).Return(fmt.Errorf("disk full")).Times(1)

		req.Error(s.Consume(context.Background(), entry))
		req.Equal(before+1, testutil.ToFloat64(observability.JournalWrites.WithLabelValues("failure")))
	})

	t.Run("Expired context skips the write", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req.ErrorIs(s.Consume(ctx, entry), context.Canceled)
	})
}

func TestMetricsSink_Consume(t *testing.T) {
	req := require.New(t)
	s := sink.NewMetricsSink()
	before := testutil.ToFloat64(observability.LinesBroadcast.WithLabelValues(string(domain.KindTyping)))

	req.NoError(s.Consume(context.Background(), domain.NewEntry("[typing] bob is typing...", time.Now())))

	req.Equal(before+1, testutil.ToFloat64(observability.LinesBroadcast.WithLabelValues(string(domain.KindTyping))))
}
