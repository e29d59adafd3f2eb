package workers

import (
	"context"
	"log/slog"
	"syncbridge/domain"
	"syncbridge/mocks"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventFanout_Fanout(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	first := mocks.NewMockEventSink(ctrl)
	second := mocks.NewMockEventSink(ctrl)
	entry := domain.NewEntry("alice: hi", time.Now())
	entry.Seq = 1

	// Given two sinks, both expecting the entry once
	first.EXPECT().Consume(gomock.Any(), entry).Return(nil).Times(1)
	second.EXPECT().Consume(gomock.Any(), entry).Return(nil).Times(1)

	fanout := NewEventFanout(log, nil, time.Second, first, second)

	// When the entry is fanned out
	fanout.Fanout(context.Background(), entry)

	// Then both sinks consumed it
	req.True(ctrl.Satisfied())
}

func TestEventFanout_SinkTimeout(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	slow := mocks.NewMockEventSink(ctrl)
	next := mocks.NewMockEventSink(ctrl)

	// Given a sink blocking until its deadline
	slow.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ domain.Entry) error {
			<-ctx.Done()
			return ctx.Err()
		}).
		Times(1)
	// And a second sink that must still be reached
	next.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	fanout := NewEventFanout(log, nil, 20*time.Millisecond, slow, next)

	// When an entry is fanned out
	start := time.Now()
	fanout.Fanout(context.Background(), domain.NewEntry("[read] bob has read the messages.", time.Now()))

	// Then the slow sink was abandoned after its timeout
	req.Less(time.Since(start), 500*time.Millisecond)
}

func TestEventFanout_RunKeepsOrder(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	sink := mocks.NewMockEventSink(ctrl)
	events := make(chan domain.Entry, 3)
	received := make(chan uint64, 3)

	// Given a sink recording sequence numbers
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e domain.Entry) error {
			received <- e.Seq
			return nil
		}).
		Times(3)

	for seq := uint64(1); seq <= 3; seq++ {
		entry := domain.NewEntry("alice: hi", time.Now())
		entry.Seq = seq
		events <- entry
	}
	close(events)

	// When the fanout drains a closed channel
	err := NewEventFanout(log, events, time.Second, sink).Run(context.Background())

	// Then it stops cleanly after delivering every entry in order
	req.NoError(err)
	req.Equal(uint64(1), <-received)
	req.Equal(uint64(2), <-received)
	req.Equal(uint64(3), <-received)
}

func TestEventFanout_DrainsOnCancel(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockEventSink(ctrl)

	// Given two entries still buffered when the context ends
	events := make(chan domain.Entry, 2)
	events <- domain.NewEntry("[system] alice was kicked out of server.", time.Now())
	events <- domain.NewEntry("[system] bob was kicked out of server.", time.Now())
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// When the fanout runs on a cancelled context
	err := NewEventFanout(log, events, time.Second, sink).Run(ctx)

	// Then the buffered entries are still delivered
	req.NoError(err)
	req.Empty(events)
}
