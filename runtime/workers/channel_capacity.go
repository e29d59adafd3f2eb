package workers

import (
	"context"
	"log/slog"
	"reflect"
	"syncbridge/observability"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically reports the length and capacity of internal channels.
// Reading len and cap is non-blocking, the channels are never touched otherwise.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, metricInterval time.Duration,
	channels ...NamedChannel) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		channels:       channels,
		metricInterval: metricInterval,
	}
}

func (w ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w ChannelCapacityWorker) sample() {
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		length, capacity := v.Len(), v.Cap()
		observability.ChannelLength.WithLabelValues(nc.Name).Set(float64(length))
		observability.ChannelCapacity.WithLabelValues(nc.Name).Set(float64(capacity))
		if capacity > 0 && length == capacity {
			w.log.Warn("Channel full, entries are being dropped", "name", nc.Name, "capacity", capacity)
		}
	}
}
