package sink

import (
	"context"
	"syncbridge/domain"
	"syncbridge/observability"
)

// MetricsSink counts broadcast lines by kind.
type MetricsSink struct{}

func NewMetricsSink() MetricsSink {
	return MetricsSink{}
}

func (MetricsSink) Name() string { return "metrics" }

func (MetricsSink) Consume(_ context.Context, e domain.Entry) error {
	observability.LinesBroadcast.WithLabelValues(string(e.Kind)).Inc()
	return nil
}
