package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LinesBroadcast counts history entries by kind (chat|system|typing|read).
	LinesBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncbridge_lines_broadcast_total",
			Help: "Total number of lines appended to the history and broadcast",
		},
		[]string{"kind"},
	)

	// JournalWrites counts journal writes by result (success|failure).
	JournalWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncbridge_journal_writes_total",
			Help: "Total number of history entries written to the journal",
		},
		[]string{"result"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "syncbridge_active_sessions",
			Help: "Number of registered identities",
		},
	)

	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "syncbridge_live_connections",
			Help: "Number of open connections, identified or not",
		},
	)

	HistoryLines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "syncbridge_history_lines",
			Help: "Number of lines held by the history log",
		},
	)

	ProcessRSSBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "syncbridge_process_rss_bytes",
			Help: "Resident memory of the server process",
		},
	)

	ProcessCPUPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "syncbridge_process_cpu_percent",
			Help: "CPU usage of the server process",
		},
	)

	// ChannelLength samples how many entries wait in an internal channel, by name.
	ChannelLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "syncbridge_channel_length",
			Help: "Number of buffered elements in an internal channel",
		},
		[]string{"channel"},
	)

	ChannelCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "syncbridge_channel_capacity",
			Help: "Buffer size of an internal channel",
		},
		[]string{"channel"},
	)

	// WorkerRestarts counts supervised worker restarts after an error or a panic.
	WorkerRestarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncbridge_worker_restarts_total",
			Help: "Total number of background worker restarts",
		},
		[]string{"worker"},
	)
)
