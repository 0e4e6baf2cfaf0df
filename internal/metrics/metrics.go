package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// 数据库连接指标
	// ============================================
	DBConnectionPoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_indexer_db_connection_pool_size",
		Help: "Database connection pool size",
	})

	DBConnectionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_indexer_db_connection_active",
		Help: "Number of active database connections",
	})

	DBConnectionIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_indexer_db_connection_idle",
		Help: "Number of idle database connections",
	})

	DBConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_indexer_db_connection_status",
		Help: "Database connection status (1=healthy, 0=unhealthy)",
	})

	// ============================================
	// NATS 连接指标
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_indexer_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_indexer_nats_messages_published_total",
			Help: "Total number of run summaries published to NATS",
		},
		[]string{"subject", "status"},
	)

	// ============================================
	// 事件解码指标
	// ============================================
	EventsIncluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_indexer_events_included_total",
			Help: "Events or instructions decoded and stored",
		},
		[]string{"bridge", "event"},
	)

	EventsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_indexer_events_skipped_total",
			Help: "Events dropped as duplicates, excluded chains or foreign protocols",
		},
		[]string{"bridge", "event", "reason"},
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_indexer_events_failed_total",
			Help: "Events that failed to decode or store",
		},
		[]string{"bridge", "event"},
	)

	ProcessingErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_indexer_processing_errors_total",
			Help: "Extraction steps that failed and were skipped (log ranges, block times, transaction metadata)",
		},
		[]string{"bridge", "blockchain", "stage"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_indexer_extraction_duration_seconds",
			Help:    "Duration of one extraction run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"bridge", "chain"},
	)

	// ============================================
	// 后处理指标
	// ============================================
	EnrichmentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_indexer_enrichment_outcomes_total",
			Help: "Middle-info enrichment outcomes by entry point",
		},
		[]string{"selector", "outcome"},
	)

	// ============================================
	// 跨链交易指标
	// ============================================
	CctxGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_indexer_cctx_generated_total",
			Help: "Cross-chain transactions written by generation runs",
		},
		[]string{"bridge"},
	)

	CctxRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_indexer_cctx_rows",
			Help: "Rows currently in the bridge's cctx table",
		},
		[]string{"bridge"},
	)
)
