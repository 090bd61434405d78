package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubhub_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// StatusChanges counts editorial decisions by resulting status.
	StatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubhub_publication_status_changes_total",
		Help: "Total number of publication status changes by new status",
	}, []string{"status"})

	// PublicationsCreated counts accepted submissions.
	PublicationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pubhub_publications_created_total",
		Help: "Total number of publications created",
	})

	// NotificationsEmitted counts notifications written by fan-out, by audience.
	NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubhub_notifications_emitted_total",
		Help: "Total number of notifications created by status changes",
	}, []string{"audience"})

	// NotificationPublishFailures counts realtime publishes that did not reach Redis.
	NotificationPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pubhub_notification_publish_failures_total",
		Help: "Total number of realtime notification publishes that failed",
	})

	// Reactions counts accepted and duplicate reactions by action.
	Reactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubhub_reactions_total",
		Help: "Total number of reactions by action and outcome",
	}, []string{"action", "outcome"})

	// ViewsRecorded counts first-time views, i.e. counter increments.
	ViewsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pubhub_views_recorded_total",
		Help: "Total number of distinct publication views recorded",
	})

	// WebSocketConnectionsTotal is the gauge of active notification streams.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pubhub_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client send buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubhub_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)
