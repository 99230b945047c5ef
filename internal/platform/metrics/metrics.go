package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	CommunitiesCreated  prometheus.Counter
	CommunitiesDeleted  prometheus.Counter
	CommunitiesMerged   prometheus.Counter
	GuildConfigsChanged prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CommunitiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedreg_communities_created_total",
			Help: "Total number of communities created",
		}),
		CommunitiesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedreg_communities_deleted_total",
			Help: "Total number of communities deleted",
		}),
		CommunitiesMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedreg_communities_merged_total",
			Help: "Total number of community merges completed",
		}),
		GuildConfigsChanged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedreg_guild_configs_changed_total",
			Help: "Total number of guild config replacement writes",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedreg_notifications_sent_total",
			Help: "Total number of notification events emitted to the sink",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedreg_notifications_failed_total",
			Help: "Total number of notification emissions that failed",
		}),
	}
}
