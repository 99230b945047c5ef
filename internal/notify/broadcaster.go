package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fedreg/internal/models"
	"fedreg/internal/platform/metrics"
)

// DefaultInterval is the pacing delay between emissions within one
// broadcast. Staggering stops every affected guild from re-fetching its
// configuration at the same instant after a mass change.
const DefaultInterval = 100 * time.Millisecond

// Notifier owns the sink plus the paced broadcast loop. Direct Emit calls
// and broadcasts share the same best-effort policy.
type Notifier struct {
	sink     Sink
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics
	wg       sync.WaitGroup
}

type Option func(n *Notifier)

// WithInterval overrides the pacing interval.
func WithInterval(interval time.Duration) Option {
	return func(n *Notifier) {
		n.interval = interval
	}
}

// WithMetrics enables emission counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

// New constructs a Notifier.
func New(sink Sink, logger *slog.Logger, opts ...Option) *Notifier {
	n := &Notifier{sink: sink, logger: logger, interval: DefaultInterval}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Emit sends one event, swallowing failures.
func (n *Notifier) Emit(ctx context.Context, event Event) {
	if err := n.sink.Emit(ctx, event); err != nil {
		n.recordFailure()
		n.logger.WarnContext(ctx, "notification emit failed",
			"kind", event.Kind,
			"error", err,
		)
		return
	}
	n.recordSent()
}

// BroadcastConfigChanges emits one guildconfig_changed event per config, in
// input order, waiting the pacing interval between emissions. The loop runs
// detached from the caller: the triggering request returns immediately.
// Once started the loop is not cancellable; cascades rely on re-runnability
// rather than rollback, and so does the broadcast.
func (n *Notifier) BroadcastConfigChanges(configs []models.GuildConfig) {
	if len(configs) == 0 {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx := context.Background()
		for i, config := range configs {
			if i > 0 {
				time.Sleep(n.interval)
			}
			n.Emit(ctx, Event{
				Kind:    KindGuildConfigChanged,
				Payload: GuildConfigPayload{Config: config.Redacted()},
			})
		}
	}()
}

// Wait blocks until every in-flight broadcast finishes. Used by graceful
// shutdown and tests.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) recordSent() {
	if n.metrics != nil {
		n.metrics.NotificationsSent.Inc()
	}
}

func (n *Notifier) recordFailure() {
	if n.metrics != nil {
		n.metrics.NotificationsFailed.Inc()
	}
}
