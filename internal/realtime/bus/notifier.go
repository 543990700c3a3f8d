package bus

import (
	"context"
	"time"

	"github.com/yungbote/veritas-backend/internal/observability"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
)

// Notifier publishes without ever failing the caller. A nil bus drops events.
type Notifier struct {
	bus     Bus
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewNotifier(b Bus, baseLog *logger.Logger, metrics *observability.Metrics) *Notifier {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Notifier{bus: b, log: baseLog.With("service", "EventNotifier"), metrics: metrics}
}

func (n *Notifier) Notify(ctx context.Context, ev Event) {
	if n == nil || n.bus == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := n.bus.Publish(ctx, ev); err != nil {
		n.metrics.IncBusPublish(string(ev.Type), "failed")
		n.log.Warn("Event publish failed", "type", ev.Type, "rumor_id", ev.RumorID, "error", err)
		return
	}
	n.metrics.IncBusPublish(string(ev.Type), "published")
}
