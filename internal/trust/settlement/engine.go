package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/veritas-backend/internal/data/aggregates"
	"github.com/yungbote/veritas-backend/internal/data/repos"
	domainagg "github.com/yungbote/veritas-backend/internal/domain/aggregates"
	domainaudit "github.com/yungbote/veritas-backend/internal/domain/audit"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
	"github.com/yungbote/veritas-backend/internal/observability"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
	"github.com/yungbote/veritas-backend/internal/realtime/bus"
	"github.com/yungbote/veritas-backend/internal/trust"
	"github.com/yungbote/veritas-backend/internal/trust/audit"
)

var ErrRumorNotFound = rumor.ErrRumorNotFound

type Result struct {
	RumorID       uuid.UUID
	Outcome       rumor.Outcome
	TrustScore    decimal.Decimal
	EventsWritten int
	Deltas        []domainagg.AppliedDelta
	SettledAt     time.Time
}

type Engine interface {
	// Settle freezes the rumor and pays out reputation exactly once. Later calls
	// return OutcomeAlreadySettled with no error.
	Settle(ctx context.Context, rumorID uuid.UUID) (Result, error)
}

type engine struct {
	log      *logger.Logger
	agg      domainagg.SettlementAggregate
	audit    audit.Sink
	notifier *bus.Notifier
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewEngine(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg trust.Config,
	set repos.Set,
	sink audit.Sink,
	notifier *bus.Notifier,
	metrics *observability.Metrics,
) Engine {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return NewEngineWithAggregate(baseLog, aggregates.NewSettlementAggregate(aggregates.SettlementAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   baseLog,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Rumors: set.Rumors,
		Votes:  set.Votes,
		Ledger: aggregates.NewReputationLedger(set.Users, set.ReputationEvents, cfg),
		Config: cfg,
	}), sink, notifier, metrics)
}

// NewEngineWithAggregate wires an engine around a prebuilt aggregate.
func NewEngineWithAggregate(baseLog *logger.Logger, agg domainagg.SettlementAggregate, sink audit.Sink, notifier *bus.Notifier, metrics *observability.Metrics) Engine {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if sink == nil {
		sink = audit.Nop()
	}
	return &engine{
		log:      baseLog.With("service", "SettlementEngine"),
		agg:      agg,
		audit:    sink,
		notifier: notifier,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (e *engine) Settle(ctx context.Context, rumorID uuid.UUID) (Result, error) {
	ctx, span := observability.StartSpan(ctx, "settlement.Settle", attribute.String("rumor_id", rumorID.String()))
	res, err := e.agg.Settle(ctx, domainagg.SettleRumorInput{RumorID: rumorID, SettledAt: e.now()})
	observability.EndSpan(span, err)
	if err != nil {
		e.metrics.IncSettlement("error")
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			return Result{RumorID: rumorID}, fmt.Errorf("settle %s: %w", rumorID, ErrRumorNotFound)
		}
		e.log.Error("Settlement failed", "rumor_id", rumorID, "error", err)
		return Result{RumorID: rumorID}, fmt.Errorf("settle %s: %w", rumorID, err)
	}

	out := Result{
		RumorID:       res.RumorID,
		Outcome:       res.Outcome,
		TrustScore:    res.TrustScore,
		EventsWritten: res.EventsWritten,
		Deltas:        res.Deltas,
		SettledAt:     res.SettledAt,
	}
	e.metrics.IncSettlement(string(out.Outcome))
	if out.Outcome == rumor.OutcomeAlreadySettled {
		e.log.Info("Rumor already settled", "rumor_id", rumorID)
		return out, nil
	}

	deltas := make([]map[string]any, 0, len(out.Deltas))
	for _, d := range out.Deltas {
		applied, _ := d.AppliedDelta.Float64()
		e.metrics.ObserveReputationEvent(string(d.EventType), applied)
		deltas = append(deltas, map[string]any{
			"user_id":       d.UserID.String(),
			"event_type":    string(d.EventType),
			"delta":         d.Delta.StringFixed(trust.ReputationScale),
			"applied_delta": d.AppliedDelta.StringFixed(trust.ReputationScale),
			"balance_after": d.BalanceAfter.StringFixed(trust.ReputationScale),
		})
	}
	e.audit.Record(ctx, audit.Entry{
		EventType: domainaudit.EventRumorSettled,
		RumorID:   &rumorID,
		Data: map[string]any{
			"outcome":        string(out.Outcome),
			"trust_score":    out.TrustScore.StringFixed(trust.TrustScale),
			"events_written": out.EventsWritten,
			"deltas":         deltas,
			"settled_at":     out.SettledAt.UTC().Format(time.RFC3339),
		},
	})
	e.notifier.Notify(ctx, bus.Event{
		Type:          bus.EventRumorSettled,
		RumorID:       rumorID,
		TrustScore:    out.TrustScore,
		Outcome:       string(out.Outcome),
		EventsWritten: out.EventsWritten,
		At:            out.SettledAt,
	})
	e.log.Info("Rumor settled", "rumor_id", rumorID, "outcome", out.Outcome, "events_written", out.EventsWritten)
	return out, nil
}
