package app

import (
	"context"
	"fmt"
	"time"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/veritas-backend/internal/data/db"
	"github.com/yungbote/veritas-backend/internal/data/repos"
	"github.com/yungbote/veritas-backend/internal/observability"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
	"github.com/yungbote/veritas-backend/internal/realtime/bus"
	"github.com/yungbote/veritas-backend/internal/services"
	"github.com/yungbote/veritas-backend/internal/temporalx"
	"github.com/yungbote/veritas-backend/internal/temporalx/rumorrecompute"
	"github.com/yungbote/veritas-backend/internal/temporalx/temporalworker"
	"github.com/yungbote/veritas-backend/internal/trust/audit"
	"github.com/yungbote/veritas-backend/internal/trust/recompute"
	"github.com/yungbote/veritas-backend/internal/trust/scoring"
	"github.com/yungbote/veritas-backend/internal/trust/settlement"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

type Services struct {
	Votes      services.VoteService
	Rumors     services.RumorService
	Users      services.UserService
	Moderation services.ModerationService
}

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       db.Database
	Repos    repos.Set
	Metrics  *observability.Metrics
	Bus      bus.Bus
	Notifier *bus.Notifier

	Scoring      scoring.Engine
	Settlement   settlement.Engine
	Orchestrator *recompute.Orchestrator
	Services     Services
	Temporal     temporalsdkclient.Client

	local        *recompute.LocalDispatcher
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New opens every backing store named by cfg and wires the engines over them.
// Nothing runs in the background until Start.
func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Log: log, Cfg: cfg}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Cfg
	a.otelShutdown = observability.InitOTel(ctx, a.Log, observability.OtelConfig{
		ServiceName: "veritas",
		Environment: cfg.Environment,
		Version:     Version,
	})
	a.Metrics = observability.Init(a.Log)
	if a.Metrics == nil && cfg.Metrics.Enabled {
		a.Metrics = observability.New()
	}

	database, err := db.Open(cfg.Database, a.Log)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	a.DB = database
	a.Repos = repos.NewSet(database.DB(), a.Log)

	if cfg.Redis.Addr != "" {
		b, err := bus.NewRedisBus(a.Log, cfg.Redis)
		if err != nil {
			return fmt.Errorf("init event bus: %w", err)
		}
		a.Bus = b
	} else {
		a.Log.Info("Redis not configured; score events are dropped")
	}
	a.Notifier = bus.NewNotifier(a.Bus, a.Log, a.Metrics)

	sink := audit.NewSink(a.Repos.AuditLogs, a.Log, a.Metrics)
	a.Scoring = scoring.NewEngine(database.DB(), a.Log, cfg.Scoring, a.Repos, sink, a.Metrics)
	a.Settlement = settlement.NewEngine(database.DB(), a.Log, cfg.Scoring, a.Repos, sink, a.Notifier, a.Metrics)
	a.Orchestrator = recompute.NewOrchestrator(a.Log, a.Scoring, a.Scoring, recompute.Options{
		Notifier:    a.Notifier,
		Metrics:     a.Metrics,
		FrozenTTL:   cfg.Recompute.FrozenTTL,
		Parallelism: cfg.Recompute.Parallelism,
	})

	dispatcher, err := a.wireDispatcher()
	if err != nil {
		return err
	}
	a.Services = Services{
		Votes:      services.NewVoteService(database.DB(), a.Log, cfg.Scoring, a.Repos, dispatcher, a.Metrics),
		Rumors:     services.NewRumorService(a.Log, a.Repos),
		Users:      services.NewUserService(a.Log, cfg.Scoring, a.Repos),
		Moderation: services.NewModerationService(database.DB(), a.Log, a.Repos, dispatcher),
	}
	return nil
}

// triggerFunc runs recomputes on the caller's goroutine.
type triggerFunc func(ctx context.Context, t recompute.Trigger) error

func (f triggerFunc) Dispatch(ctx context.Context, t recompute.Trigger) error { return f(ctx, t) }

func (a *App) wireDispatcher() (services.RecomputeDispatcher, error) {
	switch a.Cfg.Recompute.Dispatcher {
	case DispatchLocal:
		a.local = recompute.NewLocalDispatcher(a.Log, a.Orchestrator.Trigger, a.Cfg.Recompute.Workers, a.Cfg.Recompute.QueueSize)
		a.Orchestrator.SetDispatcher(a.local)
		return a.Orchestrator, nil
	case DispatchTemporal:
		tc, err := a.temporalClient()
		if err != nil {
			return nil, err
		}
		d, err := rumorrecompute.NewDispatcher(a.Log, tc, a.Cfg.Temporal.TaskQueue)
		if err != nil {
			return nil, fmt.Errorf("init temporal dispatcher: %w", err)
		}
		a.Orchestrator.SetDispatcher(d)
		return a.Orchestrator, nil
	default:
		return triggerFunc(a.Orchestrator.Trigger), nil
	}
}

func (a *App) temporalClient() (temporalsdkclient.Client, error) {
	if a.Temporal != nil {
		return a.Temporal, nil
	}
	tc, err := temporalx.NewClient(a.Log, a.Cfg.Temporal)
	if err != nil {
		return nil, fmt.Errorf("init temporal client: %w", err)
	}
	if tc == nil {
		return nil, fmt.Errorf("temporal address not configured")
	}
	a.Temporal = tc
	return tc, nil
}

// Worker builds a Temporal worker whose activities run on this app's engines.
func (a *App) Worker() (*temporalworker.Runner, error) {
	tc, err := a.temporalClient()
	if err != nil {
		return nil, err
	}
	return temporalworker.NewRunner(a.Log, tc, a.Cfg.Temporal, &rumorrecompute.Activities{
		Log:     a.Log,
		Proofs:  a.Scoring,
		Rumors:  a.Scoring,
		Notify:  a.Notifier,
		Metrics: a.Metrics,
	})
}

// Start launches background loops: the local dispatch pool and, when metrics
// are on, the exporter and collectors.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.local != nil {
		a.local.Start(ctx)
	}
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB.DB())
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.Redis.Addr)
		a.Metrics.StartRumorStateCollector(ctx, a.Log, a.DB.DB())
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.local != nil {
		a.local.Close()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Temporal != nil {
		a.Temporal.Close()
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("Event bus close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	a.Log.Sync()
}
