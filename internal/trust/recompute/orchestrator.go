package recompute

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/veritas-backend/internal/observability"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
	"github.com/yungbote/veritas-backend/internal/realtime/bus"
	"github.com/yungbote/veritas-backend/internal/trust/scoring"
)

const (
	defaultFrozenTTL   = time.Hour
	defaultParallelism = 4
)

var ErrInvalidTrigger = errors.New("recompute: trigger requires rumor_id")

type Options struct {
	Dispatcher TaskDispatcher
	Notifier   *bus.Notifier
	Metrics    *observability.Metrics
	// FrozenTTL bounds how long a frozen rumor is remembered. Settlement is
	// permanent, so the TTL only caps memory.
	FrozenTTL   time.Duration
	Parallelism int
}

// pending is the work accumulated for one rumor while it is running.
type pending struct {
	proofs map[uuid.UUID]struct{}
	rumor  bool
}

func (p *pending) add(t Trigger) {
	p.rumor = true
	if t.ProofID != nil {
		if p.proofs == nil {
			p.proofs = map[uuid.UUID]struct{}{}
		}
		p.proofs[*t.ProofID] = struct{}{}
	}
}

// Orchestrator serializes recompute per rumor. A trigger for a rumor that is
// already running is folded into that rumor's pending set and picked up by the
// running caller before it releases the slot.
type Orchestrator struct {
	log     *logger.Logger
	proofs  scoring.ProofEngine
	rumors  scoring.RumorEngine
	notify  *bus.Notifier
	metrics *observability.Metrics

	frozen      *gocache.Cache
	parallelism int

	mu         sync.Mutex
	slots      map[uuid.UUID]*pending
	dispatcher TaskDispatcher
}

func NewOrchestrator(baseLog *logger.Logger, proofs scoring.ProofEngine, rumors scoring.RumorEngine, opts Options) *Orchestrator {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	ttl := opts.FrozenTTL
	if ttl <= 0 {
		ttl = defaultFrozenTTL
	}
	par := opts.Parallelism
	if par < 1 {
		par = defaultParallelism
	}
	return &Orchestrator{
		log:         baseLog.With("service", "RecomputeOrchestrator"),
		proofs:      proofs,
		rumors:      rumors,
		notify:      opts.Notifier,
		metrics:     opts.Metrics,
		frozen:      gocache.New(ttl, ttl*2),
		parallelism: par,
		slots:       map[uuid.UUID]*pending{},
		dispatcher:  opts.Dispatcher,
	}
}

// SetDispatcher installs d. Dispatchers that call back into Trigger are built
// after the orchestrator, hence the setter.
func (o *Orchestrator) SetDispatcher(d TaskDispatcher) {
	o.mu.Lock()
	o.dispatcher = d
	o.mu.Unlock()
}

func (o *Orchestrator) isFrozen(rumorID uuid.UUID) bool {
	_, ok := o.frozen.Get(rumorID.String())
	return ok
}

// Trigger runs the recompute synchronously, or coalesces into a run already in
// progress for the same rumor and returns immediately.
func (o *Orchestrator) Trigger(ctx context.Context, t Trigger) error {
	if t.RumorID == uuid.Nil {
		return ErrInvalidTrigger
	}
	if o.isFrozen(t.RumorID) {
		o.metrics.ObserveRecompute(t.kind(), "cached_frozen", 0)
		return nil
	}

	o.mu.Lock()
	if p, running := o.slots[t.RumorID]; running {
		p.add(t)
		o.mu.Unlock()
		o.metrics.IncRecomputeCoalesced()
		o.log.Debug("Recompute coalesced", "rumor_id", t.RumorID, "reason", t.Reason)
		return nil
	}
	first := &pending{}
	first.add(t)
	o.slots[t.RumorID] = &pending{}
	o.mu.Unlock()

	return o.drain(ctx, t.RumorID, first)
}

// drain owns the slot for rumorID until no pending work remains.
func (o *Orchestrator) drain(ctx context.Context, rumorID uuid.UUID, work *pending) error {
	var errs []error
	for {
		if err := o.run(ctx, rumorID, work); err != nil {
			errs = append(errs, err)
		}

		o.mu.Lock()
		next := o.slots[rumorID]
		if next == nil || !next.rumor || o.isFrozen(rumorID) {
			delete(o.slots, rumorID)
			o.mu.Unlock()
			return errors.Join(errs...)
		}
		o.slots[rumorID] = &pending{}
		o.mu.Unlock()
		work = next
	}
}

func (o *Orchestrator) run(ctx context.Context, rumorID uuid.UUID, work *pending) error {
	var errs []error
	for proofID := range work.proofs {
		res, err := o.proofs.RecomputeProof(ctx, proofID)
		if err != nil {
			o.log.Warn("Proof recompute failed", "proof_id", proofID, "rumor_id", rumorID, "error", err)
			errs = append(errs, fmt.Errorf("recompute proof %s: %w", proofID, err))
			continue
		}
		if res.Updated {
			pid := proofID
			o.notify.Notify(ctx, bus.Event{
				Type:       bus.EventProofScored,
				RumorID:    res.RumorID,
				ProofID:    &pid,
				TrustScore: res.TrustScore,
			})
		}
	}

	res, err := o.rumors.RecomputeRumor(ctx, rumorID)
	if err != nil {
		o.log.Warn("Rumor recompute failed", "rumor_id", rumorID, "error", err)
		return errors.Join(append(errs, fmt.Errorf("recompute rumor %s: %w", rumorID, err))...)
	}
	if res.Frozen {
		o.frozen.SetDefault(rumorID.String(), true)
	}
	if res.Updated {
		o.notify.Notify(ctx, bus.Event{
			Type:           bus.EventRumorScored,
			RumorID:        rumorID,
			TrustScore:     res.Scores.TrustScore,
			Classification: string(res.Scores.Classification),
		})
	}
	return errors.Join(errs...)
}

// Dispatch hands t to the configured dispatcher and falls back to a
// synchronous Trigger when there is none or it refuses the work.
func (o *Orchestrator) Dispatch(ctx context.Context, t Trigger) error {
	o.mu.Lock()
	d := o.dispatcher
	o.mu.Unlock()

	if d == nil {
		o.metrics.IncDispatchFallback("unconfigured")
		return o.Trigger(ctx, t)
	}
	name := dispatcherName(d)
	if err := d.Enqueue(ctx, t); err != nil {
		o.metrics.IncDispatch(name, "failed")
		o.metrics.IncDispatchFallback("enqueue_failed")
		o.log.Warn("Recompute dispatch failed; running inline", "dispatcher", name, "rumor_id", t.RumorID, "reason", t.Reason, "error", err)
		return o.Trigger(ctx, t)
	}
	o.metrics.IncDispatch(name, "enqueued")
	return nil
}

// RecomputeMany triggers every rumor in ids with bounded parallelism. It keeps
// going past individual failures and returns them joined.
func (o *Orchestrator) RecomputeMany(ctx context.Context, ids []uuid.UUID) (int, error) {
	var (
		mu   sync.Mutex
		errs []error
		done int
	)
	var g errgroup.Group
	g.SetLimit(o.parallelism)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := o.Trigger(ctx, Trigger{RumorID: id, Reason: ReasonBackfill})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			done++
			return nil
		})
	}
	// Failures are collected in errs, so the group itself never reports one.
	g.Wait()
	return done, errors.Join(errs...)
}
