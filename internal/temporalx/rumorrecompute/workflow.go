package rumorrecompute

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/veritas-backend/internal/trust/recompute"
)

const (
	// quietWindow is how long a finished round waits for more triggers before
	// the workflow completes.
	quietWindow         = 2 * time.Second
	// settleWindow lets triggers that arrive together land in the same round.
	settleWindow        = 250 * time.Millisecond
	continueRoundLimit  = 200
	continueHistorySize = 10000
)

func Workflow(ctx workflow.Context, first Batch) error {
	if first.RumorID == uuid.Nil {
		return fmt.Errorf("rumorrecompute: missing rumor_id")
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	})
	log := workflow.GetLogger(ctx)
	triggers := workflow.GetSignalChannel(ctx, SignalTrigger)

	batch := first
	for round := 1; ; round++ {
		drainSignals(ctx, triggers, &batch)

		for _, proofID := range batch.ProofIDs {
			var po ProofOutcome
			if err := workflow.ExecuteActivity(ctx, ActivityRecomputeProof, proofID).Get(ctx, &po); err != nil {
				// The rumor still rescores against the proof scores already stored.
				log.Warn("Proof recompute failed", "rumor_id", batch.RumorID.String(), "proof_id", proofID.String(), "error", err)
			}
		}
		var ro RumorOutcome
		if err := workflow.ExecuteActivity(ctx, ActivityRecomputeRumor, batch.RumorID).Get(ctx, &ro); err != nil {
			return err
		}
		if ro.Frozen {
			log.Info("Rumor frozen; recompute loop done", "rumor_id", batch.RumorID.String())
			return nil
		}

		batch = Batch{RumorID: first.RumorID}
		if !awaitTrigger(ctx, triggers, &batch, quietWindow) {
			return nil
		}
		if err := workflow.Sleep(ctx, settleWindow); err != nil {
			return err
		}
		if shouldContinueAsNew(ctx, round) {
			drainSignals(ctx, triggers, &batch)
			return workflow.NewContinueAsNewError(ctx, Workflow, batch)
		}
	}
}

func drainSignals(ctx workflow.Context, ch workflow.ReceiveChannel, b *Batch) {
	for {
		var t recompute.Trigger
		if !ch.ReceiveAsync(&t) {
			return
		}
		b.Add(t)
	}
}

// awaitTrigger blocks until a trigger arrives or the window elapses.
func awaitTrigger(ctx workflow.Context, ch workflow.ReceiveChannel, b *Batch, window time.Duration) bool {
	got := false
	timerCtx, cancel := workflow.WithCancel(ctx)
	defer cancel()
	sel := workflow.NewSelector(ctx)
	sel.AddReceive(ch, func(c workflow.ReceiveChannel, more bool) {
		var t recompute.Trigger
		c.Receive(ctx, &t)
		b.Add(t)
		got = true
	})
	sel.AddFuture(workflow.NewTimer(timerCtx, window), func(workflow.Future) {})
	sel.Select(ctx)
	return got
}

func shouldContinueAsNew(ctx workflow.Context, round int) bool {
	if round >= continueRoundLimit {
		return true
	}
	info := workflow.GetInfo(ctx)
	return info != nil && info.GetCurrentHistoryLength() >= continueHistorySize
}
