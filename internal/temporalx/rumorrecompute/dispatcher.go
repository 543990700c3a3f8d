package rumorrecompute

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/veritas-backend/internal/platform/logger"
	"github.com/yungbote/veritas-backend/internal/trust/recompute"
)

// Dispatcher enqueues triggers with signal-with-start: the trigger joins the
// rumor's running workflow, or starts one when none is running.
type Dispatcher struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	taskQueue string
}

func NewDispatcher(log *logger.Logger, tc temporalsdkclient.Client, taskQueue string) (*Dispatcher, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if taskQueue == "" {
		return nil, fmt.Errorf("temporal task queue is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{log: log.With("service", "TemporalDispatcher"), tc: tc, taskQueue: taskQueue}, nil
}

func (d *Dispatcher) Name() string { return "temporal" }

func (d *Dispatcher) Enqueue(ctx context.Context, t recompute.Trigger) error {
	if t.RumorID == uuid.Nil {
		return recompute.ErrInvalidTrigger
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:        WorkflowID(t.RumorID),
		TaskQueue: d.taskQueue,
	}
	run, err := d.tc.SignalWithStartWorkflow(ctx, opts.ID, SignalTrigger, t, opts, WorkflowName, BatchFrom(t))
	if err != nil {
		return fmt.Errorf("signal-with-start %s: %w", opts.ID, err)
	}
	d.log.Debug("Recompute dispatched", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "reason", t.Reason)
	return nil
}
