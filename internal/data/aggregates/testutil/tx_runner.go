package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/veritas-backend/internal/data/aggregates"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
)

// FailingTxRunner wraps a real runner and fails the transaction after the body
// succeeds, so tests can assert that every write of the body rolled back.
type FailingTxRunner struct {
	Inner aggregates.TxRunner

	mu        sync.Mutex
	FailAfter error
	Calls     int
	BodyRuns  int
}

var _ aggregates.TxRunner = (*FailingTxRunner)(nil)

func (r *FailingTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.Calls++
	failAfter := r.FailAfter
	r.mu.Unlock()

	return r.Inner.InTx(ctx, func(dbc dbctx.Context) error {
		r.mu.Lock()
		r.BodyRuns++
		r.mu.Unlock()
		if fn != nil {
			if err := fn(dbc); err != nil {
				return err
			}
		}
		return failAfter
	})
}
