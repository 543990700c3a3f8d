package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
)

type passthroughRunner struct{}

func (passthroughRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

func TestFailingTxRunner_PassesThroughWhenUnset(t *testing.T) {
	r := &FailingTxRunner{Inner: passthroughRunner{}}
	called := false
	if err := r.InTx(context.Background(), func(_ dbctx.Context) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !called || r.Calls != 1 || r.BodyRuns != 1 {
		t.Fatalf("unexpected state called=%v calls=%d runs=%d", called, r.Calls, r.BodyRuns)
	}
}

func TestFailingTxRunner_FailsAfterBody(t *testing.T) {
	injected := errors.New("commit refused")
	r := &FailingTxRunner{Inner: passthroughRunner{}, FailAfter: injected}
	called := false
	err := r.InTx(context.Background(), func(_ dbctx.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, injected) {
		t.Fatalf("expected injected err, got %v", err)
	}
	if !called {
		t.Fatalf("expected body to run before failing")
	}
}

func TestFailingTxRunner_BodyErrorWins(t *testing.T) {
	bodyErr := errors.New("boom")
	r := &FailingTxRunner{Inner: passthroughRunner{}, FailAfter: errors.New("unused")}
	if err := r.InTx(context.Background(), func(_ dbctx.Context) error { return bodyErr }); !errors.Is(err, bodyErr) {
		t.Fatalf("expected body err, got %v", err)
	}
}
