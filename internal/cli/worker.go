package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/veritas-backend/internal/app"
	"github.com/yungbote/veritas-backend/internal/realtime/bus"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Temporal recompute worker",
	Long: `Worker polls the configured Temporal task queue and executes the per-rumor
recompute workflows started by the temporal dispatcher. It also serves
metrics when they are enabled. Stop it with SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return withApp(cmd, func(_ context.Context, a *app.App) error {
			runner, err := a.Worker()
			if err != nil {
				return err
			}
			a.Start(ctx)
			if err := runner.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			a.Log.Info("Worker shutting down")
			return nil
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow score and settlement events as JSON lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return withApp(cmd, func(_ context.Context, a *app.App) error {
			if a.Bus == nil {
				return errors.New("event bus not configured: set redis.addr")
			}
			var mu sync.Mutex
			enc := json.NewEncoder(cmd.OutOrStdout())
			err := a.Bus.StartForwarder(ctx, func(ev bus.Event) {
				mu.Lock()
				defer mu.Unlock()
				if err := enc.Encode(ev); err != nil {
					a.Log.Warn("Event write failed", "type", ev.Type, "error", err)
				}
			})
			if err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(workerCmd, eventsCmd)
}
