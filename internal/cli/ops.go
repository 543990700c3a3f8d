package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/veritas-backend/internal/app"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/services"
	"github.com/yungbote/veritas-backend/internal/trust/recompute"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and scoring indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.DB.AutoMigrateAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		})
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle <rumor-id>",
	Short: "Freeze a rumor and distribute reputation",
	Long: `Settle classifies the rumor's current trust score, freezes it and writes
one reputation event per voter plus one for the author. Settling an already
frozen rumor reports ALREADY_SETTLED and changes nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("rumor", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Settlement.Settle(ctx, id)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "rumor:        %s\n", res.RumorID)
			fmt.Fprintf(w, "outcome:      %s\n", res.Outcome)
			fmt.Fprintf(w, "trust_score:  %s\n", res.TrustScore.StringFixed(5))
			fmt.Fprintf(w, "events:       %d\n", res.EventsWritten)
			for _, d := range res.Deltas {
				fmt.Fprintf(w, "  %s  %-22s %8s -> %s\n", d.UserID, d.EventType, d.AppliedDelta.StringFixed(2), d.BalanceAfter.StringFixed(2))
			}
			return nil
		})
	},
}

var recomputeLimit int

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rescore rumors and proofs on demand",
}

var recomputeRumorCmd = &cobra.Command{
	Use:   "rumor <rumor-id>",
	Short: "Rescore one rumor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("rumor", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Orchestrator.Trigger(ctx, recompute.Trigger{RumorID: id, Reason: recompute.ReasonManual}); err != nil {
				return err
			}
			return printRumor(ctx, cmd.OutOrStdout(), a, id)
		})
	},
}

var recomputeProofCmd = &cobra.Command{
	Use:   "proof <proof-id>",
	Short: "Rescore one proof and then its rumor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("proof", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			p, err := a.Repos.Proofs.GetByID(dbctx.Context{Ctx: ctx}, id)
			if err != nil {
				return err
			}
			if p == nil {
				return services.ErrProofNotFound
			}
			if err := a.Orchestrator.Trigger(ctx, recompute.Trigger{RumorID: p.RumorID, ProofID: &id, Reason: recompute.ReasonManual}); err != nil {
				return err
			}
			return printRumor(ctx, cmd.OutOrStdout(), a, p.RumorID)
		})
	},
}

var recomputeAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Rescore every active rumor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			ids, err := a.Services.Rumors.ActiveIDs(ctx, recomputeLimit)
			if err != nil {
				return err
			}
			n, err := a.Orchestrator.RecomputeMany(ctx, ids)
			fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d/%d active rumors\n", n, len(ids))
			return err
		})
	},
}

func printRumor(ctx context.Context, w io.Writer, a *app.App, id uuid.UUID) error {
	r, err := a.Services.Rumors.Get(ctx, id)
	if err != nil {
		return err
	}
	class := "-"
	if r.Classification != nil {
		class = string(*r.Classification)
	}
	fmt.Fprintf(w, "rumor:          %s\n", r.ID)
	fmt.Fprintf(w, "trust_score:    %s\n", r.TrustScore.StringFixed(5))
	fmt.Fprintf(w, "vote_score:     %s\n", r.VoteScore.StringFixed(4))
	fmt.Fprintf(w, "proof_score:    %s\n", r.ProofScore.StringFixed(4))
	fmt.Fprintf(w, "momentum_score: %s\n", r.MomentumScore.StringFixed(4))
	fmt.Fprintf(w, "classification: %s\n", class)
	fmt.Fprintf(w, "frozen:         %t\n", r.IsFrozen)
	return nil
}

func init() {
	recomputeAllCmd.Flags().IntVar(&recomputeLimit, "limit", 0, "maximum number of rumors to rescore (0 for all)")
	recomputeCmd.AddCommand(recomputeRumorCmd, recomputeProofCmd, recomputeAllCmd)
	rootCmd.AddCommand(migrateCmd, settleCmd, recomputeCmd)
}
