package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yungbote/veritas-backend/internal/app"
)

var (
	userReputation string
	historyLimit   int
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Register participants and read their reputation",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Register a participant and print their id",
	Long: `Register a participant. Without --reputation they start at the default balance.

Example:
  veritas users create alice
  veritas users create bob --reputation 80`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rep *decimal.Decimal
		if userReputation != "" {
			d, err := decimal.NewFromString(userReputation)
			if err != nil {
				return fmt.Errorf("invalid reputation %q: %w", userReputation, err)
			}
			rep = &d
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			u, err := a.Services.Users.Register(ctx, args[0], rep)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u.ID)
			return nil
		})
	},
}

var usersShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show a participant's balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("user", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			u, err := a.Services.Users.Get(ctx, id)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "user:       %s\n", u.ID)
			fmt.Fprintf(w, "username:   %s\n", u.Username)
			fmt.Fprintf(w, "reputation: %s\n", u.Reputation.StringFixed(2))
			return nil
		})
	},
}

var usersReputationCmd = &cobra.Command{
	Use:   "reputation <user-id>",
	Short: "List a participant's reputation events, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("user", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			events, err := a.Services.Users.ReputationHistory(ctx, id, historyLimit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tRUMOR\tEVENT\tDELTA\tAPPLIED\tBALANCE")
			for _, e := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"), e.RumorID, e.EventType,
					e.Delta.StringFixed(2), e.AppliedDelta.StringFixed(2), e.BalanceAfter.StringFixed(2))
			}
			return tw.Flush()
		})
	},
}

func init() {
	usersCreateCmd.Flags().StringVar(&userReputation, "reputation", "", "starting reputation (default balance when empty)")
	usersReputationCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum number of events")

	usersCmd.AddCommand(usersCreateCmd, usersShowCmd, usersReputationCmd)
	rootCmd.AddCommand(usersCmd)
}
