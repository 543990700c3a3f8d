package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/veritas-backend/internal/app"
)

var moderateVoter string

var moderateCmd = &cobra.Command{
	Use:   "moderate",
	Short: "Remove rumors, proofs and votes from open rumors",
	Long: `Moderation soft-deletes content. Settled rumors cannot be moderated.
Removing a vote or proof rescores the rumor; a removed vote cannot be recast.`,
}

var moderateRumorCmd = &cobra.Command{
	Use:   "rumor <rumor-id>",
	Short: "Remove a rumor from the feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("rumor", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Services.Moderation.RemoveRumor(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed rumor %s\n", id)
			return nil
		})
	},
}

var moderateVoteCmd = &cobra.Command{
	Use:   "vote <rumor-id> --voter <user-id>",
	Short: "Remove one voter's vote on a rumor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rumorID, err := parseID("rumor", args[0])
		if err != nil {
			return err
		}
		voter, err := parseID("voter", moderateVoter)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Services.Moderation.RemoveVote(ctx, rumorID, voter); err != nil {
				return err
			}
			return printRumor(ctx, cmd.OutOrStdout(), a, rumorID)
		})
	},
}

var moderateProofCmd = &cobra.Command{
	Use:   "proof <proof-id>",
	Short: "Remove a proof",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("proof", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Services.Moderation.RemoveProof(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed proof %s\n", id)
			return nil
		})
	},
}

var moderateProofVoteCmd = &cobra.Command{
	Use:   "proof-vote <proof-id> --voter <user-id>",
	Short: "Remove one voter's vote on a proof",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proofID, err := parseID("proof", args[0])
		if err != nil {
			return err
		}
		voter, err := parseID("voter", moderateVoter)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Services.Moderation.RemoveProofVote(ctx, proofID, voter); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed proof vote by %s\n", voter)
			return nil
		})
	},
}

func init() {
	moderateVoteCmd.Flags().StringVar(&moderateVoter, "voter", "", "voter user id")
	moderateProofVoteCmd.Flags().StringVar(&moderateVoter, "voter", "", "voter user id")

	moderateCmd.AddCommand(moderateRumorCmd, moderateVoteCmd, moderateProofCmd, moderateProofVoteCmd)
	rootCmd.AddCommand(moderateCmd)
}
