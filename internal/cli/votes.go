package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/veritas-backend/internal/app"
)

var (
	voterID   string
	posterID  string
	proofFile string
)

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast votes on rumors and proofs",
}

var voteRumorCmd = &cobra.Command{
	Use:   "rumor <rumor-id> <verify|uncertain|dispute>",
	Short: "Cast or revise a vote on a rumor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rumorID, err := parseID("rumor", args[0])
		if err != nil {
			return err
		}
		voter, err := parseID("voter", voterID)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Services.Votes.CastVote(ctx, voter, rumorID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vote %s weight=%s revised=%t changes=%d\n", res.VoteID, res.Weight.StringFixed(4), res.Revised, res.ChangeCount)
			return printRumor(ctx, cmd.OutOrStdout(), a, rumorID)
		})
	},
}

var voteProofCmd = &cobra.Command{
	Use:   "proof <proof-id> <supports|uncertain|refutes>",
	Short: "Cast or revise a vote on a proof",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		proofID, err := parseID("proof", args[0])
		if err != nil {
			return err
		}
		voter, err := parseID("voter", voterID)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Services.Votes.CastProofVote(ctx, voter, proofID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "proof vote %s weight=%s revised=%t\n", res.ProofVoteID, res.Weight.StringFixed(4), res.Revised)
			return printRumor(ctx, cmd.OutOrStdout(), a, res.RumorID)
		})
	},
}

var proofsCmd = &cobra.Command{
	Use:   "proofs",
	Short: "Attach and list proofs",
}

var proofsSubmitCmd = &cobra.Command{
	Use:   "submit <rumor-id> <type> [content]",
	Short: "Attach a proof (text, photo, video, link or document) to a rumor",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rumorID, err := parseID("rumor", args[0])
		if err != nil {
			return err
		}
		poster := uuid.Nil
		if posterID != "" {
			if poster, err = parseID("poster", posterID); err != nil {
				return err
			}
		}
		content := ""
		if len(args) == 3 {
			content = args[2]
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			p, err := a.Services.Votes.SubmitProof(ctx, poster, rumorID, args[1], content, proofFile)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		})
	},
}

var proofsListCmd = &cobra.Command{
	Use:   "list <rumor-id>",
	Short: "List a rumor's proofs, most trusted first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rumorID, err := parseID("rumor", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			proofs, err := a.Services.Rumors.Proofs(ctx, rumorID)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tTRUST\tVOTES\tMATURE\tCONTENT")
			for _, p := range proofs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\t%s\n", p.ID, p.ProofType, p.TrustScore.StringFixed(4), p.VoteCount, p.IsMature, truncate(p.Content, 40))
			}
			return tw.Flush()
		})
	},
}

func init() {
	voteCmd.PersistentFlags().StringVar(&voterID, "voter", "", "voter user id")
	_ = voteCmd.MarkPersistentFlagRequired("voter")
	voteCmd.AddCommand(voteRumorCmd, voteProofCmd)

	proofsSubmitCmd.Flags().StringVar(&posterID, "poster", "", "poster user id")
	proofsSubmitCmd.Flags().StringVar(&proofFile, "file-url", "", "uploaded file location")
	proofsCmd.AddCommand(proofsSubmitCmd, proofsListCmd)

	rootCmd.AddCommand(voteCmd, proofsCmd)
}
