package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/veritas-backend/internal/app"
	"github.com/yungbote/veritas-backend/internal/data/repos/rumors"
	"github.com/yungbote/veritas-backend/internal/services"
)

var (
	feedFilter string
	feedSort   string
	feedLimit  int
	feedOffset int

	submitAuthor       string
	submitEvidenceType string
	submitEvidenceURL  string

	auditLimit int
)

var rumorsCmd = &cobra.Command{
	Use:   "rumors",
	Short: "Browse and submit rumors",
}

var rumorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rumors with their scores",
	Long: `List rumors from the feed.

Example:
  veritas rumors list --filter active --sort trending
  veritas rumors list --filter frozen --sort trusted --limit 50`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := rumors.FeedFilter(strings.ToLower(feedFilter))
		switch filter {
		case rumors.FeedAll, rumors.FeedActive, rumors.FeedFrozen:
		default:
			return fmt.Errorf("unknown filter %q (want all, active or frozen)", feedFilter)
		}
		sort := rumors.FeedSort(strings.ToLower(feedSort))
		switch sort {
		case rumors.SortLatest, rumors.SortTrending, rumors.SortTrusted:
		default:
			return fmt.Errorf("unknown sort %q (want latest, trending or trusted)", feedSort)
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			items, err := a.Services.Rumors.List(ctx, rumors.FeedQuery{Filter: filter, Sort: sort, Limit: feedLimit, Offset: feedOffset})
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTRUST\tVOTES\tPROOFS\tSTATE\tCONTENT")
			for _, it := range items {
				state := "active"
				if it.IsFrozen && it.Outcome != nil {
					state = string(*it.Outcome)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", it.ID, it.TrustScore.StringFixed(5), it.VoteCount, it.ProofCount, state, truncate(it.Content, 48))
			}
			return tw.Flush()
		})
	},
}

var rumorsShowCmd = &cobra.Command{
	Use:   "show <rumor-id>",
	Short: "Show one rumor's score breakdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("rumor", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return printRumor(ctx, cmd.OutOrStdout(), a, id)
		})
	},
}

var rumorsSubmitCmd = &cobra.Command{
	Use:   "submit <content>",
	Short: "Submit a new rumor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		author := uuid.Nil
		if submitAuthor != "" {
			id, err := parseID("author", submitAuthor)
			if err != nil {
				return err
			}
			author = id
		}
		var evidence *services.Evidence
		if submitEvidenceType != "" {
			evidence = &services.Evidence{Type: submitEvidenceType, URL: submitEvidenceURL}
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			r, err := a.Services.Votes.SubmitRumor(ctx, author, args[0], evidence)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.ID)
			return nil
		})
	},
}

var rumorsAuditCmd = &cobra.Command{
	Use:   "audit <rumor-id>",
	Short: "Show recorded score calculations and reputation events",
	Long: `Audit prints the calculation log for a rumor, newest first, followed by the
reputation events its settlement wrote. Entries outlive the rumor itself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("rumor", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			trail, err := a.Services.Rumors.AuditTrail(ctx, id, auditLimit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tEVENT\tPROOF\tDATA")
			for _, l := range trail.Calculations {
				proof := "-"
				if l.ProofID != nil {
					proof = l.ProofID.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"), l.EventType, proof, truncate(string(l.CalculationData), 60))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if len(trail.Reputation) == 0 {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout())
			tw = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USER\tEVENT\tDELTA\tAPPLIED\tBALANCE")
			for _, e := range trail.Reputation {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.UserID, e.EventType, e.Delta.StringFixed(2), e.AppliedDelta.StringFixed(2), e.BalanceAfter.StringFixed(2))
			}
			return tw.Flush()
		})
	},
}

func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func init() {
	rumorsListCmd.Flags().StringVar(&feedFilter, "filter", string(rumors.FeedAll), "all, active or frozen")
	rumorsListCmd.Flags().StringVar(&feedSort, "sort", string(rumors.SortLatest), "latest, trending or trusted")
	rumorsListCmd.Flags().IntVar(&feedLimit, "limit", 20, "page size")
	rumorsListCmd.Flags().IntVar(&feedOffset, "offset", 0, "rows to skip")

	rumorsSubmitCmd.Flags().StringVar(&submitAuthor, "author", "", "author user id")
	rumorsSubmitCmd.Flags().StringVar(&submitEvidenceType, "evidence-type", "", "evidence type: photo, link or document")
	rumorsSubmitCmd.Flags().StringVar(&submitEvidenceURL, "evidence-url", "", "evidence location")

	rumorsAuditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum number of calculation entries")

	rumorsCmd.AddCommand(rumorsListCmd, rumorsShowCmd, rumorsSubmitCmd, rumorsAuditCmd)
	rootCmd.AddCommand(rumorsCmd)
}
