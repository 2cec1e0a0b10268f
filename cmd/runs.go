package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/store"
)

var (
	runsStatus   string
	runsDocument string
	runsLimit    int
	runsOffset   int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List extraction runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:     model.RunStatus(runsStatus),
			DocumentID: runsDocument,
			Limit:      runsLimit,
			Offset:     runsOffset,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tDOCUMENT\tSTATUS\tEXP\tEDU\tDIVERSITY\tRESCUE\tCREATED")
		for _, r := range runs {
			exp, edu, diversity, rescued := "-", "-", "-", "-"
			if r.Result != nil {
				exp = fmt.Sprintf("%d", r.Result.ExperienceCount)
				edu = fmt.Sprintf("%d", r.Result.EducationCount)
				diversity = fmt.Sprintf("%.2f", r.Result.DiversityScore)
				rescued = fmt.Sprintf("%t", r.Result.RescueTriggered)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.DocumentID, r.Status, exp, edu, diversity, rescued,
				r.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (queued, complete, failed)")
	runsCmd.Flags().StringVar(&runsDocument, "document", "", "filter by document id")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsCmd.Flags().IntVar(&runsOffset, "offset", 0, "skip this many runs")
	rootCmd.AddCommand(runsCmd)
}
