package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Print the saved quality report of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		snapshot, err := st.GetReport(ctx, args[0])
		if err != nil {
			return err
		}
		if snapshot == nil {
			return eris.Errorf("no report for run %s", args[0])
		}

		return writeSnapshot(*snapshot, reportFormat, reportOutput)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "yaml", "report format: yaml or json")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write the report to a file instead of stdout")
	rootCmd.AddCommand(reportCmd)
}
