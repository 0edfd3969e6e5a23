package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newSummarizeCmd creates the 'summarize' subcommand.
func newSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Regenerates summaries for the records on disk and re-exports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := a.pipeline.SummarizeOnly(ctx)
			if err != nil {
				return err
			}

			summarized := 0
			for i := range records {
				if records[i].DescriptionSummary != "" {
					summarized++
				}
			}
			a.logger.Info("summarize finished",
				zap.Int("records", len(records)), zap.Int("summarized", summarized))
			return nil
		},
	}
	return cmd
}
