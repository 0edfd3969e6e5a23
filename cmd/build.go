package cmd

import (
	"github.com/spf13/cobra"

	"github.com/toytoons/scraper/internal/pipeline"
)

// newBuildCmd creates the 'build' subcommand running the full pipeline.
func newBuildCmd() *cobra.Command {
	var (
		maxURLs        int
		forceCrawl     bool
		forceParse     bool
		forceSummarize bool
		forceAll       bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Runs the full crawl, parse, summarize, export pipeline",
		Long: `Runs all four stages in order. Stages whose output already exists
on disk are skipped unless forced, so an interrupted run picks up where
it left off.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := pipeline.Options{
				MaxURLs:        maxURLs,
				ForceCrawl:     forceCrawl || forceAll,
				ForceParse:     forceParse || forceAll,
				ForceSummarize: forceSummarize || forceAll,
			}
			stats, err := a.pipeline.Run(ctx, opts)
			if err != nil {
				return err
			}
			logStats(a.logger, stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxURLs, "max", 0, "maximum number of URLs to process (0 = all)")
	cmd.Flags().BoolVar(&forceCrawl, "force-crawl", false, "refetch even when raw documents exist")
	cmd.Flags().BoolVar(&forceParse, "force-parse", false, "reparse even when records exist")
	cmd.Flags().BoolVar(&forceSummarize, "force-summarize", false, "regenerate existing summaries")
	cmd.Flags().BoolVar(&forceAll, "force", false, "force every stage")

	return cmd
}
