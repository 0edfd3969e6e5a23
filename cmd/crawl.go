package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCrawlCmd creates the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	var maxURLs int

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Fetches the seed URLs and stores the raw documents",
		Long: `Fetches every URL in the seeds file, honoring robots.txt and the
configured per-host delay, and writes each response to the raw document
directory. Always fetches, even when documents already exist.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			docs, err := a.pipeline.CrawlOnly(ctx, maxURLs)
			if err != nil {
				return err
			}
			a.logger.Info("crawl finished", zap.Int("documents", len(docs)))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxURLs, "max", 0, "maximum number of URLs to fetch (0 = all)")

	return cmd
}
