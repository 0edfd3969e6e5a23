package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newParseCmd creates the 'parse' subcommand.
func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Reparses the raw documents on disk into listings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := a.pipeline.ParseOnly(ctx)
			if err != nil {
				return err
			}
			a.logger.Info("parse finished", zap.Int("records", len(records)))
			return nil
		},
	}
	return cmd
}
