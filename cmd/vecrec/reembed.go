package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newReembedCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reembed",
		Short: "Compute missing catalog embeddings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.ingester().Reembed(cmd.Context(), all)
			opts.logger.Info("Reembed finished",
				zap.Int("total", rep.Total),
				zap.Int("embedded", rep.Embedded),
				zap.Int("skipped", rep.Skipped),
				zap.Int("failed", rep.Failed),
			)
			if err != nil {
				return fmt.Errorf("reembed: %w", err)
			}
			if rep.Failed > 0 {
				return fmt.Errorf("reembed: %d of %d items failed", rep.Failed, rep.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "re-embed every item, not only those without a vector")
	return cmd
}
