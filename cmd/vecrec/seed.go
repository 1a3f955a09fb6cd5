package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errNoSeedFile = errors.New("no catalog file: pass --file or set catalog.seed_file")

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load catalog items from a YAML file and embed them",
		Long: `Upsert every item of the catalog file, creating the vector index if needed,
then embed items that have no vector yet. Existing vectors are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				file = opts.cfg.Catalog.SeedFile
			}
			if file == "" {
				return errNoSeedFile
			}

			a, err := newApp(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.seedFromFile(cmd.Context(), file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (default: catalog.seed_file)")
	return cmd
}
