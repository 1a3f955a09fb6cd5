package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecrec/internal/domain/need"
)

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var (
		needJSON string
		seedFile string
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Run one recommendation and print the result as JSON",
		Long: `Read a customer need as JSON from --need, or from stdin when --need is "-" or empty,
and print the recommendation. --seed loads a catalog file first, which is handy with
the memory driver.`,
		Example: `  vecrec recommend --need '{"product_type":"t-shirt","quantity":50,"budget_per_unit":12}'
  echo '{"quantity":50}' | vecrec recommend --env local`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := readNeed(cmd.InOrStdin(), needJSON)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if seedFile != "" {
				if err := a.seedFromFile(cmd.Context(), seedFile); err != nil {
					return err
				}
			}

			res, err := a.recommender().Recommend(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&needJSON, "need", "", `need as JSON, "-" or empty reads stdin`)
	cmd.Flags().StringVar(&seedFile, "seed", "", "catalog YAML file to load before recommending")
	return cmd
}

func readNeed(stdin io.Reader, raw string) (need.Query, error) {
	var data []byte
	if raw == "" || raw == "-" {
		if f, ok := stdin.(*os.File); ok {
			if st, err := f.Stat(); err == nil && st.Mode()&os.ModeCharDevice != 0 {
				return need.Query{}, errors.New("no need given: pass --need or pipe JSON on stdin")
			}
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return need.Query{}, fmt.Errorf("read need: %w", err)
		}
		data = b
	} else {
		data = []byte(raw)
	}

	var q need.Query
	if err := json.Unmarshal(data, &q); err != nil {
		return need.Query{}, fmt.Errorf("parse need: %w", err)
	}
	return q, nil
}
