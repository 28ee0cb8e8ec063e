package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiges-tech/stopsearch"
	"github.com/remiges-tech/stopsearch/internal/config"
	"github.com/remiges-tech/stopsearch/sources"
	"github.com/remiges-tech/stopsearch/sources/file"
)

const importBatchSize = 500

// importOptions holds CLI flags for import.
type importOptions struct {
	format  string
	replace bool
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <dataset>",
		Short: "Import a stop dataset into the configured source",
		Long: `Read a local stop dataset (JSON, CSV or GTFS zip) and store it in the
configured source, which must be redis or elasticsearch.

Examples:
  stopctl import stops.json --config redis.yaml
  stopctl import gtfs.zip --replace --config es.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			n, err := runImport(cmd.Context(), cfg.Source, file.Config{Path: args[0], Format: opts.format}, opts.replace)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d stops into %s\n", n, cfg.Source.Type)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Dataset format: json, csv, gtfs (default: from extension)")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "Delete the existing dataset before importing")

	return cmd
}

// runImport copies the records of input into target and returns how many
// were stored.
func runImport(ctx context.Context, target config.SourceConfig, input file.Config, replace bool) (int, error) {
	start := time.Now()

	reader, err := file.New(input)
	if err != nil {
		return 0, err
	}
	defer func() { _ = reader.Close() }()

	records, err := reader.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", input.Path, err)
	}
	slog.Info("read stop dataset", "path", input.Path, "records", len(records))

	source, err := stopsearch.OpenSource(target.Type, target.Settings())
	if err != nil {
		return 0, err
	}
	defer func() { _ = source.Close() }()

	store, ok := source.(sources.Store)
	if !ok {
		return 0, fmt.Errorf("source %q cannot store stops", target.Type)
	}

	if replace {
		if err := store.DeleteAll(ctx); err != nil {
			return 0, fmt.Errorf("clearing existing stops: %w", err)
		}
		slog.Info("cleared existing stops", "source", target.Type)
	}

	for i := 0; i < len(records); i += importBatchSize {
		end := min(i+importBatchSize, len(records))
		if err := store.Store(ctx, records[i:end]); err != nil {
			return 0, fmt.Errorf("storing records %d-%d: %w", i, end, err)
		}
		slog.Debug("stored batch", "from", i, "to", end)
	}

	slog.Info("import finished",
		"source", target.Type,
		"records", len(records),
		"elapsed", time.Since(start),
	)
	return len(records), nil
}
