package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remiges-tech/stopsearch"
)

// suggestOptions holds CLI flags for suggest.
type suggestOptions struct {
	limit  int
	format string // "text", "json"
}

func newSuggestCmd(root *rootOptions) *cobra.Command {
	var opts suggestOptions

	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Print stop suggestions for a query",
		Long: `Load the configured source and print the ranked stop suggestions for
a query, the same way the stopsearch service answers it.

Examples:
  stopctl suggest nám
  stopctl suggest "hlavni nadr" --limit 3 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}

			searchConfig := stopsearch.NewConfigWithOptions(cfg.Source.Settings(), stopsearch.Options{
				DefaultLimit:   cfg.Search.DefaultLimit,
				MaxLimit:       cfg.Search.MaxLimit,
				MinQueryLength: cfg.Search.MinQueryLength,
			})
			searcher, err := stopsearch.New(cfg.Source.Type, searchConfig)
			if err != nil {
				return err
			}
			defer func() { _ = searcher.Close() }()

			resp, err := searcher.Suggest(cmd.Context(), strings.Join(args, " "), opts.limit)
			if err != nil {
				return err
			}
			return writeSuggestions(cmd.OutOrStdout(), resp, opts.format)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of suggestions (default: configured default)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func writeSuggestions(w io.Writer, resp *stopsearch.Response, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "text":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	if resp.TotalFound == nil {
		_, err := fmt.Fprintln(w, "query too short")
		return err
	}
	for _, s := range resp.Suggestions {
		if _, err := fmt.Fprintf(w, "%-12s %-40s %9.5f %9.5f\n", s.StopID, s.Name, s.Lat, s.Lon); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d of %d\n", len(resp.Suggestions), *resp.TotalFound)
	return err
}
