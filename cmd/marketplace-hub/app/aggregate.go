package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/marketplace-hub/internal/aggregator"
	"github.com/stacklok/marketplace-hub/internal/app"
	"github.com/stacklok/marketplace-hub/internal/view"
)

func newAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Run one aggregation pass and print the result",
		Long: `Fetch the manifest and repository statistics of every registered marketplace
once, then print the merged records. Marketplaces that cannot be fetched are
listed with their error; they never fail the command.`,
		RunE: runAggregate,
	}

	addConfigFlags(cmd.Flags())
	cmd.Flags().StringP("format", "o", formatTable, "Output format (table, json, yaml)")
	cmd.Flags().StringP("query", "q", "", "Only show marketplaces matching the query")
	cmd.Flags().StringSlice("tags", nil, "Only show marketplaces carrying every tag")
	cmd.Flags().String("sort", "", "Sort by stars, updated, plugins or name")
	cmd.Flags().Bool("fuzzy", false, "Rank the query with fuzzy matching")

	return cmd
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	v, err := newViper(cmd)
	if err != nil {
		return err
	}

	format := v.GetString("format")
	switch format {
	case formatTable, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	sortKey, err := view.ParseSortKey(v.GetString("sort"))
	if err != nil {
		return err
	}
	query := view.Query{
		Text:  v.GetString("query"),
		Tags:  v.GetStringSlice("tags"),
		Sort:  sortKey,
		Fuzzy: v.GetBool("fuzzy"),
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	manager, err := app.NewRegistryManager(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = manager.Close() }()

	fetchCache, err := app.NewCache(nil)
	if err != nil {
		return err
	}
	agg, err := app.BuildAggregator(cfg, app.NewHTTPClient(cfg), fetchCache, nil)
	if err != nil {
		return err
	}

	results := agg.AggregateAll(ctx, manager.Get().Entries())
	for i := range results {
		results[i] = view.Sanitized(results[i])
	}
	results = view.Apply(results, query)

	out := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case formatYAML:
		return yaml.NewEncoder(out).Encode(results)
	default:
		return renderTable(out, results, time.Now())
	}
}

// renderTable prints one row per marketplace
func renderTable(w io.Writer, results []aggregator.FetchedMarketplace, now time.Time) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Plugins", "Stars", "Updated", "Status")

	for _, m := range results {
		plugins, stars, updated := "-", "-", "-"
		if m.PluginCount != nil {
			plugins = strconv.Itoa(*m.PluginCount)
		}
		if m.Stars != nil {
			stars = view.FormatStarCount(*m.Stars)
		}
		if m.LastUpdated != nil {
			updated = view.FormatRelativeTime(*m.LastUpdated, now)
		}
		status := "ok"
		if !m.OK() {
			status = m.Error
		}

		if err := table.Append(m.ID, m.Name, plugins, stars, updated, status); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}

	return table.Render()
}
