package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/app"
	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/internal/extractor"
	"github.com/user/invite-harvester/internal/search"
	"github.com/user/invite-harvester/internal/usecase"
	"github.com/user/invite-harvester/pkg/config"
	"github.com/user/invite-harvester/pkg/logger"
)

const (
	defaultResultCount = 10
	previewLength      = 60
	linkColumnWidth    = 48
)

type runFlags struct {
	query    string
	results  int
	workers  int
	seeds    []string
	asJSON   bool
	all      bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "harvest",
		Short:         "Discover and validate public group invite links",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest invite links for a query and validate them",
		Long: `Run searches for the query, collects invite links from the result pages
and checks every link concurrently.

Examples:
  # Top 20 results, Active groups only
  harvest run -q "study group" -n 20

  # Skip the search engine and scan known pages
  harvest run -q "study group" --seed https://example.org/groups --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.query, "query", "q", "", "search query (required)")
	cmd.Flags().IntVarP(&f.results, "results", "n", defaultResultCount, "number of search results to scan")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "validation workers (default VALIDATE_WORKERS)")
	cmd.Flags().StringSliceVar(&f.seeds, "seed", nil, "result page URLs to scan instead of searching")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print records as JSON")
	cmd.Flags().BoolVar(&f.all, "all", false, "include records that are not Active")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level (default LOG_LEVEL)")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func execute(cmd *cobra.Command, f runFlags) error {
	if strings.TrimSpace(f.query) == "" {
		return usecase.ErrInvalidQuery
	}
	if f.results < 1 {
		return fmt.Errorf("--results must be at least 1, got %d", f.results)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if f.logLevel != "" {
		level = f.logLevel
	}
	log, err := logger.New(cmd.ErrOrStderr(), level)
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := app.Options{Workers: f.workers}
	if len(f.seeds) > 0 {
		opts.Provider = search.StaticProvider{URLs: f.seeds}
	}
	core, err := app.Build(cfg, opts, nil, log)
	if err != nil {
		return err
	}
	defer core.Close()

	run := entity.NewHarvestRun(uuid.NewString(), f.query, f.results)
	summary, runErr := core.Pipeline.Run(cmd.Context(), run, usecase.Hooks{
		OnHarvested: func(n int) {
			log.Info("validating candidates", zap.Int("candidates", n), zap.Int("workers", core.Workers))
		},
	})
	if runErr != nil {
		if len(run.Candidates) == 0 {
			return runErr
		}
		log.Warn("search stopped early; results are partial", zap.Error(runErr))
	}

	records := run.Records
	if !f.all {
		records = entity.ActiveOnly(records)
	}
	out := cmd.OutOrStdout()
	if f.asJSON {
		return writeJSON(out, summary, records)
	}
	writeSummary(out, summary)
	writeTable(out, records, f.all)
	return nil
}

func writeJSON(w io.Writer, summary entity.Summary, records []entity.GroupRecord) error {
	if records == nil {
		records = []entity.GroupRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Summary entity.Summary       `json:"summary"`
		Records []entity.GroupRecord `json:"records"`
	}{summary, records}); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func writeSummary(w io.Writer, s entity.Summary) {
	fmt.Fprintf(w, "Candidates: %d  Validated: %d  Active: %d\n", s.Candidates, s.Validated, s.Active)
}

func writeTable(w io.Writer, records []entity.GroupRecord, all bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	if all {
		t.AppendHeader(table.Row{"#", "Status", "Name", "Link", "HTTP", "Error"})
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: linkColumnWidth}})
		for i, r := range records {
			t.AppendRow(table.Row{i + 1, r.Status, r.Name, r.Link, r.HTTPStatusCode, r.Error})
		}
	} else {
		t.AppendHeader(table.Row{"#", "Name", "Link", "Description"})
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: linkColumnWidth}})
		for i, r := range records {
			t.AppendRow(table.Row{i + 1, r.Name, r.Link, extractor.Truncate(r.Description, previewLength)})
		}
	}
	t.AppendFooter(table.Row{"Total", len(records)})
	t.Render()
}
