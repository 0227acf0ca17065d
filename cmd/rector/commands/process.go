// Package commands implements the rector CLI subcommands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/petski/rector-src/internal/config"
	"github.com/petski/rector-src/internal/observability"
	"github.com/petski/rector-src/internal/runner"
	"github.com/petski/rector-src/pkg/rules/registry"
	"github.com/petski/rector-src/pkg/textdiff"
)

// ErrChangesPending is returned by a dry run that found rewrites. The main
// entry point maps it to a dedicated exit code so CI can gate on it.
var ErrChangesPending = errors.New("changes pending")

// metricsReadTimeout bounds request header reads on the scrape endpoint.
const metricsReadTimeout = 10 * time.Second

// ProcessCommand holds the flags for the process command.
type ProcessCommand struct {
	configPath  string
	dryRun      bool
	workers     int
	maxPasses   int
	noColor     bool
	output      string
	metricsAddr string
	verbose     bool
}

// NewProcessCommand creates and configures the process command.
func NewProcessCommand() *cobra.Command {
	cmd := &ProcessCommand{}

	cobraCmd := &cobra.Command{
		Use:   "process [paths...]",
		Short: "Rewrite the files under the given paths",
		Long: "Apply the configured rules to every matching file under the given\n" +
			"paths. Without --dry-run the rewritten contents are written back.",
		Args: cobra.MinimumNArgs(1),
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringVarP(&cmd.configPath, "config", "c", "", "Config file (default: .rector.yaml in CWD or $HOME)")
	cobraCmd.Flags().BoolVar(&cmd.dryRun, "dry-run", false, "Report diffs without writing files")
	cobraCmd.Flags().IntVar(&cmd.workers, "workers", 0, "Concurrent files (0 = one per CPU)")
	cobraCmd.Flags().IntVar(&cmd.maxPasses, "max-passes", 0, "Convergence pass cap (0 = config value)")
	cobraCmd.Flags().BoolVar(&cmd.noColor, "no-color", false, "Disable colored diff output")
	cobraCmd.Flags().StringVarP(&cmd.output, "output", "o", "", "Diff output file (default: stdout)")
	cobraCmd.Flags().StringVar(&cmd.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cobraCmd.Flags().BoolVarP(&cmd.verbose, "verbose", "v", false, "Verbose logging")

	return cobraCmd
}

// Run executes the process command.
func (c *ProcessCommand) Run(cobraCmd *cobra.Command, args []string) error {
	logger := c.newLogger()

	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return err
	}

	c.applyFlagOverrides(cfg)

	rules, err := registry.NewRegistry().Build(cfg.Rules)
	if err != nil {
		return err
	}

	metrics, err := c.startMetrics(cfg, logger)
	if err != nil {
		return err
	}

	run := runner.New(runner.Options{
		Rules:        rules,
		DocMappings:  registry.CollectDocMappings(rules),
		MaxPasses:    cfg.Engine.MaxPasses,
		Workers:      cfg.Engine.Workers,
		Extensions:   cfg.Paths.Extensions,
		SkipVendored: cfg.Paths.SkipVendored,
		Metrics:      metrics,
		Logger:       logger,
	})

	report, err := run.Run(cobraCmd.Context(), args)
	if err != nil {
		return err
	}

	out, closeOut, err := c.outputWriter()
	if err != nil {
		return err
	}
	defer closeOut()

	c.printDiffs(report, out)

	if c.dryRun {
		c.printOutcomes(report, os.Stderr)
	}

	c.printSummary(report, os.Stderr)

	for _, fileErr := range report.Errors {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", fileErr.Path, fileErr.Err)
	}

	if !c.dryRun {
		if applyErr := runner.Apply(report); applyErr != nil {
			return applyErr
		}
	}

	if report.AnyFailed() {
		return fmt.Errorf("%d file(s) failed", len(report.Errors))
	}

	if c.dryRun && report.AnyChanged() {
		return ErrChangesPending
	}

	return nil
}

func (c *ProcessCommand) newLogger() *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// applyFlagOverrides lets explicit flags win over the config file.
func (c *ProcessCommand) applyFlagOverrides(cfg *config.Config) {
	if c.workers > 0 {
		cfg.Engine.Workers = c.workers
	}

	if c.maxPasses > 0 {
		cfg.Engine.MaxPasses = c.maxPasses
	}

	if c.metricsAddr != "" {
		cfg.Metrics.Addr = c.metricsAddr
	}
}

// startMetrics brings up the scrape endpoint when an address is configured
// and returns the pipeline instruments bound to it.
func (c *ProcessCommand) startMetrics(cfg *config.Config, logger *slog.Logger) (*observability.RewriteMetrics, error) {
	if cfg.Metrics.Addr == "" {
		return nil, nil
	}

	handler, provider, err := observability.PrometheusHandler()
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewRewriteMetrics(provider.Meter("rector"))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: metricsReadTimeout}

	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", "err", serveErr)
		}
	}()

	logger.Info("serving metrics", "addr", cfg.Metrics.Addr)

	return metrics, nil
}

func (c *ProcessCommand) outputWriter() (io.Writer, func(), error) {
	if c.output == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(c.output)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}

	return file, func() { _ = file.Close() }, nil
}

func (c *ProcessCommand) printDiffs(report *runner.Report, out io.Writer) {
	colorize := !c.noColor && c.output == ""

	for _, change := range report.Changes {
		diff := change.Diff
		if colorize {
			diff = textdiff.Colorize(diff)
		}

		fmt.Fprintln(out, diff)
	}
}

// printOutcomes lists every scanned file with its status, in path order, so
// a dry run accounts for the untouched files too.
func (c *ProcessCommand) printOutcomes(report *runner.Report, out io.Writer) {
	if len(report.Outcomes) == 0 {
		return
	}

	writer := table.NewWriter()
	writer.SetOutputMirror(out)
	writer.AppendHeader(table.Row{"File", "Outcome"})

	for _, outcome := range report.Outcomes {
		writer.AppendRow(table.Row{outcome.Path, outcome.Status})
	}

	writer.Render()
}

func (c *ProcessCommand) printSummary(report *runner.Report, out io.Writer) {
	applications := 0
	for _, change := range report.Changes {
		applications += change.Applications
	}

	writer := table.NewWriter()
	writer.SetOutputMirror(out)
	writer.AppendHeader(table.Row{"Scanned", "Lines", "Changed", "Failed", "Applications", "Elapsed"})
	writer.AppendRow(table.Row{
		humanize.Comma(int64(report.Scanned)),
		humanize.Comma(int64(report.Lines)),
		humanize.Comma(int64(len(report.Changes))),
		humanize.Comma(int64(len(report.Errors))),
		humanize.Comma(int64(applications)),
		report.Duration.Round(time.Millisecond).String(),
	})
	writer.Render()
}
