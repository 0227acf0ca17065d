// Package runner drives the whole rewrite pipeline over a set of target
// paths: file collection, per-file parse/converge/print, and the final
// report used for diff output and exit code decisions.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/petski/rector-src/internal/observability"
	"github.com/petski/rector-src/pkg/docblock"
	"github.com/petski/rector-src/pkg/engine"
	"github.com/petski/rector-src/pkg/parser"
	"github.com/petski/rector-src/pkg/printer"
	"github.com/petski/rector-src/pkg/rules/rule"
	"github.com/petski/rector-src/pkg/textdiff"
	"github.com/petski/rector-src/pkg/textutil"
)

// FileChange describes one file whose rewritten contents differ from the
// original.
type FileChange struct {
	Path      string
	Original  []byte
	Rewritten []byte
	Diff      string

	Passes       int
	Applications int
	Exhausted    bool
}

// FileError is one file that failed; the rest of the batch is unaffected.
type FileError struct {
	Path string
	Err  error
}

// Outcome records the final status of one scanned file, using the
// observability status labels (changed, unchanged, failed).
type Outcome struct {
	Path   string
	Status string
}

// Report summarizes one batch run. Outcomes covers every scanned file in
// path order; Changes and Errors carry the detail for the non-clean subset.
type Report struct {
	Scanned  int
	Lines    int
	Outcomes []Outcome
	Changes  []FileChange
	Errors   []FileError
	Duration time.Duration
}

// AnyChanged reports whether at least one file was rewritten.
func (r *Report) AnyChanged() bool {
	return len(r.Changes) > 0
}

// AnyFailed reports whether at least one file failed.
func (r *Report) AnyFailed() bool {
	return len(r.Errors) > 0
}

// Options configures a Runner.
type Options struct {
	// Rules is the configured rule set, in configuration order.
	Rules []rule.Rule

	// DocMappings feeds the doc comment annotation rewriter.
	DocMappings docblock.Mappings

	// MaxPasses bounds per-file convergence. Non-positive means the
	// engine default.
	MaxPasses int

	// Workers is the number of files in flight at once. Non-positive
	// means one per CPU.
	Workers int

	// Extensions lists the file extensions to pick up, without dots.
	Extensions []string

	// SkipVendored drops files under vendored directory conventions.
	SkipVendored bool

	// Metrics instruments the pipeline when non-nil.
	Metrics *observability.RewriteMetrics

	Logger *slog.Logger
}

// Runner processes files concurrently and collects the outcome.
type Runner struct {
	index   *engine.Index
	opts    Options
	parser  *parser.Parser
	rewrite *docblock.Rewriter
	logger  *slog.Logger
}

// New creates a Runner from the given options.
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		index:   engine.BuildIndex(opts.Rules),
		opts:    opts,
		parser:  parser.NewParser(),
		rewrite: docblock.NewRewriter(opts.DocMappings),
		logger:  logger,
	}
}

// Run processes every matching file under the given paths. File failures are
// isolated: they land in the report instead of aborting the batch. The
// returned error covers batch-level problems only, such as an unreadable
// target path.
func (r *Runner) Run(ctx context.Context, paths []string) (*Report, error) {
	started := time.Now()

	files, err := CollectFiles(paths, r.opts.Extensions, r.opts.SkipVendored)
	if err != nil {
		return nil, err
	}

	report := &Report{Scanned: len(files)}

	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, workers)
	)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			wg.Wait()

			return nil, err
		}

		select {
		case <-ctx.Done():
			wg.Wait()

			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			change, lines, fileErr := r.processFile(ctx, file)

			mu.Lock()
			defer mu.Unlock()

			report.Lines += lines

			switch {
			case fileErr != nil:
				report.Errors = append(report.Errors, FileError{Path: file, Err: fileErr})
				report.Outcomes = append(report.Outcomes, Outcome{Path: file, Status: observability.StatusFailed})
			case change != nil:
				report.Changes = append(report.Changes, *change)
				report.Outcomes = append(report.Outcomes, Outcome{Path: file, Status: observability.StatusChanged})
			default:
				report.Outcomes = append(report.Outcomes, Outcome{Path: file, Status: observability.StatusUnchanged})
			}
		}()
	}

	wg.Wait()

	// Concurrent completion order is arbitrary; reports are path-ordered.
	sort.Slice(report.Outcomes, func(i, j int) bool { return report.Outcomes[i].Path < report.Outcomes[j].Path })
	sort.Slice(report.Changes, func(i, j int) bool { return report.Changes[i].Path < report.Changes[j].Path })
	sort.Slice(report.Errors, func(i, j int) bool { return report.Errors[i].Path < report.Errors[j].Path })

	report.Duration = time.Since(started)

	return report, nil
}

// processFile runs the full per-file pipeline, returning the change (nil when
// the file converged untouched) and the number of source lines scanned.
func (r *Runner) processFile(ctx context.Context, path string) (*FileChange, int, error) {
	fileStart := time.Now()

	if r.opts.Metrics != nil {
		done := r.opts.Metrics.TrackInflight(ctx)
		defer done()
	}

	original, err := readFile(path)
	if err != nil {
		r.recordOutcome(ctx, observability.StatusFailed, 0, 0, fileStart)

		return nil, 0, err
	}

	// Extension filters let the odd binary through, a .php that is really
	// a phar archive for example. Rewriting one would destroy it.
	if textutil.IsBinary(original) {
		r.logger.Debug("binary file skipped", "file", path)
		r.recordOutcome(ctx, observability.StatusUnchanged, 0, 0, fileStart)

		return nil, 0, nil
	}

	lines := textutil.CountLines(original)

	root, err := r.parser.Parse(path, original)
	if err != nil {
		r.recordOutcome(ctx, observability.StatusFailed, 0, 0, fileStart)

		return nil, lines, err
	}

	rctx := rule.NewContext(path)

	converger := engine.NewConverger(r.index, r.opts.MaxPasses)

	rewrittenRoot, result, err := converger.Run(rctx, root)
	if err != nil {
		r.recordOutcome(ctx, observability.StatusFailed, result.Passes, result.Applications, fileStart)

		return nil, lines, err
	}

	// Doc comments are rewritten after code-level convergence so annotation
	// types never drift from the final code shape.
	docChanged, err := r.rewrite.Apply(rctx, rewrittenRoot)
	if err != nil {
		r.recordOutcome(ctx, observability.StatusFailed, result.Passes, result.Applications, fileStart)

		return nil, lines, err
	}

	if result.Exhausted {
		r.logger.Warn("convergence pass cap reached, output may be incomplete",
			"file", path, "passes", result.Passes)

		if r.opts.Metrics != nil {
			r.opts.Metrics.RecordExhaustion(ctx)
		}
	}

	if result.Overflows > 0 {
		r.logger.Warn("single-node rewrite cap reached",
			"file", path, "overflows", result.Overflows)
	}

	if !result.Changed && !docChanged {
		r.recordOutcome(ctx, observability.StatusUnchanged, result.Passes, result.Applications, fileStart)

		return nil, lines, nil
	}

	rewritten := printer.Print(rewrittenRoot, original)
	if bytes.Equal(rewritten, original) {
		r.recordOutcome(ctx, observability.StatusUnchanged, result.Passes, result.Applications, fileStart)

		return nil, lines, nil
	}

	r.recordOutcome(ctx, observability.StatusChanged, result.Passes, result.Applications, fileStart)

	r.logger.Debug("file rewritten",
		"file", path, "passes", result.Passes, "applications", result.Applications)

	return &FileChange{
		Path:         path,
		Original:     original,
		Rewritten:    rewritten,
		Diff:         textdiff.Unified(path, original, rewritten),
		Passes:       result.Passes,
		Applications: result.Applications,
		Exhausted:    result.Exhausted,
	}, lines, nil
}

func (r *Runner) recordOutcome(ctx context.Context, status string, passes, applications int, started time.Time) {
	if r.opts.Metrics == nil {
		return
	}

	r.opts.Metrics.RecordFile(ctx, status, passes, applications, time.Since(started))
}

// Apply writes the rewritten contents of every change back to disk,
// preserving each file's permission bits.
func Apply(report *Report) error {
	for _, change := range report.Changes {
		if err := writeFile(change.Path, change.Rewritten); err != nil {
			return fmt.Errorf("apply %s: %w", change.Path, err)
		}
	}

	return nil
}
