package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
	"riskmap/internal/services/orgrating"
	"riskmap/internal/services/urlrating"
	"riskmap/internal/workers/recompute"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute url and organization rating histories",
	Long: `Recompute the rating history of the selected urls, then of every
organization owning one of them.

Every job is recorded in a named batch. An interrupted or partly failed
batch can be picked up again with --batch NAME --resume (add --retry-failed
to rerun the failed jobs too).`,
	Example: `  riskmap rebuild --all
  riskmap rebuild --organization 4 --mode today-only
  riskmap rebuild --domain example.nl --workers 8 --max-rate 50
  riskmap rebuild --batch rebuild-20240101T000000Z --resume --retry-failed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		scope, opts, urlOpts, err := rebuildOptions(cmd)
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		quiet, _ := cmd.Flags().GetBool("quiet")
		var bars *phaseBars
		if !quiet {
			bars = &phaseBars{out: cmd.ErrOrStderr()}
			opts.Progress = bars.update
		}

		report, err := runRebuild(ctx, store, scope, opts, urlOpts, logger)
		if bars != nil {
			bars.finish()
		}
		if err == nil {
			printReport(cmd.OutOrStdout(), report)
		}
		switch {
		case ctx.Err() != nil:
			return fmt.Errorf("interrupted; continue with --batch %s --resume", report.Batch)
		case err != nil:
			return err
		case report.Failed() > 0:
			return fmt.Errorf("%d jobs failed; rerun with --batch %s --resume --retry-failed", report.Failed(), report.Batch)
		}
		return nil
	},
}

func init() {
	f := rebuildCmd.Flags()
	f.Int64Slice("url", nil, "url ids to rate")
	f.Int64Slice("organization", nil, "organization ids; rates all of their urls")
	f.StringSlice("domain", nil, "registrable domains; rates every url under them")
	f.Bool("all", false, "rate every url")
	f.String("mode", string(ports.FullHistory), "full-history or today-only")
	f.Int("workers", 0, "concurrent rating jobs (default RATING_WORKERS or the CPU count)")
	f.Float64("max-rate", 0, "maximum job starts per second, 0 for unlimited")
	f.String("batch", "", "batch name (default rebuild-<timestamp>)")
	f.Bool("resume", false, "requeue the batch's interrupted jobs instead of enqueueing a new scope")
	f.Bool("retry-failed", false, "requeue the batch's failed jobs as well")
	f.String("explain-at", "", "judge comply-or-explain validity at this instant (RFC 3339 or YYYY-MM-DD)")
	f.BoolP("quiet", "q", false, "hide the progress bars")
}

func rebuildOptions(cmd *cobra.Command) (recompute.Scope, recompute.Options, urlrating.Options, error) {
	f := cmd.Flags()
	var scope recompute.Scope
	scope.UrlIDs, _ = f.GetInt64Slice("url")
	scope.OrganizationIDs, _ = f.GetInt64Slice("organization")
	scope.Domains, _ = f.GetStringSlice("domain")
	scope.All, _ = f.GetBool("all")

	rawMode, _ := f.GetString("mode")
	mode, ok := ports.ParseMode(rawMode)
	if !ok {
		return scope, recompute.Options{}, urlrating.Options{}, fmt.Errorf("unknown mode %q (want %s or %s)", rawMode, ports.FullHistory, ports.TodayOnly)
	}

	opts := recompute.Options{Mode: mode, Workers: cfg.Workers}
	opts.Batch, _ = f.GetString("batch")
	opts.Resume, _ = f.GetBool("resume")
	opts.RetryFailed, _ = f.GetBool("retry-failed")
	if cfg.MaxRate > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.MaxRate), 1)
	}

	var urlOpts urlrating.Options
	if raw, _ := f.GetString("explain-at"); raw != "" {
		at, err := domain.ParseInstant(raw)
		if err != nil {
			return scope, opts, urlOpts, fmt.Errorf("--explain-at: %w", err)
		}
		urlOpts.ExplainAt = at
	}
	return scope, opts, urlOpts, nil
}

func runRebuild(ctx context.Context, store ports.Store, scope recompute.Scope, opts recompute.Options, urlOpts urlrating.Options, logger *zap.Logger) (recompute.Report, error) {
	urls := urlrating.New(store, store, logger, urlOpts, time.Now)
	orgs := orgrating.New(store, store, store, logger, time.Now)
	runner := recompute.New(store, store, urls, orgs, logger, time.Now)
	return runner.Recompute(ctx, scope, opts)
}

// phaseBars draws one progress bar per phase. The runner serializes
// progress callbacks.
type phaseBars struct {
	out  io.Writer
	mu   sync.Mutex
	kind ports.JobKind
	bar  *progressbar.ProgressBar
}

func (p *phaseBars) update(kind ports.JobKind, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil || p.kind != kind {
		if p.bar != nil && !p.bar.IsFinished() {
			_ = p.bar.Finish()
		}
		p.kind = kind
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription(fmt.Sprintf("[cyan]Rating %ss[reset]", kind)),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.out) }),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}
	if total != p.bar.GetMax() {
		p.bar.ChangeMax(total)
	}
	_ = p.bar.Set(done)
}

func (p *phaseBars) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil && !p.bar.IsFinished() {
		_ = p.bar.Finish()
	}
}

func printReport(w io.Writer, r recompute.Report) {
	fmt.Fprintf(w, "%s batch %s\n", colorInfo("→"), r.Batch)
	for _, phase := range []struct {
		name string
		p    recompute.PhaseReport
	}{
		{"urls", r.Urls},
		{"organizations", r.Organizations},
	} {
		fmt.Fprintf(w, "  %-14s completed=%s failed=%s queued=%s\n", phase.name,
			formatCount(phase.p.Completed, false), formatCount(phase.p.Failed, true), formatCount(phase.p.Queued, true))
	}
	if r.Failed() == 0 && r.Urls.Queued == 0 && r.Organizations.Queued == 0 {
		fmt.Fprintf(w, "%s done\n", colorSuccess("✓"))
	}
}
