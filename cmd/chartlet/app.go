package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v2"

	"github.com/must-gpa/chartlet/internal/batch"
	"github.com/must-gpa/chartlet/internal/chart"
	"github.com/must-gpa/chartlet/internal/config"
	domerrors "github.com/must-gpa/chartlet/internal/errors"
	"github.com/must-gpa/chartlet/internal/logger"
	"github.com/must-gpa/chartlet/internal/resolver"
	"github.com/must-gpa/chartlet/internal/scraper"
)

// outputDirName is created under the home directory for saved bundles.
const outputDirName = "MUST_GPA"

// cliApp carries the dependencies shared by every subcommand.
type cliApp struct {
	logLevel string

	cfg      *config.Config
	logger   *logger.Logger
	resolver *resolver.Resolver
	batch    *batch.Runner
}

// setup loads configuration and builds the resolver. It is a no-op when
// the app was already wired.
func (a *cliApp) setup(stderr io.Writer) error {
	if a.resolver != nil {
		return nil
	}
	if a.cfg == nil {
		cfg, err := config.LoadForMode(config.CLIMode)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		a.cfg = cfg
	}

	a.logger = logger.NewWithWriter(a.logLevel, stderr).WithModule("cli")
	slog.SetDefault(a.logger.Logger)

	client := scraper.NewClient(scraper.Options{
		Timeout: a.cfg.ScraperTimeout,
		RPS:     a.cfg.ScraperRPS,
		Burst:   a.cfg.ScraperBurst,
	})
	res, err := resolver.New(client, nil, resolver.OptionsFromConfig(a.cfg))
	if err != nil {
		return err
	}
	a.resolver = res
	a.batch = batch.New(res, batch.Options{
		Workers: a.cfg.BatchWorkers,
		MaxSize: a.cfg.MaxRangeSize,
	})
	return nil
}

// defaultOutDir returns ~/MUST_GPA.
func defaultOutDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return outputDirName
	}
	return filepath.Join(home, outputDirName)
}

// bundleResult summarizes one saved PDF.
type bundleResult struct {
	Path    string
	Total   int
	Missing int
}

// bundle fetches every chart with a progress bar on w, stamps them and
// writes <outDir>/<name>.pdf.
func (a *cliApp) bundle(ctx context.Context, w io.Writer, refs []chart.Reference, name, outDir string) (bundleResult, error) {
	wrap := domerrors.NewWrapper("cli", "bundle")

	name = chart.SanitizeName(name)
	if name == "" {
		return bundleResult{}, domerrors.NewValidationError("name", "Please enter a name for the PDF file")
	}
	if outDir == "" {
		outDir = defaultOutDir()
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return bundleResult{}, wrap.Wrapf(err, "Error creating output directory %s", outDir)
	}

	bar := progressbar.NewOptions(len(refs),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Processing"),
	)
	start := time.Now()
	items, err := a.batch.Fetch(ctx, refs, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	_, _ = fmt.Fprintln(w)
	if err != nil {
		return bundleResult{}, wrap.Wrap(err, "Fetching charts was interrupted")
	}

	res := bundleResult{
		Path:  filepath.Join(outDir, name+".pdf"),
		Total: len(items),
	}
	for _, it := range items {
		if it.Err != nil {
			res.Missing++
		}
	}

	if err := writeBundle(res.Path, items); err != nil {
		return bundleResult{}, wrap.Wrapf(err, "Error converting or saving PDF: %v", err)
	}

	a.logger.WithField("path", res.Path).
		WithField("charts", res.Total).
		WithField("missing", res.Missing).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Bundle saved")
	return res, nil
}

// writeBundle writes the PDF to a temp file first so a failed write never
// leaves a truncated bundle at path.
func writeBundle(path string, items []batch.Item) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".chartlet-*.pdf")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := batch.Bundle(f, items); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func printBundle(w io.Writer, res bundleResult) {
	if res.Missing > 0 {
		_, _ = fmt.Fprintf(w, "%d of %d charts could not be fetched and were replaced by a roll number card.\n", res.Missing, res.Total)
	}
	_, _ = fmt.Fprintf(w, "PDF saved to %s\n", res.Path)
}
