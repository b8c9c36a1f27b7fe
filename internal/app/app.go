package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/config"
	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/damage"
	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/optimizer"
	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/output"
)

type Options struct {
	UseExamples bool
	// NoExport skips the XLSX export.
	NoExport bool
}

// RunWithOptions executes the build optimization flow and returns the desired process exit code.
func RunWithOptions(opts Options) int {
	appRoot, err := FindRoot()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return codeFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return exitCode(run(ctx, appRoot, opts, os.Stdout, os.Stderr))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := asExitError(err); ok {
		if ee.Err != nil && ee.Code != 0 {
			fmt.Fprintln(os.Stderr, ee.Err)
		}
		return ee.Code
	}
	fmt.Fprintln(os.Stderr, err)
	return codeFailure
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func requestFor(b config.Bundle) optimizer.Request {
	return optimizer.Request{
		Weapon:        b.Weapon,
		Flags:         b.Flags,
		Fixed:         b.Fixed,
		Available:     b.Available,
		SlotBudget:    b.SlotBudget,
		TopN:          b.TopN,
		Workers:       b.Workers,
		MaxCandidates: b.MaxCandidates,
	}
}

// loadBundle reads the data file and applies environment overrides.
func loadBundle(appRoot string, opts Options) (config.Bundle, string, error) {
	overrides, err := config.ParseOverrides()
	if err != nil {
		return config.Bundle{}, "", ExitWithError(codeConfig, err)
	}

	path := config.Path(appRoot, opts.UseExamples)
	if overrides.ConfigPath != "" {
		path = overrides.ConfigPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(appRoot, path)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Bundle{}, path, ExitWithError(codeConfig, err)
	}
	bundle, err := config.NewBuilder(cfg).WithOverrides(overrides).Build()
	if err != nil {
		return config.Bundle{}, path, ExitWithError(codeConfig, fmt.Errorf("%s: %w", filepath.Base(path), err))
	}
	return bundle, path, nil
}

func run(ctx context.Context, appRoot string, opts Options, stdout, stderr io.Writer) error {
	totalStart := time.Now()

	bundle, path, err := loadBundle(appRoot, opts)
	if err != nil {
		return err
	}

	log := newLogger(stderr, bundle.LogLevel)
	space := optimizer.CountCandidates(len(bundle.Available), bundle.SlotBudget)
	log.Info("optimizing",
		"config", path,
		"weapon", bundle.Weapon.Name,
		"fixed", len(bundle.Fixed),
		"available", len(bundle.Available),
		"slot_budget", bundle.SlotBudget,
		"search_space", space,
		"workers", bundle.Workers,
	)

	req := requestFor(bundle)
	req.OnProgress = newProgress(log, 10).report

	searchStart := time.Now()
	outcome, err := optimizer.Optimize(ctx, req)
	if err != nil {
		if errors.Is(err, damage.ErrConfig) {
			return ExitWithError(codeConfig, err)
		}
		return fmt.Errorf("optimize: %w", err)
	}
	searchElapsed := time.Since(searchStart)
	log.Debug("search finished", "evaluated", outcome.Evaluated, "skipped", outcome.Skipped)

	output.PrintResults(stdout, outcome, bundle)

	if !opts.NoExport {
		xlsxPath, err := output.ExportXLSX(appRoot, bundle, outcome)
		if err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
		log.Info("exported results", "path", xlsxPath)
	}

	// Timing summary
	totalElapsed := time.Since(totalStart)
	appElapsed := max(totalElapsed-searchElapsed, 0)
	log.Info("timing",
		"total", totalElapsed.Round(time.Millisecond),
		"app", appElapsed.Round(time.Millisecond),
		"search", searchElapsed.Round(time.Millisecond),
	)
	log.Info("finished", "at", time.Now().Format(time.RFC3339))
	return nil
}
