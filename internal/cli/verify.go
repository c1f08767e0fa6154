package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sdejongh/backupverify/pkg/compare"
	"github.com/sdejongh/backupverify/pkg/config"
	"github.com/sdejongh/backupverify/pkg/logging"
	"github.com/sdejongh/backupverify/pkg/models"
	"github.com/sdejongh/backupverify/pkg/output"
	"github.com/sdejongh/backupverify/pkg/ratelimit"
	"github.com/sdejongh/backupverify/pkg/storage"
	"github.com/sdejongh/backupverify/pkg/verify"
	"github.com/spf13/cobra"
)

func (a *app) runVerify(cmd *cobra.Command, origArg, backupArg string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, err := loadConfig(a.global.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	applyFlagsToConfig(cmd, &a.verify, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	origRoot, err := resolveRoot("original", origArg)
	if err != nil {
		return err
	}
	backupRoot, err := resolveRoot("backup", backupArg)
	if err != nil {
		return err
	}
	if origRoot == backupRoot {
		fmt.Fprintln(a.stderr, "Warning: original and backup are the same directory")
	}

	ignore, err := buildIgnoreSet(cfg, origRoot, backupRoot)
	if err != nil {
		return err
	}

	rate, err := ratelimit.ParseRate(cfg.Performance.BandwidthLimit)
	if err != nil {
		return &models.ValidationError{Field: "bwlimit", Message: err.Error()}
	}

	// Create storage backends
	orig, err := storage.NewLocal(origRoot)
	if err != nil {
		return fmt.Errorf("failed to create original backend: %w", err)
	}
	defer orig.Close()

	backup, err := storage.NewLocal(backupRoot)
	if err != nil {
		return fmt.Errorf("failed to create backup backend: %w", err)
	}
	defer backup.Close()

	// Create logger
	runID := uuid.New().String()
	baseLogger, err := createLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer baseLogger.Close()
	logger := baseLogger.WithFields(logging.Fields{"version": Version})
	ctx = logging.ContextWithFields(ctx, logging.Fields{
		"run_id":   runID,
		"original": origRoot,
		"backup":   backupRoot,
	})

	// Content tiers
	content := compare.NewContentComparer(compare.Options{
		Samples:    cfg.Verify.Samples,
		HashAll:    cfg.Verify.HashAll,
		BufferSize: cfg.Performance.BufferSize,
	})
	limiter := ratelimit.NewLimiter(rate)
	if limiter != nil {
		content.SetReaderWrapper(limiter.Wrapper(ctx))
	}

	// Output sinks
	printer := output.NewPrinter(a.stdout)
	var sink output.Sink = printer
	var collector *output.Collector
	if cfg.Output.Report != "" {
		collector = output.NewCollector()
		sink = output.Tee{printer, collector}
	}

	v := verify.New(orig, backup, content, sink, logger, verify.Options{
		Verbosity:     cfg.Verify.Verbosity,
		Follow:        cfg.Verify.Follow,
		OneFilesystem: cfg.Verify.OneFilesystem,
		Ignore:        ignore,
	})

	var bytesRead atomic.Int64
	var progress *output.Progress
	if f, ok := a.stderr.(*os.File); ok && cfg.Output.Progress && output.IsTerminal(f) {
		progress = output.NewProgress(f, v.Stats())
	}
	content.SetByteCounter(func(n int64) {
		bytesRead.Add(n)
		if progress != nil {
			progress.AddBytes(n)
		}
	})

	logger.Info(ctx, "run configured", logging.Fields{
		"samples":        cfg.Verify.Samples,
		"hash_all":       cfg.Verify.HashAll,
		"one_filesystem": cfg.Verify.OneFilesystem,
		"ignored":        ignore.Len(),
		"bwlimit":        limiter.String(),
	})

	start := time.Now()
	if progress != nil {
		progress.Start(ctx, origRoot)
	}
	runErr := v.Run(ctx)
	if progress != nil {
		progress.Stop()
	}
	end := time.Now()

	interrupted := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
	if runErr != nil && !interrupted {
		printer.Flush()
		return fmt.Errorf("verification failed: %w", runErr)
	}

	snap := v.Stats().Snapshot()
	if interrupted {
		printer.Flush()
		fmt.Fprintln(a.stderr, "\nInterrupted!")
	}
	printer.Summary(snap)
	if err := printer.Flush(); err != nil {
		fmt.Fprintf(a.stderr, "Warning: failed to write output: %v\n", err)
	}

	report := &models.RunReport{
		RunID:        runID,
		OriginalRoot: origRoot,
		BackupRoot:   backupRoot,
		Options: models.RunOptions{
			Samples:        cfg.Verify.Samples,
			HashAll:        cfg.Verify.HashAll,
			Follow:         cfg.Verify.Follow,
			OneFilesystem:  cfg.Verify.OneFilesystem,
			Verbosity:      cfg.Verify.Verbosity,
			BandwidthLimit: limiter.Rate(),
		},
		StartTime:   start,
		EndTime:     end,
		Duration:    end.Sub(start),
		Stats:       snap,
		Interrupted: interrupted,
	}

	logger.Info(ctx, "output written", logging.Fields{
		"lines":      printer.Lines(),
		"bytes_read": humanize.Bytes(uint64(bytesRead.Load())),
	})

	if collector != nil {
		report.Findings = collector.Findings()
		if err := output.WriteFindingsReport(report, cfg.Output.Report, cfg.Output.ReportFormat); err != nil {
			fmt.Fprintf(a.stderr, "Warning: %v\n", err)
		}
	}

	a.exitCode = report.ExitCode()
	return nil
}

// createLogger creates a logger based on configuration
func createLogger(cfg config.LoggingConfig) (logging.Logger, error) {
	// If no log file specified, return null logger
	if cfg.File == "" {
		return logging.NewNullLogger(), nil
	}

	format := logging.FormatText
	if cfg.Format == "json" {
		format = logging.FormatJSON
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.File,
		Format:     format,
		Level:      logging.ParseLevel(cfg.Level),
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	})
}
