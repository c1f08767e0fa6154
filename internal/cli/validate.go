package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sdejongh/backupverify/internal/platform"
	"github.com/sdejongh/backupverify/pkg/config"
	"github.com/sdejongh/backupverify/pkg/models"
	"github.com/sdejongh/backupverify/pkg/verify"
	"github.com/spf13/cobra"
)

// loadConfig loads configuration from file or returns default
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with the flags set on the command line
func applyFlagsToConfig(cmd *cobra.Command, flags *VerifyFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("verbose") {
		cfg.Verify.Verbosity = flags.Verbose
		if cfg.Verify.Verbosity > verify.VerbosityFiles {
			cfg.Verify.Verbosity = verify.VerbosityFiles
		}
	}
	if changed("samples") {
		cfg.Verify.Samples = flags.Samples
	}
	if changed("all") {
		cfg.Verify.HashAll = flags.HashAll
	}
	if changed("follow") {
		cfg.Verify.Follow = flags.Follow
	}
	if changed("one-filesystem") {
		cfg.Verify.OneFilesystem = flags.OneFilesystem
	}

	// Ignore paths and exclude patterns add to the configured ones
	cfg.Ignore = append(cfg.Ignore, flags.Ignore...)
	cfg.Exclude = append(cfg.Exclude, flags.Exclude...)

	if changed("report") {
		cfg.Output.Report = flags.Report
	}
	if changed("report-format") {
		cfg.Output.ReportFormat = flags.ReportFormat
	}
	if changed("progress") {
		cfg.Output.Progress = flags.Progress
	}
	if changed("bwlimit") {
		cfg.Performance.BandwidthLimit = flags.Bandwidth
	}

	if changed("log-file") {
		cfg.Logging.File = flags.LogFile
	}
	if changed("log-format") {
		cfg.Logging.Format = flags.LogFormat
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.LogLevel
	}
}

// resolveRoot canonicalizes a root argument and checks it is a directory
func resolveRoot(field, path string) (string, error) {
	canonical, err := platform.Canonicalize(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &models.ValidationError{Field: field, Message: "path does not exist: " + path}
		}
		return "", &models.ValidationError{Field: field, Message: fmt.Sprintf("cannot resolve %s: %v", path, err)}
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return "", &models.ValidationError{Field: field, Message: fmt.Sprintf("cannot access %s: %v", canonical, err)}
	}
	if !info.IsDir() {
		return "", &models.ValidationError{Field: field, Message: "not a directory: " + canonical}
	}
	return canonical, nil
}

// resolveIgnore turns an ignore argument into a path relative to one of the
// roots. The parent is canonicalized; the entry itself is not resolved, so a
// symlink can be ignored without ignoring its target.
func resolveIgnore(path, origRoot, backupRoot string) (string, error) {
	if err := platform.ValidatePath(path); err != nil {
		return "", &models.ValidationError{Field: "ignore", Message: err.Error()}
	}

	abs, err := filepath.Abs(platform.NormalizePath(path))
	if err != nil {
		return "", &models.ValidationError{Field: "ignore", Message: fmt.Sprintf("cannot resolve %s: %v", path, err)}
	}
	if _, err := os.Lstat(abs); err != nil {
		return "", &models.ValidationError{Field: "ignore", Message: "path does not exist: " + path}
	}

	canonical := abs
	if parent := filepath.Dir(abs); parent != abs {
		resolvedParent, err := filepath.EvalSymlinks(parent)
		if err != nil {
			return "", &models.ValidationError{Field: "ignore", Message: fmt.Sprintf("cannot resolve %s: %v", path, err)}
		}
		canonical = filepath.Join(resolvedParent, filepath.Base(abs))
	}

	if rel, ok := platform.RelWithin(origRoot, canonical); ok {
		return rel, nil
	}
	if rel, ok := platform.RelWithin(backupRoot, canonical); ok {
		return rel, nil
	}
	return "", &models.ValidationError{
		Field:   "ignore",
		Message: fmt.Sprintf("%s is not inside %s or %s", canonical, origRoot, backupRoot),
	}
}

// buildIgnoreSet validates ignore paths and exclude patterns
func buildIgnoreSet(cfg *config.Config, origRoot, backupRoot string) (*verify.IgnoreSet, error) {
	set := verify.NewIgnoreSet()

	for _, p := range cfg.Ignore {
		rel, err := resolveIgnore(p, origRoot, backupRoot)
		if err != nil {
			return nil, err
		}
		set.AddPath(rel)
	}

	for _, pattern := range cfg.Exclude {
		if err := set.AddPattern(pattern); err != nil {
			return nil, &models.ValidationError{Field: "exclude", Message: err.Error()}
		}
	}

	return set, nil
}
