package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds flags shared by every command
type GlobalFlags struct {
	ConfigFile string
}

// VerifyFlags holds the verification command flags
type VerifyFlags struct {
	Verbose       int
	Samples       int
	HashAll       bool
	Follow        bool
	OneFilesystem bool
	Ignore        []string
	Exclude       []string
	Report        string
	ReportFormat  string
	Progress      bool
	Bandwidth     string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

// addGlobalFlags adds global flags to the root command
func addGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVar(
		&flags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/backup-verify/config.yaml)",
	)
}

// addVerifyFlags adds the verification flags to the root command
func addVerifyFlags(cmd *cobra.Command, flags *VerifyFlags) {
	cmd.Flags().CountVarP(&flags.Verbose, "verbose", "v", "verbosity: -v prints directory comparisons, -vv every file")
	cmd.Flags().IntVarP(&flags.Samples, "samples", "s", 0, "number of random 32-byte windows compared per file (0 disables)")
	cmd.Flags().BoolVar(&flags.HashAll, "all", false, "compare the full content of every file with BLAKE3")
	cmd.Flags().BoolVar(&flags.Follow, "follow", false, "follow symlinks and compare what they point to")
	cmd.Flags().BoolVarP(&flags.OneFilesystem, "one-filesystem", "x", false, "do not descend into directories on other filesystems")
	cmd.Flags().StringArrayVarP(&flags.Ignore, "ignore", "i", nil, "path to skip in both trees (repeatable)")
	cmd.Flags().StringArrayVar(&flags.Exclude, "exclude", nil, "glob pattern to skip, e.g. '**/.cache' (repeatable)")

	cmd.Flags().StringVar(&flags.Report, "report", "", "write every finding to file")
	cmd.Flags().StringVar(&flags.ReportFormat, "report-format", "human", "findings report format: human, json")
	cmd.Flags().BoolVar(&flags.Progress, "progress", false, "show a progress bar on stderr when it is a terminal")
	cmd.Flags().StringVar(&flags.Bandwidth, "bwlimit", "", "limit hashing reads, e.g. \"20MB\" per second")

	// Logging flags
	cmd.Flags().StringVar(&flags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&flags.LogFormat, "log-format", "json", "log format: text, json")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
}
