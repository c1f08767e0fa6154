package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sdejongh/backupverify/pkg/models"
	"github.com/spf13/cobra"
)

// app carries the state of one command line invocation
type app struct {
	stdout io.Writer
	stderr io.Writer

	global GlobalFlags
	verify VerifyFlags

	exitCode int
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, exitCode: models.ExitClean}

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return models.ExitStartup
	}
	return a.exitCode
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup-verify [flags] <original> <backup>",
		Short: "Verify that a backup tree is a faithful copy of the original",
		Long: `backup-verify walks an original directory tree and its backup side by side
and reports every missing, extra or different entry. File contents are compared
by size, optionally by random samples and optionally by a full BLAKE3 hash.

Exit status is 0 when the trees match, 1 when differences or errors were
found, 2 on startup failure and 130 when interrupted.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, args[0], args[1])
		},
	}

	addGlobalFlags(cmd, &a.global)
	addVerifyFlags(cmd, &a.verify)

	cmd.AddCommand(newConfigCommand(a))
	cmd.AddCommand(newVersionCommand())

	return cmd
}
