package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sdejongh/backupverify/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version, cli.Commit, cli.BuildDate = version, commit, date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		// a second interrupt gets the default handler and kills the process
		<-ctx.Done()
		stop()
	}()

	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}
