package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/webbuilder/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var cli CLI
	parser := kong.Parse(&cli,
		kong.Name("webbuilder"),
		kong.Description("Build, serve and develop JavaScript bundles from a webbuilder.yaml project file."),
		kong.Vars{"version": version.String()},
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.UsageOnError(),
	)

	err := parser.Run()
	stop()
	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
