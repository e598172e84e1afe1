package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chipfilings/assistant/internal/bootstrap"
	"github.com/chipfilings/assistant/internal/cli"
	"github.com/chipfilings/assistant/internal/config"
	"github.com/chipfilings/assistant/internal/observability/logging"
)

func main() {
	cfg, err := config.LoadCLI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger("filings-cli", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewCLI(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	root := cli.NewRootCommand(cli.Deps{
		Registry: app.Registry,
		Vector:   app.Vector,
		Enricher: app.EnrichUC,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
