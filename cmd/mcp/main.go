package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/chipfilings/assistant/internal/adapters/mcp"
	"github.com/chipfilings/assistant/internal/bootstrap"
	"github.com/chipfilings/assistant/internal/config"
	"github.com/chipfilings/assistant/internal/observability/logging"
)

func main() {
	useHTTP := flag.Bool("http", false, "serve MCP over streamable HTTP instead of stdio")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	// stdout is the stdio transport; keep logs on stderr.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewMCP(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap error", "error", err)
		os.Exit(1)
	}

	server, err := mcpadapter.NewServer(mcpadapter.Deps{
		Registry: app.Registry,
		Query:    app.QueryUC,
		Compare:  app.CompareUC,
		Web:      app.Web,
		TopK:     cfg.RAGTopK,
	})
	if err != nil {
		slog.Error("mcp server error", "error", err)
		os.Exit(1)
	}

	if *useHTTP {
		slog.Info("mcp listening", "port", cfg.MCPHTTPPort)
		if err := server.RunHTTP(ctx, ":"+cfg.MCPHTTPPort); err != nil {
			slog.Error("mcp http error", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := server.Run(ctx); err != nil {
		slog.Error("mcp stdio error", "error", err)
		os.Exit(1)
	}
}
