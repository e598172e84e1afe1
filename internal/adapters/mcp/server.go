package mcpadapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/ports"
	"github.com/chipfilings/assistant/internal/core/usecase"
)

const serverVersion = "1.0.0"

// Deps are the retrieval surfaces the MCP tools expose.
type Deps struct {
	Registry *domain.Registry
	Query    *usecase.QueryUseCase
	Compare  *usecase.CompareUseCase
	Web      ports.WebSearcher
	TopK     int
}

func (d Deps) validate() error {
	if d.Registry == nil {
		return fmt.Errorf("registry is required")
	}
	if d.Query == nil {
		return fmt.Errorf("query use case is required")
	}
	if d.Compare == nil {
		return fmt.Errorf("compare use case is required")
	}
	if d.Web == nil {
		return fmt.Errorf("web searcher is required")
	}
	return nil
}

// Server exposes filing retrieval as MCP tools over stdio or streamable HTTP.
type Server struct {
	deps   Deps
	server *mcp.Server
}

func NewServer(deps Deps) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("validating deps: %w", err)
	}
	if deps.TopK <= 0 {
		deps.TopK = 5
	}

	impl := &mcp.Implementation{
		Name:    "filings-assistant",
		Version: serverVersion,
	}

	s := &Server{
		deps:   deps,
		server: mcp.NewServer(impl, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves MCP over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves MCP over streamable HTTP on addr.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
