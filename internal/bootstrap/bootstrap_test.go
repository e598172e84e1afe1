package bootstrap

import (
	"context"
	"testing"

	"github.com/chipfilings/assistant/internal/config"
)

// The CLI bootstraps before cobra parses the company argument, so wiring
// must not reach the Pinecone control plane even when the index host is
// left for discovery.
func TestNewCLIWiresWithoutVectorTraffic(t *testing.T) {
	cfg := config.Config{
		PineconeAPIKey:    "test-key",
		PineconeIndexName: "filings",
		SectionsDir:       t.TempDir(),
		FilingsDir:        t.TempDir(),
	}

	app, err := NewCLI(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewCLI() error = %v", err)
	}
	defer app.Close()

	if app.Vector == nil || app.EnrichUC == nil {
		t.Fatal("incomplete CLI wiring")
	}
	if len(app.Registry.Companies()) == 0 {
		t.Fatal("expected default registry")
	}
}
