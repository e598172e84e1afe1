package cli

import (
	"github.com/spf13/cobra"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/ports"
)

// Deps carries everything the filings CLI needs. Enricher and Vector talk
// to the live index; Registry resolves company arguments before any remote
// call happens.
type Deps struct {
	Registry *domain.Registry
	Vector   ports.VectorStore
	Enricher ports.Enricher
}

func NewRootCommand(deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "filings",
		Short: "Manage vector-index metadata for tracked 10-K filings",
		Long: `Operational CLI for the semiconductor filings index.

Enriches chunk metadata with located page numbers and sections, inspects
and exports what the index holds, and purges a company's records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newEnrichCommand(deps),
		newStatusCommand(deps),
		newInspectCommand(deps),
		newFetchCommand(deps),
		newExportCommand(deps),
		newPurgeCommand(deps),
	)
	return root
}
