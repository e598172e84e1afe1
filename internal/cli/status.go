package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chipfilings/assistant/internal/core/domain"
)

const statusFetchLimit = 10000

func newStatusCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status [company]",
		Short: "Show index totals and enrichment coverage for a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceFile, err := deps.Registry.SourceFileFor(args[0])
			if err != nil {
				return err
			}

			stats, err := deps.Vector.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read index stats: %w", err)
			}

			records, err := deps.Vector.FetchByFilter(cmd.Context(), domain.SearchFilter{SourceFile: sourceFile}, statusFetchLimit)
			if err != nil {
				return fmt.Errorf("fetch records: %w", err)
			}

			enriched := 0
			for _, record := range records {
				if record.Enriched() {
					enriched++
				}
			}

			cmd.Printf("Index: %d vectors, dimension %d\n", stats.TotalVectorCount, stats.Dimension)
			cmd.Printf("%s [%s]\n", args[0], sourceFile)
			cmd.Printf("  records:  %d\n", len(records))
			cmd.Printf("  enriched: %d\n", enriched)
			cmd.Printf("  pending:  %d\n", len(records)-enriched)
			return nil
		},
	}
}
