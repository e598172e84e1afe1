package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chipfilings/assistant/internal/core/domain"
)

func newEnrichCommand(deps Deps) *cobra.Command {
	var (
		count  int
		all    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "enrich [company]",
		Short: "Locate page numbers and sections for a company's index records",
		Long: `Samples records from the company's filing in the vector index, locates
each chunk in the source PDF, and writes page number and section metadata
back to the index. --dry-run reports what would change without writing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Enricher == nil {
				return fmt.Errorf("enricher not configured")
			}

			summary, err := deps.Enricher.Enrich(cmd.Context(), domain.EnrichmentOptions{
				Company: args[0],
				Count:   count,
				All:     all,
				DryRun:  dryRun,
			})
			if err != nil {
				return err
			}

			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of records to sample")
	cmd.Flags().BoolVar(&all, "all", false, "process every unenriched record")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing anything")
	return cmd
}

func printSummary(cmd *cobra.Command, s *domain.EnrichmentSummary) {
	mode := ""
	if s.DryRun {
		mode = " (dry run)"
	}
	cmd.Printf("Enrichment for %s [%s]%s\n", s.Company, s.SourceFile, mode)
	cmd.Printf("  records in index: %d\n", s.TotalRecords)
	cmd.Printf("  candidates:       %d\n", s.Candidates)
	if s.Resumed > 0 {
		cmd.Printf("  resumed (skipped): %d\n", s.Resumed)
	}
	cmd.Printf("  processed:        %d\n", s.Processed)
	cmd.Printf("  enriched:         %d\n", s.Enriched)
	cmd.Printf("  failed:           %d\n", s.Failed)
	cmd.Printf("  success rate:     %.1f%%\n", s.SuccessRate())
}
