package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chipfilings/assistant/internal/core/domain"
)

const inspectFetchLimit = 1000

func newInspectCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [keyword]",
		Short: "List index records whose source file matches a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := strings.ToLower(args[0])

			// Pinecone filters have no substring operator, so records are
			// read in bulk and matched client side.
			records, err := deps.Vector.FetchByFilter(cmd.Context(), domain.SearchFilter{}, inspectFetchLimit)
			if err != nil {
				return fmt.Errorf("fetch records: %w", err)
			}

			matched := 0
			for _, record := range records {
				if !strings.Contains(strings.ToLower(record.SourceFile()), keyword) {
					continue
				}
				matched++
				cmd.Printf("[%d] %s\n", matched, record.ID)
				cmd.Printf("    source: %s  page: %d  section: %s\n",
					record.SourceFile(), record.PageNumber(), orDash(record.HierarchicalSection()))
				cmd.Printf("    text: %s\n", truncate(record.Text(), 160))
			}
			if matched == 0 {
				cmd.Printf("No records with source file matching %q.\n", args[0])
				return nil
			}
			cmd.Printf("Found %d records with source file matching %q.\n", matched, args[0])
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
