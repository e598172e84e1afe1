package cli

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/chipfilings/assistant/internal/core/domain"
)

const fetchSampleLimit = 50

func newFetchCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [company]",
		Short: "Fetch one random index record, optionally scoped to a company",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter domain.SearchFilter
			if len(args) == 1 {
				sourceFile, err := deps.Registry.SourceFileFor(args[0])
				if err != nil {
					return err
				}
				filter.SourceFile = sourceFile
			}

			records, err := deps.Vector.FetchByFilter(cmd.Context(), filter, fetchSampleLimit)
			if err != nil {
				return fmt.Errorf("fetch records: %w", err)
			}
			if len(records) == 0 {
				cmd.Println("No records found.")
				return nil
			}

			record := records[rand.Intn(len(records))]
			raw, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal record: %w", err)
			}
			cmd.Println(string(raw))
			return nil
		},
	}
}
