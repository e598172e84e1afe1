package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chipfilings/assistant/internal/core/domain"
)

func newPurgeCommand(deps Deps) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge [company|all]",
		Short: "Delete one company's index records, or every record with 'all'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == scopeAll {
				if !yes {
					return fmt.Errorf("refusing to delete all records without --yes")
				}
				if err := deps.Vector.DeleteAll(cmd.Context()); err != nil {
					return fmt.Errorf("delete all records: %w", err)
				}
				cmd.Println("Deleted all records in the index")
				return nil
			}

			sourceFile, err := deps.Registry.SourceFileFor(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete records for %s without --yes", args[0])
			}

			if err := deps.Vector.DeleteByFilter(cmd.Context(), domain.SearchFilter{SourceFile: sourceFile}); err != nil {
				return fmt.Errorf("delete records: %w", err)
			}
			cmd.Printf("Deleted all records for %s [%s]\n", args[0], sourceFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
