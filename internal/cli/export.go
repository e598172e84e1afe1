package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/chipfilings/assistant/internal/core/domain"
)

const exportSheet = "Records"

// scopeAll selects every record regardless of company.
const scopeAll = "all"

func newExportCommand(deps Deps) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export [company|all]",
		Short: "Export a metadata inventory workbook for one company or the whole index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, filter, err := resolveScope(deps, args[0])
			if err != nil {
				return err
			}

			records, err := deps.Vector.FetchByFilter(cmd.Context(), filter, statusFetchLimit)
			if err != nil {
				return fmt.Errorf("fetch records: %w", err)
			}
			if out == "" {
				out = args[0] + "_records.xlsx"
			}

			if err := writeWorkbook(out, records); err != nil {
				return err
			}
			cmd.Printf("Exported %d records from %s to %s\n", len(records), label, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output .xlsx path (default <company>_records.xlsx)")
	return cmd
}

// resolveScope maps a positional <company|all> argument to a fetch filter,
// rejecting unknown companies before any index call.
func resolveScope(deps Deps, arg string) (string, domain.SearchFilter, error) {
	if arg == scopeAll {
		return "all filings", domain.SearchFilter{}, nil
	}
	sourceFile, err := deps.Registry.SourceFileFor(arg)
	if err != nil {
		return "", domain.SearchFilter{}, err
	}
	return sourceFile, domain.SearchFilter{SourceFile: sourceFile}, nil
}

func writeWorkbook(path string, records []domain.VectorRecord) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	f.SetSheetName(f.GetSheetName(0), exportSheet)

	headers := []string{"ID", "Source File", "Page", "Section", "Exact Match", "Text"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, record := range records {
		row := i + 2
		values := []any{
			record.ID,
			record.SourceFile(),
			record.PageNumber(),
			record.HierarchicalSection(),
			domain.MetadataString(record.Metadata, "exact_match"),
			record.Text(),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("record cell: %w", err)
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return fmt.Errorf("write record %s: %w", record.ID, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
