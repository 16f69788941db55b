package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"catalogsync/internal/application"
	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the catalog store",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <records.json>",
	Short: "Upsert catalog records from a JSON file",
	Long: `Import inserts or replaces records by id. The file holds a JSON array
of {"id", "name", "category", "assetRef"} objects; use - for stdin.
On PostgreSQL the table is created when missing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := readRecords(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := GetApp(ctx)
		if err != nil {
			return err
		}
		importer, err := a.Importer(ctx)
		if err != nil {
			return err
		}

		n, err := commands.NewImportCatalogCommand(importer, records).Execute(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]int{"imported": n})
		}
		fmt.Printf("Imported %d record(s)\n", n)
		return nil
	},
}

func readRecords(path string) ([]domain.CatalogRecord, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	var records []domain.CatalogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &application.ValidationError{
			Field:   "records",
			Message: fmt.Sprintf("invalid JSON: %v", err),
		}
	}
	return records, nil
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}
