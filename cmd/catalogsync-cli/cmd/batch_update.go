package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"catalogsync/internal/application"
	"catalogsync/internal/application/commands"
)

var batchFile string

var batchUpdateCmd = &cobra.Command{
	Use:   "batch-update [ID=ASSET_REF...]",
	Short: "Set asset refs on specific records",
	Long: `Batch-update writes explicit asset refs, bypassing matching entirely.
Updates come from ID=ASSET_REF arguments, a JSON file of
[{"id": "...", "assetRef": "..."}] (--file, - for stdin), or both.

Examples:
  catalogsync-cli batch-update 42=/assets/engine/turbocharger.avif
  catalogsync-cli batch-update --file fixes.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		updates, err := collectUpdates(batchFile, args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := GetApp(ctx)
		if err != nil {
			return err
		}

		result, err := commands.NewBatchUpdateCommand(a.Engine, updates).Execute(ctx)
		if result != nil {
			if jsonOutput {
				if perr := printJSON(result); perr != nil {
					return perr
				}
			} else {
				printApplyResult(result)
			}
		}
		if err != nil {
			return err
		}
		return failedUpdates(result)
	},
}

func collectUpdates(file string, args []string) ([]commands.BatchUpdateItem, error) {
	var updates []commands.BatchUpdateItem

	if file != "" {
		var (
			data []byte
			err  error
		)
		if file == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read updates: %w", err)
		}
		if err := json.Unmarshal(data, &updates); err != nil {
			return nil, &application.ValidationError{
				Field:   "updates",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			}
		}
	}

	for _, arg := range args {
		id, ref, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, &application.ValidationError{
				Field:   "updates",
				Message: fmt.Sprintf("expected ID=ASSET_REF, got %q", arg),
			}
		}
		updates = append(updates, commands.BatchUpdateItem{ID: id, AssetRef: ref})
	}
	return updates, nil
}

func init() {
	batchUpdateCmd.Flags().StringVarP(&batchFile, "file", "f", "", "JSON file of updates (- for stdin)")
	rootCmd.AddCommand(batchUpdateCmd)
}
