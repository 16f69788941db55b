package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"catalogsync/internal/application"
	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
)

var (
	applyCategory string
	applyDryRun   bool
	applyPlanFile string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Write proposed corrections to the catalog",
	Long: `Apply runs a fresh audit and writes every proposed correction, or
writes an explicit plan read from a file. Each record is updated
independently; records already pointing at the target are skipped, so
re-running apply is safe.

The plan file may be a JSON array of plan entries, or the output of
"audit --json" (its updateSuggestions are used).

Examples:
  catalogsync-cli apply --dry-run
  catalogsync-cli apply --category electrical
  catalogsync-cli audit --json > audit.json && catalogsync-cli apply --plan audit.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := GetApp(ctx)
		if err != nil {
			return err
		}

		var plan domain.AssignmentPlan
		if applyPlanFile != "" {
			plan, err = readPlan(applyPlanFile)
			if err != nil {
				return err
			}
		}

		result, err := commands.NewApplyCommand(a.Engine, plan, applyCategory, applyDryRun).Execute(ctx)
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

// readPlan loads a plan from path, or stdin for "-"
func readPlan(path string) (domain.AssignmentPlan, error) {
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
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return decodePlan(data)
}

func decodePlan(data []byte) (domain.AssignmentPlan, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrapper struct {
			Plan              domain.AssignmentPlan `json:"plan"`
			UpdateSuggestions domain.AssignmentPlan `json:"updateSuggestions"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", application.ErrInvalidPlan, err)
		}
		if wrapper.Plan != nil {
			return wrapper.Plan, nil
		}
		if wrapper.UpdateSuggestions != nil {
			return wrapper.UpdateSuggestions, nil
		}
		return nil, fmt.Errorf("%w: object has neither plan nor updateSuggestions", application.ErrInvalidPlan)
	}

	plan := domain.AssignmentPlan{}
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", application.ErrInvalidPlan, err)
	}
	return plan, nil
}

func printApplyResult(r *commands.ApplyResult) {
	if r.DryRun {
		fmt.Printf("Dry run: %d correction(s) would be written\n", r.Summary.TotalUpdates)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, e := range r.Plan {
			fmt.Fprintf(w, "%s\t%s\t->\t%s\t(%s)\n", e.RecordID, e.FromRef, e.ToRef, e.Reason)
		}
		w.Flush()
		return
	}

	s := r.Summary
	fmt.Printf("Run %s: %d total, %d updated, %d skipped, %d failed\n",
		r.RunID, s.TotalUpdates, s.SuccessCount, s.SkippedCount, s.ErrorCount)
	for _, item := range r.Results {
		switch {
		case !item.Success:
			fmt.Printf("  FAIL  %s  %s\n", item.ID, item.Error)
		case item.Skipped:
			if verbose {
				fmt.Printf("  skip  %s  %s\n", item.ID, item.NewURL)
			}
		default:
			fmt.Printf("  ok    %s  %s -> %s\n", item.ID, orDash(item.OldURL), item.NewURL)
		}
	}
}

// failedUpdates turns per-item failures into a non-zero exit
func failedUpdates(r *commands.ApplyResult) error {
	if r == nil || r.Summary.ErrorCount == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d update(s) failed", r.Summary.ErrorCount, r.Summary.TotalUpdates)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func init() {
	applyCmd.Flags().StringVar(&applyCategory, "category", "", "only correct records of this category")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "show the plan without writing")
	applyCmd.Flags().StringVar(&applyPlanFile, "plan", "", "apply this plan file instead of a fresh audit (- for stdin)")
	rootCmd.AddCommand(applyCmd)
}
