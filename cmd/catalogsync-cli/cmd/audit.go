package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"catalogsync/internal/application/commands"
)

var auditCategory string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report how catalog records line up with the asset pool",
	Long: `Audit classifies every record as matched, mismatched, orphan or
unassigned and lists the corrections apply would make. Nothing is written.

Examples:
  catalogsync-cli audit
  catalogsync-cli audit --category engine
  catalogsync-cli audit --json > audit.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := GetApp(ctx)
		if err != nil {
			return err
		}

		result, err := commands.NewAuditCommand(a.Engine, auditCategory).Execute(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}
		printAudit(result)
		return nil
	},
}

func printAudit(r *commands.AuditResult) {
	s := r.Stats
	fmt.Printf("Records: %d (%d with image)  Assets: %d (%d unused)\n",
		s.TotalRecords, s.WithAsset, s.TotalAssets, s.UnusedAssets)
	fmt.Printf("Matched: %d  Mismatched: %d  Orphans: %d  Unassigned: %d  Placeholders: %d\n",
		s.Matched, s.Mismatched, s.Orphans, s.Unassigned, s.Placeholders)
	fmt.Printf("Duplicate groups: %d (%d records)  Match rate: %.1f%%  Threshold: %.2f\n\n",
		s.DuplicateGroups, s.DuplicateRecords, s.MatchRatePercent, s.Threshold)

	categories := make([]string, 0, len(r.CategoryBreakdown))
	for c := range r.CategoryBreakdown {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tRECORDS\tMATCHED\tMISMATCHED\tORPHANS\tUNASSIGNED\tASSETS\tUNUSED")
	for _, c := range categories {
		b := r.CategoryBreakdown[c]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			c, b.Records, b.Matched, b.Mismatched, b.Orphans, b.Unassigned, b.Assets, b.UnusedAssets)
	}
	w.Flush()

	if len(r.UpdateSuggestions) == 0 {
		fmt.Println("\nNo corrections proposed.")
		return
	}
	fmt.Printf("\n%d proposed corrections:\n", len(r.UpdateSuggestions))
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFROM\tTO\tREASON\tCONFIDENCE")
	for _, e := range r.UpdateSuggestions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\n", e.RecordID, e.RecordName, orDash(e.FromRef), e.ToRef, e.Reason, e.Confidence)
	}
	w.Flush()
}

func init() {
	auditCmd.Flags().StringVar(&auditCategory, "category", "", "only audit records of this category")
	rootCmd.AddCommand(auditCmd)
}
