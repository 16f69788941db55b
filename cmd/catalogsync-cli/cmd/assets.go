package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"catalogsync/internal/application/commands"
)

var (
	assetCategories []string
	assetsUnused    bool
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List the asset pool and which records use each asset",
	Example: `  catalogsync-cli assets --unused
  catalogsync-cli assets --category engine --category electrical`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := GetApp(ctx)
		if err != nil {
			return err
		}

		usage, err := commands.NewListAssetsCommand(a.Engine, assetCategories, assetsUnused).Execute(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(usage)
		}

		if len(usage) == 0 {
			fmt.Println("No assets found")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PATH\tUSES\tRECORDS")
		for _, u := range usage {
			fmt.Fprintf(w, "%s\t%d\t%s\n", u.Path, u.Uses(), strings.Join(u.RecordIDs, ","))
		}
		return w.Flush()
	},
}

func init() {
	assetsCmd.Flags().StringSliceVar(&assetCategories, "category", nil, "asset categories to list (repeatable)")
	assetsCmd.Flags().BoolVar(&assetsUnused, "unused", false, "only assets no record references")
	rootCmd.AddCommand(assetsCmd)
}
