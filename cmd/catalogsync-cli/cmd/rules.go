package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"catalogsync/internal/adapters/editor"
	"catalogsync/internal/adapters/rulesfile"
	"catalogsync/internal/domain"
)

var rulesForce bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the manual override rules file",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the rules file",
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := rulesfile.Load(cfg.Rules.Path)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(rs)
		}

		var keyword, fallback int
		for _, r := range rs.Rules {
			if r.Kind == domain.RuleKeyword {
				keyword++
			} else {
				fallback++
			}
		}
		fmt.Printf("%s: %d keyword rule(s), %d category fallback(s), %d placeholder(s)\n",
			cfg.Rules.Path, keyword, fallback, len(rs.Placeholders))
		return nil
	},
}

var rulesInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example rules file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfg.Rules.Path); err == nil && !rulesForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfg.Rules.Path)
		}
		if err := rulesfile.Save(cfg.Rules.Path, rulesfile.Example()); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", cfg.Rules.Path)
		return nil
	},
}

var rulesEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the rules file in your editor",
	Long: `Edit opens the rules file in the configured editor ($EDITOR when unset),
creating it from the example first if it does not exist. The file is
validated after the editor exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Rules.Path
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := rulesfile.Save(path, rulesfile.Example()); err != nil {
				return err
			}
		}

		if err := editor.NewOpener(cfg.Rules.Editor).OpenFile(path); err != nil {
			return err
		}
		if _, err := rulesfile.Load(path); err != nil {
			return fmt.Errorf("rules file saved but invalid: %w", err)
		}
		fmt.Printf("%s is valid\n", path)
		return nil
	},
}

func init() {
	rulesInitCmd.Flags().BoolVar(&rulesForce, "force", false, "overwrite an existing rules file")
	rulesCmd.AddCommand(rulesCheckCmd, rulesInitCmd, rulesEditCmd)
	rootCmd.AddCommand(rulesCmd)
}
