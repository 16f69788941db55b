package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"catalogsync/internal/adapters/editor"
	"catalogsync/internal/adapters/tui"
	"catalogsync/internal/bootstrap"
	"catalogsync/internal/config"
)

func main() {
	configFlag := flag.String("config", "", "path to the config file")
	category := flag.String("category", "", "only review records of this category")
	flag.Parse()

	if err := run(*configFlag, *category); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, category string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI; engine logs are discarded
	app, err := bootstrap.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer app.Close()

	reconciler := tui.EngineReconciler{
		Engine:   app.Engine,
		Category: category,
		Refresh:  app.ReloadRules,
	}
	model := tui.NewApp(reconciler, editor.NewOpener(cfg.Rules.Editor), cfg.Rules.Path)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
