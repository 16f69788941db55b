// Package bootstrap wires the configured stores, rules and matcher into a
// single engine shared by the CLI, MCP server, HTTP server and TUI.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"catalogsync/internal/adapters/filesystem"
	"catalogsync/internal/adapters/postgres"
	"catalogsync/internal/adapters/rulesfile"
	"catalogsync/internal/adapters/sqlite"
	"catalogsync/internal/application"
	"catalogsync/internal/application/commands"
	"catalogsync/internal/config"
	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// catalogBackend is what both catalog adapters provide
type catalogBackend interface {
	ports.CatalogStore
	ports.CatalogImporter
	Close() error
}

// App owns the engine and the resources behind it
type App struct {
	Engine *commands.Engine
	Config *config.Config

	catalog catalogBackend
}

// New opens the configured catalog store, scans nothing yet, and loads the
// rules file. The caller must Close the app.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rules, err := rulesfile.Load(cfg.Rules.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	assets, err := filesystem.NewRepository(cfg.Assets.Root, cfg.Assets.URLPrefix, cfg.Assets.Patterns)
	if err != nil {
		return nil, err
	}

	catalog, err := openCatalog(ctx, cfg.Catalog)
	if err != nil {
		return nil, err
	}

	logger.Debug("engine ready",
		zap.String("driver", cfg.Catalog.Driver),
		zap.String("assets", assets.Root()),
		zap.Int("rules", len(rules.Rules)),
	)

	return &App{
		Engine: &commands.Engine{
			Catalog: catalog,
			Assets:  assets,
			Matcher: NewMatcher(cfg.Matching, rules),
			Rules:   rules,
			Executor: commands.ExecutorOptions{
				Concurrency: cfg.Apply.Concurrency,
				Retry: application.RetryPolicy{
					MaxRetries:      cfg.Apply.MaxRetries,
					InitialInterval: cfg.Apply.InitialBackoff,
					MaxInterval:     cfg.Apply.MaxBackoff,
				},
			},
			Logger: logger,
		},
		Config:  cfg,
		catalog: catalog,
	}, nil
}

// NewMatcher builds the matcher from config; placeholder substrings from
// config and the rules file are merged
func NewMatcher(cfg config.MatchingConfig, rules domain.RuleSet) *domain.Matcher {
	placeholders := append([]string{}, cfg.Placeholders...)
	placeholders = append(placeholders, rules.Placeholders...)
	return domain.NewMatcher(domain.MatchOptions{
		Threshold:      cfg.Threshold,
		StopWords:      cfg.StopWords,
		MinTokenLength: cfg.MinTokenLength,
		Placeholders:   placeholders,
	})
}

// ReloadRules re-reads the rules file and rebuilds the matcher. It must
// not run concurrently with engine commands.
func (a *App) ReloadRules() error {
	rules, err := rulesfile.Load(a.Config.Rules.Path)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	a.Engine.Rules = rules
	a.Engine.Matcher = NewMatcher(a.Config.Matching, rules)
	return nil
}

// Importer returns the catalog store for seeding. For PostgreSQL the
// table is created first if it does not exist.
func (a *App) Importer(ctx context.Context) (ports.CatalogImporter, error) {
	if pg, ok := a.catalog.(*postgres.CatalogStore); ok {
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}
	return a.catalog, nil
}

// Close releases the catalog store
func (a *App) Close() error {
	if a.catalog == nil {
		return nil
	}
	return a.catalog.Close()
}

func openCatalog(ctx context.Context, cfg config.CatalogConfig) (catalogBackend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.DSN, cfg.Table, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSQLite, "":
		store, err := sqlite.Open(cfg.DSN, cfg.Table)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, &application.ValidationError{
			Field:   "catalog.driver",
			Message: fmt.Sprintf("unknown driver %q", cfg.Driver),
		}
	}
}
