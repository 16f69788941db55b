package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// Engine bundles the injected stores and matching configuration every
// reconciliation command runs against
type Engine struct {
	Catalog  ports.CatalogStore
	Assets   ports.AssetStore
	Matcher  *domain.Matcher
	Rules    domain.RuleSet
	Executor ExecutorOptions
	Logger   *zap.Logger
}

func (e *Engine) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Engine) matcher() *domain.Matcher {
	if e.Matcher != nil {
		return e.Matcher
	}
	return domain.NewMatcher(domain.MatchOptions{Placeholders: e.Rules.Placeholders})
}

// NewExecutor returns a batch executor bound to the engine's catalog
func (e *Engine) NewExecutor() *Executor {
	return NewExecutor(e.Catalog, e.Executor, e.log())
}

// Snapshot is one point-in-time view of catalog and asset pool, classified
// and planned
type Snapshot struct {
	Records   []domain.CatalogRecord
	Inventory *domain.Inventory
	Report    *domain.Report
	Plan      domain.AssignmentPlan
}

// Snapshot reads both stores concurrently and runs classifier and planner.
// Either store failing aborts with no partial result. A category in the
// filter narrows the report and plan only: asset usage is decided across the
// whole catalog, so the records are always read in full.
func (e *Engine) Snapshot(ctx context.Context, filter ports.RecordFilter, categories []string) (*Snapshot, error) {
	if e.Catalog == nil || e.Assets == nil {
		return nil, errors.New("engine has no catalog or asset store")
	}
	scope := filter.Category
	filter.Category = ""

	var (
		records []domain.CatalogRecord
		assets  []domain.AssetDescriptor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = NewReadCatalogCommand(e.Catalog, filter, e.log()).Execute(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		assets, err = e.Assets.ListAssets(gctx, categories)
		if err != nil {
			return fmt.Errorf("failed to list assets: %w", asUnavailable("assets", err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := e.matcher()
	inv := domain.NewInventory(assets, m.Normalizer())
	report := domain.Classify(records, inv, m)
	plan := domain.NewPlanner(m, e.Rules).Plan(report, inv)
	if scope != "" {
		inScope := func(r domain.CatalogRecord) bool {
			return domain.CategoryKey(r.Category) == domain.CategoryKey(scope)
		}
		plan = plan.Within(report, inScope)
		report = report.Within(inScope)
	}

	e.log().Debug("snapshot classified",
		zap.Int("records", len(records)),
		zap.String("scope", scope),
		zap.Int("assets", inv.Len()),
		zap.Int("mismatched", len(report.Mismatched)),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int("duplicate_groups", len(report.DuplicateGroups)),
		zap.Int("proposals", len(plan)),
	)

	return &Snapshot{
		Records:   records,
		Inventory: inv,
		Report:    report,
		Plan:      plan,
	}, nil
}

// currentRefs looks up the live asset ref of each id once. Ids the store
// does not return are absent from the map.
func (e *Engine) currentRefs(ctx context.Context, ids []string) (map[string]string, error) {
	refs := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}
	records, err := e.Catalog.ListRecords(ctx, ports.RecordFilter{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("failed to look up current asset refs: %w", asUnavailable("catalog", err))
	}
	for _, r := range records {
		refs[r.ID] = r.AssetRef
	}
	return refs, nil
}

// asUnavailable marks a listing failure as fatal store unavailability
// unless the adapter already classified it
func asUnavailable(store string, err error) error {
	if application.IsTransient(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return application.Unavailable(store, err)
}
