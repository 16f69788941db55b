package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsync/internal/domain"
)

func TestApplyCommand_DerivedPlanResolvesDuplicates(t *testing.T) {
	engine, catalog := sparkPlugEngine()
	ctx := context.Background()

	res, err := NewApplyCommand(engine, nil, "", false).Execute(ctx)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, ApplySummary{TotalUpdates: 1, SuccessCount: 1}, res.Summary)
	require.Len(t, res.Results, 1)
	assert.Equal(t, domain.ItemResult{ID: "2", Success: true, OldURL: dentalImage, NewURL: sparkPlugs}, res.Results[0])
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, dentalImage, catalog.ref("1"), "keeper retains its asset")
	assert.Equal(t, sparkPlugs, catalog.ref("2"))

	audit, err := NewAuditCommand(engine, "").Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, audit.Stats.DuplicateGroups)

	again, err := NewApplyCommand(engine, nil, "", false).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Summary.TotalUpdates)
	assert.Len(t, catalog.updates, 1)
}

func TestApplyCommand_CategoryScopeKeepsOtherCategoriesAssets(t *testing.T) {
	engine, catalog := crossCategoryEngine()
	ctx := context.Background()

	res, err := NewApplyCommand(engine, nil, "electrical", false).Execute(ctx)

	require.NoError(t, err)
	assert.Equal(t, 0, res.Summary.TotalUpdates)
	assert.Empty(t, catalog.updates)
	assert.Equal(t, iridiumPlugs, catalog.ref("1"))
	assert.Equal(t, alternator, catalog.ref("2"))
}

func TestApplyCommand_ScopedRunsNeverCreateDuplicates(t *testing.T) {
	newEngine := func() (*Engine, *fakeCatalog) {
		catalog := newFakeCatalog(
			domain.CatalogRecord{ID: "1", Name: "Spark Plugs Set", Category: "engine", AssetRef: dentalImage},
			domain.CatalogRecord{ID: "2", Name: "Spark Plug Set (4-Pack)", Category: "electrical", AssetRef: dentalImage},
			domain.CatalogRecord{ID: "3", Name: "Alternator", Category: "engine", AssetRef: "/assets/electrical/window-motor.jpg"},
			domain.CatalogRecord{ID: "4", Name: "Window Regulator Motor", Category: "electrical"},
			domain.CatalogRecord{ID: "5", Name: "Iridium Spark Plugs", Category: "electrical"},
		)
		assets := &fakeAssets{assets: []domain.AssetDescriptor{
			testAsset("electrical", "dental-image.jpg"),
			testAsset("electrical", "window-motor.jpg"),
			testAsset("electrical", "alternator.jpg"),
			testAsset("engine", "iridium-spark-plugs-set.webp"),
		}}
		return &Engine{
			Catalog: catalog,
			Assets:  assets,
			Matcher: domain.NewMatcher(domain.MatchOptions{Placeholders: []string{"dental-image"}}),
			Rules: domain.RuleSet{Rules: []domain.Rule{
				{Kind: domain.RuleKeyword, Keyword: "window", Target: "/assets/electrical/window-motor.jpg"},
			}},
		}, catalog
	}

	for _, order := range [][]string{
		{"electrical", "engine"},
		{"engine", "electrical"},
		{""},
	} {
		t.Run(strings.Join(order, ","), func(t *testing.T) {
			engine, _ := newEngine()
			ctx := context.Background()
			before, err := NewAuditCommand(engine, "").Execute(ctx)
			require.NoError(t, err)

			for _, category := range order {
				_, err := NewApplyCommand(engine, nil, category, false).Execute(ctx)
				require.NoError(t, err)

				after, err := NewAuditCommand(engine, "").Execute(ctx)
				require.NoError(t, err)
				assert.LessOrEqual(t, after.Stats.DuplicateRecords, before.Stats.DuplicateRecords,
					"applying %q grew duplicates: %v", category, after.DuplicateGroups)
				for _, g := range after.DuplicateGroups {
					assert.Equal(t, dentalImage, g.AssetRef, "new duplicate group: %v", g)
				}
			}
		})
	}
}

func TestApplyCommand_SuppliedPlanIsIdempotent(t *testing.T) {
	engine, catalog := sparkPlugEngine()
	ctx := context.Background()
	plan := domain.AssignmentPlan{
		{RecordID: "2", FromRef: dentalImage, ToRef: sparkPlugs, Reason: domain.ReasonDuplicate},
	}

	first, err := NewApplyCommand(engine, plan, "", false).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Summary.SuccessCount)

	second, err := NewApplyCommand(engine, plan, "", false).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, ApplySummary{TotalUpdates: 1, SkippedCount: 1}, second.Summary)
	assert.True(t, second.Results[0].Skipped)
	assert.Len(t, catalog.updates, 1, "second run must not write")
}

func TestApplyCommand_DryRunDoesNotWrite(t *testing.T) {
	engine, catalog := sparkPlugEngine()

	res, err := NewApplyCommand(engine, nil, "", true).Execute(context.Background())

	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.Summary.TotalUpdates)
	require.Len(t, res.Plan, 1)
	assert.Equal(t, sparkPlugs, res.Plan[0].ToRef)
	assert.Empty(t, catalog.updates)
}

func TestApplyCommand_PartialFailureContainment(t *testing.T) {
	catalog := newFakeCatalog(
		domain.CatalogRecord{ID: "1", Name: "A", AssetRef: "/assets/a/1.jpg"},
		domain.CatalogRecord{ID: "2", Name: "B", AssetRef: "/assets/a/2.jpg"},
		domain.CatalogRecord{ID: "3", Name: "C", AssetRef: "/assets/a/3.jpg"},
		domain.CatalogRecord{ID: "4", Name: "D", AssetRef: "/assets/a/4.jpg"},
	)
	catalog.failIDs["2"] = errors.New("row is locked")
	engine := &Engine{Catalog: catalog, Assets: &fakeAssets{}}
	plan := domain.AssignmentPlan{
		{RecordID: "1", ToRef: "/assets/b/1.jpg"},
		{RecordID: "2", ToRef: "/assets/b/2.jpg"},
		{RecordID: "3", ToRef: "/assets/a/3.jpg"}, // already there
		{RecordID: "4", ToRef: "/assets/b/4.jpg"},
		{RecordID: "99", ToRef: "/assets/b/99.jpg"}, // not in catalog
	}

	res, err := NewApplyCommand(engine, plan, "", false).Execute(context.Background())

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ApplySummary{TotalUpdates: 5, SuccessCount: 2, ErrorCount: 2, SkippedCount: 1}, res.Summary)

	ids := make([]string, len(res.Results))
	for i, r := range res.Results {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "99"}, ids, "results keep plan order")
	assert.Contains(t, res.Results[1].Error, "row is locked")
	assert.Contains(t, res.Results[4].Error, "not found")
	assert.Empty(t, res.Results[1].NewURL)

	assert.Equal(t, "/assets/b/1.jpg", catalog.ref("1"))
	assert.Equal(t, "/assets/a/2.jpg", catalog.ref("2"))
	assert.Equal(t, "/assets/b/4.jpg", catalog.ref("4"))
}

func TestBatchUpdateCommand(t *testing.T) {
	catalog := newFakeCatalog(
		domain.CatalogRecord{ID: "1", Name: "Fuel Pump", AssetRef: "/assets/engine/old.jpg"},
		domain.CatalogRecord{ID: "2", Name: "Alternator", AssetRef: "/assets/electrical/alternator.jpg"},
	)
	engine := &Engine{Catalog: catalog, Assets: &fakeAssets{}}

	res, err := NewBatchUpdateCommand(engine, []BatchUpdateItem{
		{ID: "1", AssetRef: "/assets/engine/fuel-pump.jpg"},
		{ID: "", AssetRef: "/assets/engine/orphan.jpg"},
		{ID: "2", AssetRef: "/assets/electrical/alternator.jpg"},
		{ID: "3", AssetRef: ""},
		{ID: "404", AssetRef: "/assets/engine/x.jpg"},
	}).Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ApplySummary{TotalUpdates: 5, SuccessCount: 1, ErrorCount: 3, SkippedCount: 1}, res.Summary)
	require.Len(t, res.Results, 5)

	assert.Equal(t, domain.ItemResult{ID: "1", Success: true, OldURL: "/assets/engine/old.jpg", NewURL: "/assets/engine/fuel-pump.jpg"}, res.Results[0])
	assert.Equal(t, "id: id is required", res.Results[1].Error)
	assert.True(t, res.Results[2].Skipped)
	assert.Equal(t, "3", res.Results[3].ID)
	assert.Equal(t, "assetRef: asset ref is required", res.Results[3].Error)
	assert.Contains(t, res.Results[4].Error, "not found")

	assert.Equal(t, []string{"1"}, catalog.updates)
}

func TestBatchUpdateCommand_Validate(t *testing.T) {
	engine := &Engine{Catalog: newFakeCatalog(), Assets: &fakeAssets{}}

	res, err := NewBatchUpdateCommand(engine, nil).Execute(context.Background())

	assert.Nil(t, res)
	if err == nil || !contains(err.Error(), "at least one update is required") {
		t.Errorf("expected validation error, got %v", err)
	}
}
