package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"catalogsync/internal/application/commands"
	"catalogsync/internal/config"
	"catalogsync/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	assetRoot := filepath.Join(dir, "assets")
	for _, f := range []string{"engine/iridium-spark-plugs-set.webp", "electrical/dental-image.jpg"} {
		p := filepath.Join(assetRoot, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}

	rules := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte(`version: 1
rules:
  - kind: keyword
    keyword: spark plug
    target: /assets/engine/iridium-spark-plugs-set.webp
placeholders: [coming-soon]
`), 0644))

	cfg := config.Default()
	cfg.Catalog.DSN = filepath.Join(dir, "catalog.db")
	cfg.Assets.Root = assetRoot
	cfg.Rules.Path = rules
	cfg.Matching.Placeholders = []string{"dental-image"}
	return &cfg
}

func TestNew_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	app, err := New(ctx, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	importer, err := app.Importer(ctx)
	require.NoError(t, err)
	_, err = importer.UpsertRecords(ctx, []domain.CatalogRecord{
		{ID: "1", Name: "Spark Plugs Set", Category: "engine", AssetRef: "/assets/electrical/dental-image.jpg"},
	})
	require.NoError(t, err)

	audit, err := commands.NewAuditCommand(app.Engine, "").Execute(ctx)
	require.NoError(t, err)
	require.Len(t, audit.UpdateSuggestions, 1)
	assert.Equal(t, "/assets/engine/iridium-spark-plugs-set.webp", audit.UpdateSuggestions[0].ToRef)
	assert.Equal(t, 1, audit.Stats.Placeholders)

	result, err := commands.NewApplyCommand(app.Engine, nil, "", false).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.SuccessCount)
}

func TestNewMatcher_MergesPlaceholders(t *testing.T) {
	m := NewMatcher(config.Default().Matching, domain.RuleSet{Placeholders: []string{"coming-soon"}})

	assert.True(t, m.IsPlaceholder("/assets/misc/coming-soon.png"))
	assert.False(t, m.IsPlaceholder("/assets/engine/turbocharger.avif"))
}

func TestNew_InvalidRules(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Rules.Path, []byte("rules: [{kind: regex, target: x}]"), 0644))

	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestApp_ReloadRules(t *testing.T) {
	cfg := testConfig(t)
	app, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer app.Close()
	require.Len(t, app.Engine.Rules.Rules, 1)

	require.NoError(t, os.WriteFile(cfg.Rules.Path, []byte(`placeholders: [no-photo]`), 0644))
	require.NoError(t, app.ReloadRules())

	assert.Empty(t, app.Engine.Rules.Rules)
	assert.True(t, app.Engine.Matcher.IsPlaceholder("/assets/misc/no-photo.png"))
	assert.False(t, app.Engine.Matcher.IsPlaceholder("/assets/misc/coming-soon.png"))
}
