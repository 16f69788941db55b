package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsync/internal/application"
	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

type memCatalog struct {
	mu      sync.Mutex
	records map[string]domain.CatalogRecord
	listErr error
}

func (m *memCatalog) ListRecords(_ context.Context, filter ports.RecordFilter) ([]domain.CatalogRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CatalogRecord
	for _, r := range m.records {
		if filter.Category != "" && domain.CategoryKey(r.Category) != domain.CategoryKey(filter.Category) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memCatalog) UpdateRecordAsset(_ context.Context, id, assetRef string) (*domain.CatalogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, application.ErrNotFound)
	}
	r.AssetRef = assetRef
	m.records[id] = r
	return &r, nil
}

type memAssets []domain.AssetDescriptor

func (a memAssets) ListAssets(context.Context, []string) ([]domain.AssetDescriptor, error) {
	return a, nil
}

func (a memAssets) Categories(context.Context) ([]string, error) {
	return []string{"electrical", "engine"}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memCatalog) {
	t.Helper()
	catalog := &memCatalog{records: map[string]domain.CatalogRecord{
		"1": {ID: "1", Name: "Spark Plugs Set", Category: "engine", AssetRef: "/assets/electrical/dental-image.jpg"},
		"2": {ID: "2", Name: "Alternator", Category: "electrical", AssetRef: "/assets/electrical/alternator.jpg"},
	}}
	engine := &commands.Engine{
		Catalog: catalog,
		Assets: memAssets{
			{Category: "electrical", Filename: "alternator.jpg", Path: "/assets/electrical/alternator.jpg"},
			{Category: "electrical", Filename: "dental-image.jpg", Path: "/assets/electrical/dental-image.jpg"},
			{Category: "engine", Filename: "iridium-spark-plugs-set.webp", Path: "/assets/engine/iridium-spark-plugs-set.webp"},
		},
		Matcher:  domain.NewMatcher(domain.MatchOptions{Placeholders: []string{"dental-image"}}),
		Executor: commands.ExecutorOptions{Retry: application.NoRetry()},
	}
	srv := httptest.NewServer(NewServer(engine, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, catalog
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, resp)["status"])
}

func TestServer_Audit(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/audit")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]json.RawMessage](t, resp)
	for _, key := range []string{"stats", "categoryBreakdown", "productImageStatus", "updateSuggestions"} {
		assert.Contains(t, body, key)
	}

	var suggestions domain.AssignmentPlan
	require.NoError(t, json.Unmarshal(body["updateSuggestions"], &suggestions))
	require.Len(t, suggestions, 1)
	assert.Equal(t, "1", suggestions[0].RecordID)
	assert.Equal(t, "/assets/engine/iridium-spark-plugs-set.webp", suggestions[0].ToRef)
}

func TestServer_Apply(t *testing.T) {
	srv, catalog := newTestServer(t)

	dry, err := http.Post(srv.URL+"/apply", "application/json", strings.NewReader(`{"dryRun":true}`))
	require.NoError(t, err)
	dryResult := decodeBody[commands.ApplyResult](t, dry)
	assert.True(t, dryResult.DryRun)
	assert.Len(t, dryResult.Plan, 1)
	assert.Equal(t, "/assets/electrical/dental-image.jpg", catalog.records["1"].AssetRef)

	resp, err := http.Post(srv.URL+"/apply", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[commands.ApplyResult](t, resp)
	assert.True(t, result.Success)
	assert.Equal(t, commands.ApplySummary{TotalUpdates: 1, SuccessCount: 1}, result.Summary)
	assert.Equal(t, "/assets/engine/iridium-spark-plugs-set.webp", catalog.records["1"].AssetRef)
}

func TestServer_BatchUpdate(t *testing.T) {
	srv, catalog := newTestServer(t)

	body := `{"updates":[
		{"id":"2","assetRef":"/assets/electrical/alternator.jpg"},
		{"id":"1","assetRef":"/assets/engine/iridium-spark-plugs-set.webp"},
		{"id":"","assetRef":"/assets/x.jpg"}
	]}`
	resp, err := http.Post(srv.URL+"/batch-update", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[commands.ApplyResult](t, resp)
	assert.False(t, result.Success)
	assert.Equal(t, commands.ApplySummary{TotalUpdates: 3, SuccessCount: 1, ErrorCount: 1, SkippedCount: 1}, result.Summary)
	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].Skipped)
	assert.True(t, result.Results[1].Success)
	assert.False(t, result.Results[2].Success)
	assert.Equal(t, "/assets/engine/iridium-spark-plugs-set.webp", catalog.records["1"].AssetRef)
}

func TestServer_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		listErr    error
		wantStatus int
	}{
		{"empty batch", http.MethodPost, "/batch-update", `{"updates":[]}`, nil, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/apply", `{"plans":[]}`, nil, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/apply", `{`, nil, http.StatusBadRequest},
		{"bad unused flag", http.MethodGet, "/assets?unused=maybe", "", nil, http.StatusBadRequest},
		{"store down", http.MethodGet, "/audit", "", application.Unavailable("catalog", errors.New("connection refused")), http.StatusServiceUnavailable},
		{"wrong method", http.MethodGet, "/apply", "", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, catalog := newTestServer(t)
			catalog.listErr = tt.listErr

			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestServer_Assets(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/assets?unused=true")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	usage := decodeBody[[]commands.AssetUsage](t, resp)
	require.Len(t, usage, 1)
	assert.Equal(t, "/assets/engine/iridium-spark-plugs-set.webp", usage[0].Path)
}
