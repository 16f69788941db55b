package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
)

func setupTestAssets(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := []string{
		"electrical/alternator.jpg",
		"electrical/dental-image.JPG",
		"electrical/window-motor.png",
		"electrical/notes.txt",
		"electrical/.DS_Store",
		"engine/iridium-spark-plugs-set.webp",
		"engine/turbocharger.avif",
		"engine/raw/unsorted.jpg",
		".cache/thumb.jpg",
		"empty/.keep",
	}
	for _, f := range files {
		p := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", f, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "stray.jpg"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write stray file: %v", err)
	}
	return root
}

func paths(assets []domain.AssetDescriptor) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Path
	}
	return out
}

func TestRepository_Categories(t *testing.T) {
	repo, err := NewRepository(setupTestAssets(t), "", nil)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}

	got, err := repo.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}

	want := []string{"electrical", "empty", "engine"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestRepository_ListAssets(t *testing.T) {
	repo, err := NewRepository(setupTestAssets(t), "", nil)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}

	tests := []struct {
		name       string
		categories []string
		expected   []string
	}{
		{
			name:       "all categories",
			categories: nil,
			expected: []string{
				"/assets/electrical/alternator.jpg",
				"/assets/electrical/dental-image.JPG",
				"/assets/electrical/window-motor.png",
				"/assets/engine/iridium-spark-plugs-set.webp",
				"/assets/engine/turbocharger.avif",
			},
		},
		{
			name:       "one category, case-insensitive",
			categories: []string{"Engine"},
			expected: []string{
				"/assets/engine/iridium-spark-plugs-set.webp",
				"/assets/engine/turbocharger.avif",
			},
		},
		{
			name:       "missing category yields nothing",
			categories: []string{"brakes"},
			expected:   []string{},
		},
		{
			name:       "empty and repeated categories",
			categories: []string{"empty", "engine", "ENGINE"},
			expected: []string{
				"/assets/engine/iridium-spark-plugs-set.webp",
				"/assets/engine/turbocharger.avif",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets, err := repo.ListAssets(context.Background(), tt.categories)
			if err != nil {
				t.Fatalf("ListAssets failed: %v", err)
			}
			got := paths(assets)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("expected %v, got %v", tt.expected, got)
					break
				}
			}
		})
	}
}

func TestRepository_DescriptorFields(t *testing.T) {
	repo, err := NewRepository(setupTestAssets(t), "https://cdn.example.com/img/", []string{"*.webp"})
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}

	assets, err := repo.ListAssets(context.Background(), []string{"engine"})
	if err != nil {
		t.Fatalf("ListAssets failed: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(assets))
	}

	want := domain.AssetDescriptor{
		Category: "engine",
		Filename: "iridium-spark-plugs-set.webp",
		Path:     "https://cdn.example.com/img/engine/iridium-spark-plugs-set.webp",
	}
	if assets[0] != want {
		t.Errorf("expected %+v, got %+v", want, assets[0])
	}
}

func TestRepository_MissingRootIsUnavailable(t *testing.T) {
	repo, err := NewRepository(filepath.Join(t.TempDir(), "nope"), "", nil)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}

	_, err = repo.ListAssets(context.Background(), nil)
	if !errors.Is(err, application.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestNewRepository_InvalidPattern(t *testing.T) {
	_, err := NewRepository(t.TempDir(), "", []string{"[unclosed"})

	var valErr *application.ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
