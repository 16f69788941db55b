package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// DefaultPatterns selects the image files that count as assets
var DefaultPatterns = []string{"*.{jpg,jpeg,png,webp,gif,avif,svg}"}

// DefaultURLPrefix is prepended to category/filename to form asset paths
const DefaultURLPrefix = "/assets"

// Repository implements ports.AssetStore over <root>/<category>/<file>
type Repository struct {
	root      string
	urlPrefix string
	patterns  []string
}

// Ensure Repository implements AssetStore
var _ ports.AssetStore = (*Repository)(nil)

// NewRepository creates a new filesystem asset repository. Patterns are
// doublestar globs matched against lower-cased file names.
func NewRepository(root, urlPrefix string, patterns []string) (*Repository, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(root, "~") {
		home, _ := os.UserHomeDir()
		root = filepath.Join(home, root[1:])
	}
	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if !doublestar.ValidatePattern(p) {
			return nil, &application.ValidationError{
				Field:   "patterns",
				Message: fmt.Sprintf("invalid glob: %q", p),
			}
		}
		lowered = append(lowered, p)
	}
	return &Repository{
		root:      root,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		patterns:  lowered,
	}, nil
}

// Root returns the expanded asset root directory
func (r *Repository) Root() string {
	return r.root
}

// Categories returns the visible directories directly under the root
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, application.Unavailable("assets", fmt.Errorf("failed to read asset root: %w", err))
	}

	var categories []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		categories = append(categories, entry.Name())
	}

	sort.Strings(categories)
	return categories, nil
}

// ListAssets enumerates image files in each category, sorted by path.
// Missing or unreadable categories contribute nothing.
func (r *Repository) ListAssets(ctx context.Context, categories []string) ([]domain.AssetDescriptor, error) {
	all, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		categories = all
	}

	// Category names from records may differ in case from directory names
	dirs := make(map[string]string, len(all))
	for _, c := range all {
		dirs[domain.CategoryKey(c)] = c
	}

	seen := make(map[string]bool)
	var assets []domain.AssetDescriptor
	for _, requested := range categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir, ok := dirs[domain.CategoryKey(requested)]
		if !ok || seen[dir] {
			continue
		}
		seen[dir] = true
		assets = append(assets, r.listCategory(dir)...)
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Path < assets[j].Path
	})
	return assets, nil
}

func (r *Repository) listCategory(category string) []domain.AssetDescriptor {
	entries, err := os.ReadDir(filepath.Join(r.root, category))
	if err != nil {
		return nil
	}

	var assets []domain.AssetDescriptor
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !r.matches(name) {
			continue
		}
		assets = append(assets, domain.AssetDescriptor{
			Category: category,
			Filename: name,
			Path:     r.urlPrefix + "/" + category + "/" + name,
		})
	}
	return assets
}

func (r *Repository) matches(filename string) bool {
	lower := strings.ToLower(filename)
	for _, p := range r.patterns {
		if ok, _ := doublestar.Match(p, lower); ok {
			return true
		}
	}
	return false
}
