package domain

import (
	"path"
	"strconv"
	"strings"
)

// CatalogRecord is a sellable item that may reference an image asset.
// Empty Category and AssetRef stand for null.
type CatalogRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	AssetRef string `json:"assetRef,omitempty"`
}

// HasAsset reports whether the record references an asset at all
func (r CatalogRecord) HasAsset() bool {
	return r.AssetRef != ""
}

// AssetDescriptor is one image file in the asset pool
type AssetDescriptor struct {
	Category string `json:"category"`
	Filename string `json:"filename"`
	Path     string `json:"path"` // e.g. /assets/engine/iridium-spark-plugs-set.webp
}

// CompareIDs orders opaque record identifiers. Integer identifiers compare
// numerically and sort before all others; the rest compare as strings.
func CompareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// CategoryKey canonicalizes a category name for lookups
func CategoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// Inventory is a point-in-time snapshot of the asset pool.
// It is read-only once built and safe for concurrent readers.
type Inventory struct {
	assets     []AssetDescriptor
	byPath     map[string]int
	bySuffix   map[string]int
	byCategory map[string][]int
	tokens     [][]string
}

// NewInventory indexes assets; duplicate paths keep the first descriptor.
// Tokens are computed once with the given normalizer.
func NewInventory(assets []AssetDescriptor, n *Normalizer) *Inventory {
	inv := &Inventory{
		byPath:     make(map[string]int, len(assets)),
		bySuffix:   make(map[string]int, len(assets)),
		byCategory: make(map[string][]int),
	}
	for _, a := range assets {
		if _, dup := inv.byPath[a.Path]; dup {
			continue
		}
		idx := len(inv.assets)
		inv.assets = append(inv.assets, a)
		inv.byPath[a.Path] = idx
		suffix := CategoryKey(a.Category) + "/" + strings.ToLower(a.Filename)
		if _, taken := inv.bySuffix[suffix]; !taken {
			inv.bySuffix[suffix] = idx
		}
		key := CategoryKey(a.Category)
		inv.byCategory[key] = append(inv.byCategory[key], idx)
		inv.tokens = append(inv.tokens, n.AssetTokens(a.Filename))
	}
	return inv
}

// Len returns the number of assets in the snapshot
func (inv *Inventory) Len() int {
	return len(inv.assets)
}

// All returns every asset in snapshot order
func (inv *Inventory) All() []AssetDescriptor {
	return inv.assets
}

// Resolve finds the asset an asset reference points to. Exact path
// matches win; otherwise the trailing category/filename of the reference
// is tried, so absolute URLs to the same file resolve too.
func (inv *Inventory) Resolve(ref string) (AssetDescriptor, bool) {
	idx, ok := inv.resolveIndex(ref)
	if !ok {
		return AssetDescriptor{}, false
	}
	return inv.assets[idx], true
}

func (inv *Inventory) resolveIndex(ref string) (int, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, false
	}
	if idx, ok := inv.byPath[ref]; ok {
		return idx, true
	}
	// Drop query strings and fragments from URLs
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	file := path.Base(ref)
	category := path.Base(path.Dir(ref))
	if file == "." || file == "/" || category == "." || category == "/" {
		return 0, false
	}
	idx, ok := inv.bySuffix[CategoryKey(category)+"/"+strings.ToLower(file)]
	return idx, ok
}

// InCategory returns the assets filed under a category (case-insensitive)
func (inv *Inventory) InCategory(category string) []AssetDescriptor {
	idxs := inv.byCategory[CategoryKey(category)]
	out := make([]AssetDescriptor, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, inv.assets[i])
	}
	return out
}

// Tokens returns the cached normalized tokens of an asset path
func (inv *Inventory) Tokens(assetPath string) []string {
	idx, ok := inv.byPath[assetPath]
	if !ok {
		return nil
	}
	return inv.tokens[idx]
}
