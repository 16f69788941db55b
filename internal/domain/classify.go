package domain

import (
	"slices"
	"strings"
)

// Status is the classification of a record's current assignment
type Status string

const (
	StatusMatched    Status = "matched"
	StatusMismatched Status = "mismatched"
	StatusOrphan     Status = "orphan"     // reference does not resolve to any asset
	StatusUnassigned Status = "unassigned" // no reference at all
)

// RecordStatus is the classifier's verdict for one record
type RecordStatus struct {
	Record      CatalogRecord
	Status      Status
	Score       float64
	Asset       *AssetDescriptor // resolved asset, nil for orphans and unassigned
	Placeholder bool             // reference points at a known stand-in image
	Duplicate   bool             // shares its asset with another record
	Keeper      bool             // lowest id of its duplicate group
}

// LowConfidence reports whether the current assignment is worth replacing
func (s RecordStatus) LowConfidence() bool {
	if s.Status != StatusMatched || s.Placeholder {
		return true
	}
	return s.Duplicate && !s.Keeper
}

// DuplicateGroup is a set of records sharing one asset reference.
// RecordIDs are sorted ascending; Keeper is the first of them.
type DuplicateGroup struct {
	AssetRef  string   `json:"assetRef"`
	RecordIDs []string `json:"recordIds"`
	Keeper    string   `json:"keeper"`
}

// Report is the read-only result of classifying a catalog against an inventory
type Report struct {
	Statuses        []RecordStatus // every record, ascending id
	Matched         []RecordStatus
	Mismatched      []RecordStatus
	Orphans         []RecordStatus
	Unassigned      []RecordStatus
	DuplicateGroups []DuplicateGroup
	Unused          []AssetDescriptor
}

// Status looks up a record's status by id
func (r *Report) Status(id string) (RecordStatus, bool) {
	i, found := slices.BinarySearchFunc(r.Statuses, id, func(s RecordStatus, id string) int {
		return CompareIDs(s.Record.ID, id)
	})
	if !found {
		return RecordStatus{}, false
	}
	return r.Statuses[i], true
}

// DuplicateRecordCount returns how many records sit in duplicate groups
func (r *Report) DuplicateRecordCount() int {
	n := 0
	for _, g := range r.DuplicateGroups {
		n += len(g.RecordIDs)
	}
	return n
}

func (r *Report) file(st RecordStatus) {
	switch st.Status {
	case StatusMatched:
		r.Matched = append(r.Matched, st)
	case StatusMismatched:
		r.Mismatched = append(r.Mismatched, st)
	case StatusOrphan:
		r.Orphans = append(r.Orphans, st)
	case StatusUnassigned:
		r.Unassigned = append(r.Unassigned, st)
	}
}

// Within narrows the report to the records keep accepts. Duplicate groups
// with any accepted member stay whole. Unused assets are left as they are:
// an asset used by a record outside the scope is still used.
func (r *Report) Within(keep func(CatalogRecord) bool) *Report {
	out := &Report{Unused: r.Unused}
	for _, st := range r.Statuses {
		if keep(st.Record) {
			out.Statuses = append(out.Statuses, st)
			out.file(st)
		}
	}
	for _, g := range r.DuplicateGroups {
		for _, id := range g.RecordIDs {
			if st, ok := r.Status(id); ok && keep(st.Record) {
				out.DuplicateGroups = append(out.DuplicateGroups, g)
				break
			}
		}
	}
	return out
}

// Classify labels every record's assignment and computes duplicate groups
// and unused assets. It has no side effects.
func Classify(records []CatalogRecord, inv *Inventory, m *Matcher) *Report {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b CatalogRecord) int {
		return CompareIDs(a.ID, b.ID)
	})

	report := &Report{Statuses: make([]RecordStatus, 0, len(sorted))}
	usage := make(map[string][]int) // usage key -> indexes into Statuses
	var usageOrder []string
	used := make(map[string]bool)

	for _, rec := range sorted {
		st := RecordStatus{Record: rec}
		if !rec.HasAsset() {
			st.Status = StatusUnassigned
			report.Statuses = append(report.Statuses, st)
			continue
		}

		st.Placeholder = m.IsPlaceholder(rec.AssetRef)
		key := strings.TrimSpace(rec.AssetRef)
		if asset, ok := inv.Resolve(rec.AssetRef); ok {
			a := asset
			st.Asset = &a
			key = asset.Path
			used[asset.Path] = true
			st.Score = Score(m.normalizer.Tokens(rec.Name), inv.Tokens(asset.Path))
			if m.IsGoodMatch(st.Score) {
				st.Status = StatusMatched
			} else {
				st.Status = StatusMismatched
			}
		} else {
			st.Status = StatusOrphan
		}

		if _, seen := usage[key]; !seen {
			usageOrder = append(usageOrder, key)
		}
		usage[key] = append(usage[key], len(report.Statuses))
		report.Statuses = append(report.Statuses, st)
	}

	for _, key := range usageOrder {
		idxs := usage[key]
		if len(idxs) < 2 {
			continue
		}
		group := DuplicateGroup{AssetRef: key}
		for n, i := range idxs {
			report.Statuses[i].Duplicate = true
			report.Statuses[i].Keeper = n == 0
			group.RecordIDs = append(group.RecordIDs, report.Statuses[i].Record.ID)
		}
		group.Keeper = group.RecordIDs[0]
		report.DuplicateGroups = append(report.DuplicateGroups, group)
	}
	slices.SortFunc(report.DuplicateGroups, func(a, b DuplicateGroup) int {
		return strings.Compare(a.AssetRef, b.AssetRef)
	})

	for _, st := range report.Statuses {
		report.file(st)
	}

	for _, a := range inv.All() {
		if !used[a.Path] {
			report.Unused = append(report.Unused, a)
		}
	}
	slices.SortFunc(report.Unused, func(a, b AssetDescriptor) int {
		return strings.Compare(a.Path, b.Path)
	})

	return report
}
