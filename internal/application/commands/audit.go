package commands

import (
	"context"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// UncategorizedKey is the breakdown bucket for records without a category
const UncategorizedKey = "uncategorized"

// AuditStats are the headline numbers of an audit
type AuditStats struct {
	TotalRecords     int     `json:"totalRecords"`
	WithAsset        int     `json:"withAsset"`
	Matched          int     `json:"matched"`
	Mismatched       int     `json:"mismatched"`
	Orphans          int     `json:"orphans"`
	Unassigned       int     `json:"unassigned"`
	Placeholders     int     `json:"placeholders"`
	DuplicateGroups  int     `json:"duplicateGroups"`
	DuplicateRecords int     `json:"duplicateRecords"`
	TotalAssets      int     `json:"totalAssets"`
	UnusedAssets     int     `json:"unusedAssets"`
	Suggestions      int     `json:"suggestions"`
	Threshold        float64 `json:"threshold"`
	MatchRatePercent float64 `json:"matchRatePercent"`
}

// CategoryStats breaks the audit down by category
type CategoryStats struct {
	Records      int `json:"records"`
	Matched      int `json:"matched"`
	Mismatched   int `json:"mismatched"`
	Orphans      int `json:"orphans"`
	Unassigned   int `json:"unassigned"`
	Assets       int `json:"assets"`
	UnusedAssets int `json:"unusedAssets"`
}

// ProductImageStatus is one record's classification and proposed fix
type ProductImageStatus struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	Category             string        `json:"category,omitempty"`
	AssetRef             string        `json:"assetRef,omitempty"`
	ResolvedPath         string        `json:"resolvedPath,omitempty"`
	Status               domain.Status `json:"status"`
	Score                float64       `json:"score"`
	Placeholder          bool          `json:"placeholder,omitempty"`
	Duplicate            bool          `json:"duplicate,omitempty"`
	Keeper               bool          `json:"keeper,omitempty"`
	SuggestedRef         string        `json:"suggestedRef,omitempty"`
	SuggestionReason     domain.Reason `json:"suggestionReason,omitempty"`
	SuggestionConfidence float64       `json:"suggestionConfidence,omitempty"`
}

// AuditResult is the read-only audit report
type AuditResult struct {
	Stats              AuditStats               `json:"stats"`
	CategoryBreakdown  map[string]CategoryStats `json:"categoryBreakdown"`
	ProductImageStatus []ProductImageStatus     `json:"productImageStatus"`
	UpdateSuggestions  domain.AssignmentPlan    `json:"updateSuggestions"`
	DuplicateGroups    []domain.DuplicateGroup  `json:"duplicateGroups"`
	UnusedAssets       []domain.AssetDescriptor `json:"unusedAssets"`

	Snapshot *Snapshot `json:"-"`
}

// AuditCommand classifies the catalog against the asset pool and proposes
// corrections without writing anything
type AuditCommand struct {
	engine   *Engine
	Category string // report on one category only; empty audits all
}

// NewAuditCommand creates a new AuditCommand
func NewAuditCommand(engine *Engine, category string) *AuditCommand {
	return &AuditCommand{engine: engine, Category: category}
}

// Execute runs the audit. Assets of every category are scanned so that
// suggestions can cross categories.
func (c *AuditCommand) Execute(ctx context.Context) (*AuditResult, error) {
	snap, err := c.engine.Snapshot(ctx, ports.RecordFilter{Category: c.Category}, nil)
	if err != nil {
		return nil, err
	}
	return BuildAuditResult(snap, c.engine.matcher().Threshold()), nil
}

// BuildAuditResult shapes a snapshot into the audit report
func BuildAuditResult(snap *Snapshot, threshold float64) *AuditResult {
	report := snap.Report
	res := &AuditResult{
		CategoryBreakdown:  make(map[string]CategoryStats),
		ProductImageStatus: make([]ProductImageStatus, 0, len(report.Statuses)),
		UpdateSuggestions:  snap.Plan,
		DuplicateGroups:    report.DuplicateGroups,
		UnusedAssets:       report.Unused,
		Snapshot:           snap,
	}
	if res.UpdateSuggestions == nil {
		res.UpdateSuggestions = domain.AssignmentPlan{}
	}
	if res.DuplicateGroups == nil {
		res.DuplicateGroups = []domain.DuplicateGroup{}
	}
	if res.UnusedAssets == nil {
		res.UnusedAssets = []domain.AssetDescriptor{}
	}

	stats := AuditStats{
		TotalRecords:     len(report.Statuses),
		Matched:          len(report.Matched),
		Mismatched:       len(report.Mismatched),
		Orphans:          len(report.Orphans),
		Unassigned:       len(report.Unassigned),
		DuplicateGroups:  len(report.DuplicateGroups),
		DuplicateRecords: report.DuplicateRecordCount(),
		TotalAssets:      snap.Inventory.Len(),
		UnusedAssets:     len(report.Unused),
		Suggestions:      len(snap.Plan),
		Threshold:        threshold,
	}
	stats.WithAsset = stats.TotalRecords - stats.Unassigned
	if stats.WithAsset > 0 {
		stats.MatchRatePercent = float64(stats.Matched) * 100 / float64(stats.WithAsset)
	}

	suggestions := make(map[string]domain.PlanEntry, len(snap.Plan))
	for _, e := range snap.Plan {
		suggestions[e.RecordID] = e
	}

	for _, st := range report.Statuses {
		if st.Placeholder {
			stats.Placeholders++
		}

		key := breakdownKey(st.Record.Category)
		cs := res.CategoryBreakdown[key]
		cs.Records++
		switch st.Status {
		case domain.StatusMatched:
			cs.Matched++
		case domain.StatusMismatched:
			cs.Mismatched++
		case domain.StatusOrphan:
			cs.Orphans++
		case domain.StatusUnassigned:
			cs.Unassigned++
		}
		res.CategoryBreakdown[key] = cs

		pis := ProductImageStatus{
			ID:          st.Record.ID,
			Name:        st.Record.Name,
			Category:    st.Record.Category,
			AssetRef:    st.Record.AssetRef,
			Status:      st.Status,
			Score:       st.Score,
			Placeholder: st.Placeholder,
			Duplicate:   st.Duplicate,
			Keeper:      st.Keeper,
		}
		if st.Asset != nil {
			pis.ResolvedPath = st.Asset.Path
		}
		if e, ok := suggestions[st.Record.ID]; ok {
			pis.SuggestedRef = e.ToRef
			pis.SuggestionReason = e.Reason
			pis.SuggestionConfidence = e.Confidence
		}
		res.ProductImageStatus = append(res.ProductImageStatus, pis)
	}

	for _, a := range snap.Inventory.All() {
		key := breakdownKey(a.Category)
		cs := res.CategoryBreakdown[key]
		cs.Assets++
		res.CategoryBreakdown[key] = cs
	}
	for _, a := range report.Unused {
		key := breakdownKey(a.Category)
		cs := res.CategoryBreakdown[key]
		cs.UnusedAssets++
		res.CategoryBreakdown[key] = cs
	}

	res.Stats = stats
	return res
}

func breakdownKey(category string) string {
	if key := domain.CategoryKey(category); key != "" {
		return key
	}
	return UncategorizedKey
}
