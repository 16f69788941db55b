package domain

import (
	"strings"
)

// Reason explains why a plan entry was proposed
type Reason string

const (
	ReasonManualRule       Reason = "manual-rule"
	ReasonDuplicate        Reason = "duplicate-resolution"
	ReasonAutoMatch        Reason = "auto-match"
	ReasonCategoryFallback Reason = "category-fallback"
	ReasonManualBatch      Reason = "manual-batch"
)

// PlanEntry proposes moving one record from one asset reference to another
type PlanEntry struct {
	RecordID   string  `json:"recordId"`
	RecordName string  `json:"recordName,omitempty"`
	FromRef    string  `json:"fromRef"`
	ToRef      string  `json:"toRef"`
	Reason     Reason  `json:"reason"`
	Confidence float64 `json:"confidence"`
	RuleIndex  *int    `json:"ruleIndex,omitempty"`
}

// IsNoop reports whether applying the entry would change nothing
func (e PlanEntry) IsNoop() bool {
	return e.ToRef == e.FromRef
}

// AssignmentPlan is an ordered proposal; it never mutates state by itself
type AssignmentPlan []PlanEntry

// Effective drops entries that would not change anything
func (p AssignmentPlan) Effective() AssignmentPlan {
	out := make(AssignmentPlan, 0, len(p))
	for _, e := range p {
		if !e.IsNoop() {
			out = append(out, e)
		}
	}
	return out
}

// ForRecord returns the entry proposed for a record, if any
func (p AssignmentPlan) ForRecord(id string) (PlanEntry, bool) {
	for _, e := range p {
		if e.RecordID == id {
			return e, true
		}
	}
	return PlanEntry{}, false
}

// Within keeps the entries for records accepted by keep. An entry whose
// target is still held by a record the narrowed plan no longer moves away
// is dropped as well, repeatedly, so a narrowed plan never makes two
// records share an asset. Category fallbacks may share and always stay.
func (p AssignmentPlan) Within(report *Report, keep func(CatalogRecord) bool) AssignmentPlan {
	holders := make(map[string][]string)
	for _, st := range report.Statuses {
		if st.Asset != nil {
			holders[st.Asset.Path] = append(holders[st.Asset.Path], st.Record.ID)
		}
	}

	out := make(AssignmentPlan, 0, len(p))
	for _, e := range p {
		if st, ok := report.Status(e.RecordID); ok && keep(st.Record) {
			out = append(out, e)
		}
	}
	for {
		moving := make(map[string]bool, len(out))
		for _, e := range out {
			moving[e.RecordID] = true
		}
		kept := out[:0]
		for _, e := range out {
			if e.Reason == ReasonCategoryFallback || vacated(holders[e.ToRef], e.RecordID, moving) {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(out) {
			return kept
		}
		out = kept
	}
}

func vacated(holders []string, id string, moving map[string]bool) bool {
	for _, h := range holders {
		if h != id && !moving[h] {
			return false
		}
	}
	return true
}

// Planner turns a classifier report into an assignment plan
type Planner struct {
	matcher  *Matcher
	keyword  []compiledRule
	fallback []compiledRule
}

// NewPlanner compiles the rule set against the matcher's normalizer
func NewPlanner(m *Matcher, rules RuleSet) *Planner {
	kw, fb := compileRules(rules, m.normalizer)
	return &Planner{matcher: m, keyword: kw, fallback: fb}
}

// planState tracks which assets the plan has handed out so far
type planState struct {
	inv       *Inventory
	free      map[string]bool   // unused at snapshot time and not yet claimed
	claimed   map[string]string // asset path -> record id
	confident map[string]bool   // held by a record that keeps it for sure
	holders   map[string]int    // records referencing each asset at snapshot time
	holder    map[string]string // sole holder of an asset at snapshot time
	handled   map[string]bool
	pending   []pendingClaim
	plan      AssignmentPlan
}

// pendingClaim is a keyword rule target currently held by one other
// low-confidence record. It only becomes an entry once that record moves.
type pendingClaim struct {
	status RecordStatus
	target AssetDescriptor
	rule   compiledRule
}

func (c pendingClaim) entry() PlanEntry {
	idx := c.rule.index
	return PlanEntry{
		RecordID:   c.status.Record.ID,
		RecordName: c.status.Record.Name,
		FromRef:    c.status.Record.AssetRef,
		ToRef:      c.target.Path,
		Reason:     ReasonManualRule,
		Confidence: 1,
		RuleIndex:  &idx,
	}
}

func (s *planState) claim(path, recordID string) {
	s.claimed[path] = recordID
	delete(s.free, path)
}

// Plan proposes reassignments in priority order: keyword rules, duplicate
// resolution, automatic suggestions, then category fallbacks. Records
// considered earlier win conflicts over the same asset. Only effective
// changes are returned.
func (p *Planner) Plan(report *Report, inv *Inventory) AssignmentPlan {
	s := &planState{
		inv:       inv,
		free:      make(map[string]bool, len(report.Unused)),
		claimed:   make(map[string]string),
		confident: make(map[string]bool),
		holders:   make(map[string]int),
		holder:    make(map[string]string),
		handled:   make(map[string]bool),
	}
	for _, a := range report.Unused {
		s.free[a.Path] = true
	}
	for _, st := range report.Statuses {
		if st.Asset == nil {
			continue
		}
		s.holders[st.Asset.Path]++
		s.holder[st.Asset.Path] = st.Record.ID
		if !st.LowConfidence() {
			s.confident[st.Asset.Path] = true
		}
	}

	p.applyKeywordRules(s, report)
	p.resolveDuplicates(s, report)
	p.suggest(s, report)
	p.settlePending(s)
	p.applyFallbacks(s, report)

	return s.plan.Effective()
}

func (p *Planner) applyKeywordRules(s *planState, report *Report) {
	if len(p.keyword) == 0 {
		return
	}
	type candidate struct {
		status RecordStatus
		rule   compiledRule
	}
	// Records are already in ascending id order, and rules are bucketed
	// in list order, so walking buckets yields (rule order, id) order.
	buckets := make([][]candidate, len(p.keyword))
	for _, st := range report.Statuses {
		if !st.LowConfidence() {
			continue
		}
		nameKey := p.matcher.normalizer.Key(st.Record.Name)
		for i, r := range p.keyword {
			if r.matchesName(nameKey) {
				buckets[i] = append(buckets[i], candidate{status: st, rule: r})
				break
			}
		}
	}

	for _, bucket := range buckets {
		for _, c := range bucket {
			target, ok := s.inv.Resolve(c.rule.Target)
			if !ok {
				continue
			}
			id := c.status.Record.ID
			if c.status.Asset != nil && c.status.Asset.Path == target.Path {
				// Already where the rule wants it; hold on to it.
				s.claim(target.Path, id)
				s.handled[id] = true
				continue
			}
			// Never take an asset from a good match, and never grow a
			// group that is already shared.
			if _, taken := s.claimed[target.Path]; taken || s.confident[target.Path] || s.holders[target.Path] > 1 {
				continue
			}
			s.claim(target.Path, id)
			s.handled[id] = true
			claim := pendingClaim{status: c.status, target: target, rule: c.rule}
			if s.holders[target.Path] == 1 {
				s.pending = append(s.pending, claim)
				continue
			}
			s.plan = append(s.plan, claim.entry())
		}
	}
}

// settlePending turns a pending rule claim into an entry once the plan
// moves the asset's holder elsewhere. Claims that stay blocked release
// their target and the record gets an ordinary suggestion instead.
func (p *Planner) settlePending(s *planState) {
	moving := make(map[string]bool, len(s.plan))
	for _, e := range s.plan {
		moving[e.RecordID] = true
	}
	for progress := true; progress; {
		progress = false
		blocked := s.pending[:0]
		for _, c := range s.pending {
			if !moving[s.holder[c.target.Path]] {
				blocked = append(blocked, c)
				continue
			}
			s.plan = append(s.plan, c.entry())
			moving[c.status.Record.ID] = true
			progress = true
		}
		s.pending = blocked
	}

	for _, c := range s.pending {
		id := c.status.Record.ID
		if s.claimed[c.target.Path] == id {
			delete(s.claimed, c.target.Path)
		}
		reason := ReasonAutoMatch
		if c.status.Duplicate && !c.status.Keeper {
			reason = ReasonDuplicate
		}
		s.handled[id] = p.proposeBest(s, c.status, reason)
	}
	s.pending = nil
}

func (p *Planner) resolveDuplicates(s *planState, report *Report) {
	for _, g := range report.DuplicateGroups {
		if keeper, ok := report.Status(g.Keeper); ok && keeper.Asset != nil {
			if _, taken := s.claimed[keeper.Asset.Path]; !taken {
				s.claim(keeper.Asset.Path, g.Keeper)
			}
		}
		for _, id := range g.RecordIDs[1:] {
			if s.handled[id] {
				continue
			}
			st, ok := report.Status(id)
			if !ok {
				continue
			}
			s.handled[id] = true
			p.proposeBest(s, st, ReasonDuplicate)
		}
	}
}

func (p *Planner) suggest(s *planState, report *Report) {
	for _, st := range report.Statuses {
		if s.handled[st.Record.ID] || !st.LowConfidence() {
			continue
		}
		if p.proposeBest(s, st, ReasonAutoMatch) {
			s.handled[st.Record.ID] = true
		}
	}
}

func (p *Planner) applyFallbacks(s *planState, report *Report) {
	if len(p.fallback) == 0 {
		return
	}
	for _, st := range report.Statuses {
		if s.handled[st.Record.ID] {
			continue
		}
		if st.Status != StatusOrphan && st.Status != StatusUnassigned {
			continue
		}
		for _, r := range p.fallback {
			if CategoryKey(r.Category) != CategoryKey(st.Record.Category) {
				continue
			}
			target, ok := s.inv.Resolve(r.Target)
			if !ok {
				continue
			}
			idx := r.index
			s.handled[st.Record.ID] = true
			s.plan = append(s.plan, PlanEntry{
				RecordID:   st.Record.ID,
				RecordName: st.Record.Name,
				FromRef:    st.Record.AssetRef,
				ToRef:      target.Path,
				Reason:     ReasonCategoryFallback,
				Confidence: 0,
				RuleIndex:  &idx,
			})
			break
		}
	}
}

// proposeBest claims the best free asset for a record and appends an entry.
// It reports whether a proposal was made.
func (p *Planner) proposeBest(s *planState, st RecordStatus, reason Reason) bool {
	best, score, ok := p.bestFree(s, st)
	if !ok {
		return false
	}
	s.claim(best.Path, st.Record.ID)
	s.plan = append(s.plan, PlanEntry{
		RecordID:   st.Record.ID,
		RecordName: st.Record.Name,
		FromRef:    st.Record.AssetRef,
		ToRef:      best.Path,
		Reason:     reason,
		Confidence: score,
	})
	return true
}

// bestFree searches the free pool within the record's category first and
// across all categories when that yields nothing good enough.
func (p *Planner) bestFree(s *planState, st RecordStatus) (AssetDescriptor, float64, bool) {
	tokens := p.matcher.normalizer.Tokens(st.Record.Name)
	if len(tokens) == 0 {
		return AssetDescriptor{}, 0, false
	}
	current := ""
	if st.Asset != nil {
		current = st.Asset.Path
	}

	pick := func(pool []AssetDescriptor) (AssetDescriptor, float64, bool) {
		var best AssetDescriptor
		bestScore := -1.0
		for _, a := range pool {
			if !s.free[a.Path] || a.Path == current {
				continue
			}
			score := Score(tokens, s.inv.Tokens(a.Path))
			if !p.matcher.IsGoodMatch(score) {
				continue
			}
			if score > bestScore || (score == bestScore && strings.Compare(a.Path, best.Path) < 0) {
				best, bestScore = a, score
			}
		}
		return best, bestScore, bestScore >= 0
	}

	if st.Record.Category != "" {
		if a, score, ok := pick(s.inv.InCategory(st.Record.Category)); ok {
			return a, score, true
		}
	}
	return pick(s.inv.All())
}
