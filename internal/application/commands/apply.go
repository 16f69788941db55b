package commands

import (
	"context"
	"fmt"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// ApplySummary are the aggregate counts of an apply run
type ApplySummary struct {
	TotalUpdates int `json:"totalUpdates"`
	SuccessCount int `json:"successCount"`
	ErrorCount   int `json:"errorCount"`
	SkippedCount int `json:"skippedCount"`
}

// ApplyResult is returned by the mutating operations
type ApplyResult struct {
	Success bool                  `json:"success"`
	RunID   string                `json:"runId,omitempty"`
	DryRun  bool                  `json:"dryRun,omitempty"`
	Summary ApplySummary          `json:"summary"`
	Results []domain.ItemResult   `json:"results"`
	Plan    domain.AssignmentPlan `json:"plan,omitempty"`
}

func newApplyResult(run *domain.RunSummary) *ApplyResult {
	results := run.Results
	if results == nil {
		results = []domain.ItemResult{}
	}
	return &ApplyResult{
		Success: run.ErrorCount == 0,
		RunID:   run.RunID,
		Summary: ApplySummary{
			TotalUpdates: len(run.Results),
			SuccessCount: run.SuccessCount,
			ErrorCount:   run.ErrorCount,
			SkippedCount: run.SkippedCount,
		},
		Results: results,
	}
}

// ApplyCommand applies an assignment plan. Without an explicit plan it
// re-derives one from a fresh audit.
type ApplyCommand struct {
	engine   *Engine
	Plan     domain.AssignmentPlan // nil means derive from a fresh audit
	Category string                // only propose changes for this category
	DryRun   bool
}

// NewApplyCommand creates a new ApplyCommand
func NewApplyCommand(engine *Engine, plan domain.AssignmentPlan, category string, dryRun bool) *ApplyCommand {
	return &ApplyCommand{
		engine:   engine,
		Plan:     plan,
		Category: category,
		DryRun:   dryRun,
	}
}

// Execute runs the apply. Supplied plans have their from-refs refreshed
// from the catalog first, so re-applying an already applied plan changes
// nothing.
func (c *ApplyCommand) Execute(ctx context.Context) (*ApplyResult, error) {
	plan, err := c.resolvePlan(ctx)
	if err != nil {
		return nil, err
	}

	if c.DryRun {
		return &ApplyResult{
			Success: true,
			DryRun:  true,
			Summary: ApplySummary{TotalUpdates: len(plan)},
			Results: []domain.ItemResult{},
			Plan:    plan,
		}, nil
	}

	run, err := c.engine.NewExecutor().Execute(ctx, plan)
	res := newApplyResult(run)
	if err != nil {
		return res, fmt.Errorf("apply interrupted: %w", err)
	}
	return res, nil
}

func (c *ApplyCommand) resolvePlan(ctx context.Context) (domain.AssignmentPlan, error) {
	if c.Plan == nil {
		snap, err := c.engine.Snapshot(ctx, ports.RecordFilter{Category: c.Category}, nil)
		if err != nil {
			return nil, err
		}
		return snap.Plan.Effective(), nil
	}

	ids := make([]string, 0, len(c.Plan))
	for _, e := range c.Plan {
		if e.RecordID != "" {
			ids = append(ids, e.RecordID)
		}
	}
	current, err := c.engine.currentRefs(ctx, ids)
	if err != nil {
		return nil, err
	}

	plan := make(domain.AssignmentPlan, len(c.Plan))
	for i, e := range c.Plan {
		if ref, ok := current[e.RecordID]; ok {
			e.FromRef = ref
		}
		plan[i] = e
	}
	return plan, nil
}
