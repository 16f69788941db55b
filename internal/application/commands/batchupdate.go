package commands

import (
	"context"
	"fmt"
	"strings"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
)

// BatchUpdateItem is one manual correction
type BatchUpdateItem struct {
	ID       string `json:"id"`
	AssetRef string `json:"assetRef"`
}

// BatchUpdateCommand writes an explicit list of asset refs, bypassing the
// planner
type BatchUpdateCommand struct {
	engine  *Engine
	Updates []BatchUpdateItem
}

// NewBatchUpdateCommand creates a new BatchUpdateCommand
func NewBatchUpdateCommand(engine *Engine, updates []BatchUpdateItem) *BatchUpdateCommand {
	return &BatchUpdateCommand{engine: engine, Updates: updates}
}

// Validate checks the batch as a whole. Individual entries are validated
// during Execute and reported per item.
func (c *BatchUpdateCommand) Validate() error {
	if len(c.Updates) == 0 {
		return &application.ValidationError{
			Field:   "updates",
			Message: "at least one update is required",
		}
	}
	return nil
}

func validateBatchItem(u BatchUpdateItem) error {
	if err := application.ValidateRequired("id", u.ID); err != nil {
		return err
	}
	return application.ValidateRequired("assetRef", u.AssetRef)
}

// Execute applies every valid entry. Entries missing a field are counted
// as errors without touching the store; entries whose ref already matches
// are skipped.
func (c *BatchUpdateCommand) Execute(ctx context.Context) (*ApplyResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	results := make([]domain.ItemResult, len(c.Updates))
	var (
		plan  domain.AssignmentPlan
		slots []int
		ids   []string
	)
	for i, u := range c.Updates {
		u.ID = strings.TrimSpace(u.ID)
		u.AssetRef = strings.TrimSpace(u.AssetRef)
		if err := validateBatchItem(u); err != nil {
			results[i] = failure(u.ID, err)
			continue
		}
		ids = append(ids, u.ID)
		plan = append(plan, domain.PlanEntry{
			RecordID:   u.ID,
			ToRef:      u.AssetRef,
			Reason:     domain.ReasonManualBatch,
			Confidence: 1,
		})
		slots = append(slots, i)
	}

	current, err := c.engine.currentRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range plan {
		if ref, ok := current[plan[i].RecordID]; ok {
			plan[i].FromRef = ref
		}
	}

	run, execErr := c.engine.NewExecutor().Execute(ctx, plan)
	for j, r := range run.Results {
		results[slots[j]] = r
	}
	run.Results = results
	run.Tally()

	res := newApplyResult(run)
	if execErr != nil {
		return res, fmt.Errorf("batch update interrupted: %w", execErr)
	}
	return res, nil
}
