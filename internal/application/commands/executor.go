package commands

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// ExecutorOptions tunes batch application
type ExecutorOptions struct {
	// Concurrency is the number of updates in flight; values below 1 mean
	// sequential application
	Concurrency int
	Retry       application.RetryPolicy
}

// Executor applies assignment plans against a catalog store. Every entry
// is independent: one failing never stops the others.
type Executor struct {
	store  ports.CatalogStore
	opts   ExecutorOptions
	logger *zap.Logger
}

// NewExecutor creates a new Executor
func NewExecutor(store ports.CatalogStore, opts ExecutorOptions, logger *zap.Logger) *Executor {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{store: store, opts: opts, logger: logger}
}

// Execute applies every entry of plan and returns the run summary with
// results in plan order. Cancellation is honoured between entries: entries
// not yet started are reported as failed and the context error is returned
// alongside the summary. An entry already in flight runs to completion.
func (x *Executor) Execute(ctx context.Context, plan domain.AssignmentPlan) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]domain.ItemResult, len(plan)),
	}
	log := x.logger.With(zap.String("run_id", summary.RunID))
	log.Info("applying plan", zap.Int("entries", len(plan)), zap.Int("concurrency", x.opts.Concurrency))

	var cancelled atomic.Bool
	var g errgroup.Group
	g.SetLimit(x.opts.Concurrency)
	for i, entry := range plan {
		if err := ctx.Err(); err != nil {
			cancelled.Store(true)
			summary.Results[i] = failure(entry.RecordID, err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				cancelled.Store(true)
				summary.Results[i] = failure(entry.RecordID, err)
				return nil
			}
			summary.Results[i] = x.apply(ctx, log, entry)
			return nil
		})
	}
	_ = g.Wait()

	summary.Tally()
	summary.Duration = time.Since(summary.StartedAt)
	log.Info("plan applied",
		zap.Int("success", summary.SuccessCount),
		zap.Int("errors", summary.ErrorCount),
		zap.Int("skipped", summary.SkippedCount),
		zap.Duration("duration", summary.Duration),
	)

	if cancelled.Load() {
		return summary, ctx.Err()
	}
	return summary, nil
}

func (x *Executor) apply(ctx context.Context, log *zap.Logger, entry domain.PlanEntry) domain.ItemResult {
	if err := application.ValidatePlanEntry(entry); err != nil {
		log.Warn("invalid plan entry", zap.String("record_id", entry.RecordID), zap.Error(err))
		return failure(entry.RecordID, err)
	}
	if entry.IsNoop() {
		return domain.ItemResult{ID: entry.RecordID, Success: true, Skipped: true}
	}

	// The store call itself is not interrupted; cancellation only stops
	// retries and entries that have not started.
	callCtx := context.WithoutCancel(ctx)
	attempts, err := x.opts.Retry.Do(ctx, func(context.Context) error {
		_, err := x.store.UpdateRecordAsset(callCtx, entry.RecordID, entry.ToRef)
		return err
	}, func(err error, wait time.Duration) {
		log.Warn("transient store failure, retrying",
			zap.String("record_id", entry.RecordID),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil {
		updErr := &application.UpdateError{RecordID: entry.RecordID, Err: err}
		log.Warn("update failed",
			zap.String("record_id", entry.RecordID),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return failure(entry.RecordID, updErr)
	}

	log.Debug("record updated",
		zap.String("record_id", entry.RecordID),
		zap.String("from", entry.FromRef),
		zap.String("to", entry.ToRef),
		zap.String("reason", string(entry.Reason)),
	)
	return domain.ItemResult{
		ID:      entry.RecordID,
		Success: true,
		OldURL:  entry.FromRef,
		NewURL:  entry.ToRef,
	}
}

func failure(id string, err error) domain.ItemResult {
	return domain.ItemResult{ID: id, Success: false, Error: err.Error()}
}
