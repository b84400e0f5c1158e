package ledger

import (
	"context"
	"time"

	"yarn-reconciliation-service/internal/models"
	"yarn-reconciliation-service/pkg/errors"
	"yarn-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
)

// CommitResult summarizes what a plan commit wrote.
type CommitResult struct {
	LotsCreated      int `json:"lots_created"`
	LotsUpdated      int `json:"lots_updated"`
	BatchesCommitted int `json:"batches_committed"`
}

// Committer applies a confirmed reconciliation plan to the ledger.
//
// Invariants it upholds:
//   - additions get a fresh id, an empty allocations list and a fresh
//     timestamp;
//   - updates touch only quantity, location and lastUpdated on the lot
//     loaded by id; the stored allocations array is re-persisted exactly
//     as loaded;
//   - writes flow through the size-bounded BatchWriter, so one pass may
//     span many batches with no cross-batch atomicity.
//
// It must only run immediately after an operator confirms a plan; it
// never re-derives or re-validates the plan against current state.
type Committer struct {
	store  *Store
	clock  func() time.Time
	logger logger.Logger
}

// NewCommitter creates a committer for the given store.
func NewCommitter(store *Store) *Committer {
	return &Committer{
		store:  store,
		clock:  time.Now,
		logger: logger.GetGlobalLogger().WithComponent("commit_engine"),
	}
}

// CommitReconciliationPlan applies the plan's add and update sets. On a
// mid-commit failure the already-committed batches are not rolled back:
// the error reports how far the commit got and the ledger stays
// partially updated until the import is re-run.
func (c *Committer) CommitReconciliationPlan(ctx context.Context, plan *models.ReconciliationPlan) (*CommitResult, error) {
	if plan == nil {
		return nil, errors.New(errors.CategoryCommit, errors.CodeEmptyPlan,
			"no reconciliation plan to commit").
			WithSuggestion("compute and confirm a plan before committing")
	}

	totalWrites := len(plan.Additions) + len(plan.Updates)
	totalBatches := (totalWrites + c.store.MaxBatchSize() - 1) / c.store.MaxBatchSize()
	result := &CommitResult{}
	if totalWrites == 0 {
		c.logger.Info("Plan contains no writes; ledger already reconciled")
		return result, nil
	}

	batch := c.store.NewBatchWriter()
	now := c.clock()

	for _, add := range plan.Additions {
		lot := &models.InventoryLot{
			ID:          uuid.NewString(),
			YarnName:    add.YarnName,
			LotNumber:   add.LotNumber,
			Quantity:    add.Quantity,
			Location:    add.Location,
			LastUpdated: now,
			Allocations: []models.Allocation{},
		}
		if err := batch.Put(ctx, CollectionLots, lot.ID, lot); err != nil {
			return result, c.partialFailure(batch, totalBatches, err)
		}
		result.LotsCreated++
	}

	for _, update := range plan.Updates {
		lot, err := c.store.GetLot(ctx, update.LotID)
		if err != nil {
			return result, c.partialFailure(batch, totalBatches, err)
		}

		// Only these three fields change; allocations round-trip as
		// loaded.
		lot.Quantity = update.NewQuantity
		lot.Location = update.NewLocation
		lot.LastUpdated = now

		if err := batch.Put(ctx, CollectionLots, lot.ID, lot); err != nil {
			return result, c.partialFailure(batch, totalBatches, err)
		}
		result.LotsUpdated++
	}

	if err := batch.Flush(ctx); err != nil {
		return result, c.partialFailure(batch, totalBatches, err)
	}

	result.BatchesCommitted = batch.BatchesCommitted()
	c.logger.WithFields(logger.Fields{
		"created": result.LotsCreated,
		"updated": result.LotsUpdated,
		"batches": result.BatchesCommitted,
	}).Info("Committed reconciliation plan")

	return result, nil
}

// partialFailure wraps a mid-commit error with how far the commit got.
func (c *Committer) partialFailure(batch *BatchWriter, totalBatches int, err error) error {
	c.logger.WithError(err).WithFields(logger.Fields{
		"batches_committed": batch.BatchesCommitted(),
		"batches_total":     totalBatches,
		"writes_committed":  batch.WritesCommitted(),
	}).Error("Commit failed mid-pass; ledger is partially updated")

	return errors.CommitPartialError(batch.BatchesCommitted(), totalBatches, err)
}
