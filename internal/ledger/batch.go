package ledger

import (
	"context"
	"encoding/json"

	"yarn-reconciliation-service/pkg/errors"
	"yarn-reconciliation-service/pkg/logger"
)

// batchOp is one staged document write.
type batchOp struct {
	collection string
	id         string
	doc        []byte
}

// BatchWriter groups document writes into size-bounded batches. When the
// staged set reaches the store's per-batch cap the batch is committed in
// one transaction and a new batch starts. Batches already committed stay
// committed if a later one fails; callers own surfacing that partial
// state.
type BatchWriter struct {
	store            *Store
	maxSize          int
	ops              []batchOp
	batchesCommitted int
	writesCommitted  int
	logger           logger.Logger
}

// NewBatchWriter creates a batch writer bound to the store's configured
// batch size cap.
func (s *Store) NewBatchWriter() *BatchWriter {
	return &BatchWriter{
		store:   s,
		maxSize: s.config.MaxBatchSize,
		ops:     make([]batchOp, 0, s.config.MaxBatchSize),
		logger:  s.logger.WithComponent("batch_writer"),
	}
}

// Put stages one document write, committing the current batch first if
// it is full.
func (b *BatchWriter) Put(ctx context.Context, collection, id string, doc interface{}) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return errors.LedgerWriteError(collection, err)
	}

	if len(b.ops) >= b.maxSize {
		if err := b.Flush(ctx); err != nil {
			return err
		}
	}

	b.ops = append(b.ops, batchOp{collection: collection, id: id, doc: payload})
	return nil
}

// Flush commits all staged writes as one transaction. A flush with
// nothing staged is a no-op.
func (b *BatchWriter) Flush(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}

	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.LedgerWriteError("batch", err)
	}

	for _, op := range b.ops {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents(collection, id, doc) VALUES(?, ?, ?)
			 ON CONFLICT(collection, id) DO UPDATE SET doc = excluded.doc`,
			op.collection, op.id, op.doc); err != nil {
			tx.Rollback()
			return errors.LedgerWriteError(op.collection, err).
				WithContext("document_id", op.id)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.LedgerWriteError("batch", err)
	}

	b.batchesCommitted++
	b.writesCommitted += len(b.ops)
	b.logger.WithFields(logger.Fields{
		"batch":  b.batchesCommitted,
		"writes": len(b.ops),
	}).Debug("Committed write batch")

	b.ops = b.ops[:0]
	return nil
}

// BatchesCommitted returns how many batches have been committed so far.
func (b *BatchWriter) BatchesCommitted() int {
	return b.batchesCommitted
}

// WritesCommitted returns how many document writes have been committed
// so far.
func (b *BatchWriter) WritesCommitted() int {
	return b.writesCommitted
}
