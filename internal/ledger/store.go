// Package ledger persists the per-lot inventory ledger and the order
// documents it cross-references.
//
// The upstream system stores these as JSON documents with a batched,
// size-limited write primitive. This implementation keeps that shape: a
// single SQLite table of (collection, id, document) rows accessed
// through the pure Go driver, with multi-write batches each applied in
// one transaction. There is deliberately no cross-batch transaction;
// the commit engine's partial-failure contract depends on it.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"yarn-reconciliation-service/internal/models"
	"yarn-reconciliation-service/pkg/errors"
	"yarn-reconciliation-service/pkg/logger"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Collection names within the document store.
const (
	CollectionLots      = "lots"
	CollectionOrders    = "orders"
	CollectionCustomers = "customers"
)

// StoreConfig holds configuration options for the ledger store
type StoreConfig struct {
	// Path is the SQLite database file path.
	Path string

	// MaxBatchSize caps how many document writes one batch may carry,
	// mirroring the underlying store's per-transaction write limit.
	MaxBatchSize int
}

// DefaultStoreConfig returns a default store configuration
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{
		Path:         "stockledger.db",
		MaxBatchSize: 500,
	}
}

// Validate validates the store configuration
func (c *StoreConfig) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("store path cannot be empty")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive, got %d", c.MaxBatchSize)
	}
	return nil
}

// Store is the JSON-document ledger store.
type Store struct {
	db     *sql.DB
	config *StoreConfig
	logger logger.Logger
}

// Open opens (creating if necessary) the ledger store at the configured path.
func Open(config *StoreConfig) (*Store, error) {
	if config == nil {
		config = DefaultStoreConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError(errors.CodeInvalidConfig, "ledger_store", err)
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryLedger, errors.CodeLedgerRead,
			fmt.Sprintf("failed to open ledger database %s", config.Path))
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		doc        BLOB NOT NULL,
		PRIMARY KEY (collection, id)
	)`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CategoryLedger, errors.CodeLedgerWrite,
			"failed to create documents table")
	}

	return &Store{
		db:     db,
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("ledger_store"),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MaxBatchSize returns the configured per-batch write cap.
func (s *Store) MaxBatchSize() int {
	return s.config.MaxBatchSize
}

// get loads and decodes one document.
func (s *Store) get(ctx context.Context, collection, id string, out interface{}) error {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return errors.DocumentNotFoundError(collection, id)
	}
	if err != nil {
		return errors.LedgerReadError(collection, err)
	}

	if err := json.Unmarshal(doc, out); err != nil {
		return errors.Wrap(err, errors.CategoryLedger, errors.CodeDocumentDecode,
			fmt.Sprintf("failed to decode %s document '%s'", collection, id)).
			WithContext("collection", collection).
			WithContext("id", id)
	}
	return nil
}

// put writes one document outside any batch.
func (s *Store) put(ctx context.Context, collection, id string, doc interface{}) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return errors.LedgerWriteError(collection, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents(collection, id, doc) VALUES(?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET doc = excluded.doc`,
		collection, id, payload); err != nil {
		return errors.LedgerWriteError(collection, err)
	}
	return nil
}

// GetLot loads one inventory lot by id.
func (s *Store) GetLot(ctx context.Context, id string) (*models.InventoryLot, error) {
	var lot models.InventoryLot
	if err := s.get(ctx, CollectionLots, id, &lot); err != nil {
		return nil, err
	}
	return &lot, nil
}

// PutLot persists one inventory lot.
func (s *Store) PutLot(ctx context.Context, lot *models.InventoryLot) error {
	return s.put(ctx, CollectionLots, lot.ID, lot)
}

// ListLots loads the full ledger snapshot in insertion order. A
// reconciliation pass calls this exactly once and resolves everything
// against the returned slice.
func (s *Store) ListLots(ctx context.Context) ([]*models.InventoryLot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? ORDER BY rowid`, CollectionLots)
	if err != nil {
		return nil, errors.LedgerReadError(CollectionLots, err)
	}
	defer rows.Close()

	var lots []*models.InventoryLot
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.LedgerReadError(CollectionLots, err)
		}
		var lot models.InventoryLot
		if err := json.Unmarshal(doc, &lot); err != nil {
			return nil, errors.Wrap(err, errors.CategoryLedger, errors.CodeDocumentDecode,
				"failed to decode lot document")
		}
		lots = append(lots, &lot)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.LedgerReadError(CollectionLots, err)
	}

	s.logger.WithField("lots", len(lots)).Debug("Loaded ledger snapshot")
	return lots, nil
}

// GetOrder loads one standalone order document by id.
func (s *Store) GetOrder(ctx context.Context, id string) (*models.OrderDocument, error) {
	var order models.OrderDocument
	if err := s.get(ctx, CollectionOrders, id, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// PutOrder persists one standalone order document.
func (s *Store) PutOrder(ctx context.Context, order *models.OrderDocument) error {
	return s.put(ctx, CollectionOrders, order.ID, order)
}

// GetCustomer loads one customer document by id.
func (s *Store) GetCustomer(ctx context.Context, id string) (*models.CustomerDocument, error) {
	var customer models.CustomerDocument
	if err := s.get(ctx, CollectionCustomers, id, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// PutCustomer persists one customer document.
func (s *Store) PutCustomer(ctx context.Context, customer *models.CustomerDocument) error {
	return s.put(ctx, CollectionCustomers, customer.ID, customer)
}

// isNotFound reports whether err is a missing-document error.
func isNotFound(err error) bool {
	le, ok := errors.AsLedgerError(err)
	return ok && le.Code == errors.CodeDocumentNotFound
}
