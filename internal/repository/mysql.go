package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/techmarket/marketplace-api/internal/db"
	"github.com/techmarket/marketplace-api/internal/metrics"
)

// SQLStore is the shared base for the MySQL repositories. It resolves the
// active querier (transaction or pool) from the context and records query
// metrics the same way for every entity store.
type SQLStore struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewSQLStore creates the shared MySQL store base
func NewSQLStore(database *db.DB, m *metrics.AppMetrics) *SQLStore {
	return &SQLStore{db: database, metrics: m}
}

type txKey struct{}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the transaction carried by ctx, or the connection pool
func (s *SQLStore) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// inTx reports whether ctx carries an open transaction
func (s *SQLStore) inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

func (s *SQLStore) record(ctx context.Context, operation, table, statement string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordDBQuery(ctx, operation, table, statement, start, err == nil || err == sql.ErrNoRows)
	}
}

// WithTransaction implements TxManager. The transaction is stored in the
// context so repository calls made from fn join it; fn returning an error
// rolls everything back.
func (s *SQLStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var _ TxManager = (*SQLStore)(nil)
