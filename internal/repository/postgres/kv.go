package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"mediscript/internal/domain/repositories"
)

// KVBackend stores values in a JSONB key-value table.
type KVBackend struct {
	pool      *pgxpool.Pool
	tables    *TableNames
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewKVBackend creates a backend over pool. Call EnsureSchema before first use.
func NewKVBackend(pool *pgxpool.Pool, tables *TableNames, logger *slog.Logger) *KVBackend {
	return &KVBackend{
		pool:      pool,
		tables:    tables,
		txManager: NewTransactionManager(pool, logger),
		logger:    logger,
	}
}

// EnsureSchema creates the key-value table if it does not exist.
func (b *KVBackend) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      JSONB,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, b.tables.KVStore)

	if _, err := b.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", b.tables.KVStore, err)
	}
	return nil
}

func (b *KVBackend) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, b.tables.KVStore)

	var value []byte
	err := GetExecutor(ctx, b.pool).QueryRow(ctx, query, key).Scan(&value)
	if IsPgNoRowsError(err) {
		return nil, nil
	}
	if IsPgUndefinedTableError(err) {
		return nil, fmt.Errorf("get %s: table %s does not exist: %w", key, b.tables.KVStore, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Update locks the row with SELECT ... FOR UPDATE inside a transaction. The
// row is created first (with a NULL value) so concurrent first writers also
// serialize on the lock.
func (b *KVBackend) Update(ctx context.Context, key string, fn repositories.UpdateFn) error {
	return b.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, b.pool)

		insert := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES ($1, NULL) ON CONFLICT (key) DO NOTHING`, b.tables.KVStore)
		if _, err := exec.Exec(txCtx, insert, key); err != nil {
			return fmt.Errorf("reserve %s: %w", key, err)
		}

		var current []byte
		lock := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1 FOR UPDATE`, b.tables.KVStore)
		if err := exec.QueryRow(txCtx, lock, key).Scan(&current); err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		update := fmt.Sprintf(`UPDATE %s SET value = $2, updated_at = NOW() WHERE key = $1`, b.tables.KVStore)
		if _, err := exec.Exec(txCtx, update, key, next); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		return nil
	})
}

func (b *KVBackend) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, b.tables.KVStore)
	if _, err := GetExecutor(ctx, b.pool).Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close closes the pool.
func (b *KVBackend) Close() error {
	b.pool.Close()
	return nil
}
