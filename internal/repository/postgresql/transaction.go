package postgresql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type txKey struct{}

// SnapshotRunner runs a group of reads against one consistent snapshot of the
// upstream database.
type SnapshotRunner struct {
	db *database.DB
}

func NewSnapshotRunner(db *database.DB) *SnapshotRunner {
	return &SnapshotRunner{db: db}
}

// ReadSnapshot executes fn inside a read-only repeatable-read transaction.
// Repositories called with the derived context share that transaction.
func (r *SnapshotRunner) ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return classifyError("begin snapshot", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Error("rollback error during panic recovery", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	// Read-only: commit only releases the snapshot.
	if err := tx.Commit(ctx); err != nil {
		return classifyError("end snapshot", err)
	}
	return nil
}

// GetQuerier returns either transaction or pool
// Used in repositories to support both snapshot and standalone reads
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}
