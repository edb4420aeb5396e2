package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/albion-omni/internal/metrics"
)

// DefaultBatchSize is used when New is given a non-positive batch size.
const DefaultBatchSize = 500

// DB is the subset of pgxpool.Pool used by Store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Ping(ctx context.Context) error
}

// WriteStats reports the outcome of a batched write.
type WriteStats struct {
	Written   int // inserted or updated
	Unchanged int // conflicts that changed nothing
}

func (s *WriteStats) add(o WriteStats) {
	s.Written += o.Written
	s.Unchanged += o.Unchanged
}

// Store reads and writes dashboard data.
type Store struct {
	db        DB
	batchSize int
	logger    *slog.Logger
}

// New creates a Store.
func New(db DB, batchSize int, logger *slog.Logger) *Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, batchSize: batchSize, logger: logger}
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// upsert queues sql once per row and sends the rows in chunks of the
// store's batch size. onResult, when set, sees each row with its
// affected-row count.
func upsert[T any](
	ctx context.Context,
	s *Store,
	table, sql string,
	rows []T,
	args func(T) []any,
	onResult func(T, int64),
) (WriteStats, error) {
	var total WriteStats
	start := time.Now()

	for lo := 0; lo < len(rows); lo += s.batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		hi := min(lo+s.batchSize, len(rows))
		stats, err := sendChunk(ctx, s.db, sql, rows[lo:hi], args, onResult)
		if err != nil {
			metrics.DBBatchesTotal.WithLabelValues(table, "error").Inc()
			return total, fmt.Errorf("upsert %s rows %d-%d: %w", table, lo, hi, err)
		}
		metrics.DBBatchesTotal.WithLabelValues(table, "ok").Inc()
		total.add(stats)
	}

	s.logger.Debug("upsert complete",
		"table", table,
		"rows", len(rows),
		"written", total.Written,
		"unchanged", total.Unchanged,
		"duration", time.Since(start),
	)
	return total, nil
}

func sendChunk[T any](
	ctx context.Context,
	db DB,
	sql string,
	rows []T,
	args func(T) []any,
	onResult func(T, int64),
) (stats WriteStats, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(sql, args(r)...)
	}

	results := db.SendBatch(ctx, batch)
	defer func() {
		if cerr := results.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, r := range rows {
		ct, err := results.Exec()
		if err != nil {
			return stats, err
		}
		n := ct.RowsAffected()
		if n == 0 {
			stats.Unchanged++
		} else {
			stats.Written++
		}
		if onResult != nil {
			onResult(r, n)
		}
	}

	return stats, nil
}

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// timeOrZero maps a NULL timestamp to the zero time.
func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
