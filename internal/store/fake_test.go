package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB records statements and replays scripted results.
type fakeDB struct {
	mu sync.Mutex

	batches  [][]queuedQuery
	execs    []queuedQuery
	queries  []queuedQuery
	affected func(sql string, args []any) int64 // per queued statement; nil = 1
	execErr  error
	rows     [][]any
	queryErr error
}

type queuedQuery struct {
	sql  string
	args []any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, queuedQuery{sql, args})
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, queuedQuery{sql, args})
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{rows: f.rows, idx: -1}, nil
}

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	defer f.mu.Unlock()

	var queued []queuedQuery
	for _, q := range b.QueuedQueries {
		queued = append(queued, queuedQuery{q.SQL, q.Arguments})
	}
	f.batches = append(f.batches, queued)

	return &fakeBatchResults{db: f, queued: queued}
}

func (f *fakeDB) Ping(context.Context) error { return nil }

type fakeBatchResults struct {
	db     *fakeDB
	queued []queuedQuery
	next   int
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	if r.next >= len(r.queued) {
		return pgconn.CommandTag{}, errors.New("no more results")
	}
	q := r.queued[r.next]
	r.next++

	if r.db.execErr != nil {
		return pgconn.CommandTag{}, r.db.execErr
	}

	n := int64(1)
	if r.db.affected != nil {
		n = r.db.affected(q.sql, q.args)
	}
	return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", n)), nil
}

func (r *fakeBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (r *fakeBatchResults) QueryRow() pgx.Row        { return nil }
func (r *fakeBatchResults) Close() error             { return nil }

// fakeRows serves rows of Go values, assigning them to Scan destinations
// by reflection.
type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.idx], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}

	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if row[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}

		v := reflect.ValueOf(row[i])
		switch {
		case v.Type().AssignableTo(target.Type()):
			target.Set(v)
		case target.Kind() == reflect.Pointer && v.Type().AssignableTo(target.Type().Elem()):
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(v)
			target.Set(p)
		case v.Type().ConvertibleTo(target.Type()):
			target.Set(v.Convert(target.Type()))
		default:
			return fmt.Errorf("scan column %d: cannot assign %T to %s", i, row[i], target.Type())
		}
	}
	return nil
}
