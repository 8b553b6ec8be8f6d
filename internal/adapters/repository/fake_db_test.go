package repository_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB mimics the three statements PostgresStore issues, keeping rows in memory.
type fakeDB struct {
	mu            sync.Mutex
	nextID        int64
	submissions   []fakeSubmission
	subscriptions map[string]fakeSubscription
	execs         []string
	failWith      error
	pingErr       error
}

type fakeSubmission struct {
	args      []any
	createdAt time.Time
}

type fakeSubscription struct {
	id        int64
	email     string
	createdAt time.Time
}

func newFakeDB() *fakeDB {
	return &fakeDB{subscriptions: make(map[string]fakeSubscription)}
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return pgconn.CommandTag{}, f.failWith
	}
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeDB) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return fakeRow{err: f.failWith}
	}

	switch {
	case strings.Contains(sql, "INSERT INTO contact_submissions"):
		f.nextID++
		created := createdAtOrNow(args[7])
		f.submissions = append(f.submissions, fakeSubmission{args: args, createdAt: created})
		return fakeRow{vals: []any{f.nextID, created, false}}

	case strings.Contains(sql, "FROM subscriptions"):
		sub, ok := f.subscriptions[args[0].(string)]
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{vals: []any{sub.id, sub.email, sub.createdAt, false}}

	case strings.Contains(sql, "INSERT INTO subscriptions"):
		email := args[0].(string)
		if _, dup := f.subscriptions[email]; dup {
			return fakeRow{err: &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}}
		}
		f.nextID++
		created := createdAtOrNow(args[1])
		f.subscriptions[email] = fakeSubscription{id: f.nextID, email: email, createdAt: created}
		return fakeRow{vals: []any{f.nextID, created, false}}
	}

	return fakeRow{err: fmt.Errorf("unexpected statement: %s", sql)}
}

func createdAtOrNow(arg any) time.Time {
	if t, ok := arg.(time.Time); ok {
		return t
	}
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan: want %d columns, got %d", len(r.vals), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.vals[i].(int64)
		case *string:
			*p = r.vals[i].(string)
		case *bool:
			*p = r.vals[i].(bool)
		case *time.Time:
			*p = r.vals[i].(time.Time)
		default:
			return errors.New("scan: unsupported destination")
		}
	}
	return nil
}
