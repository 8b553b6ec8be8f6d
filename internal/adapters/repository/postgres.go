package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/siteforms/internal/domain/model"
	"github.com/okian/siteforms/pkg/logger"
)

const pgUniqueViolation = "23505"

// DB is the slice of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// NewPool opens a pgx pool and verifies it with a ping.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, unavailable("open pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("ping", err)
	}
	return pool, nil
}

// PostgresStore keeps submissions and subscriptions in two tables.
// Every method is a single statement on a pooled connection.
type PostgresStore struct {
	db     DB
	logger logger.Logger
}

var (
	_ Store  = (*PostgresStore)(nil)
	_ Pinger = (*PostgresStore)(nil)
)

// NewPostgresStore creates a PostgresStore backed by db, usually a *pgxpool.Pool.
func NewPostgresStore(db DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, logger: logger.Get().Named("postgres-store")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSubmission inserts one contact_submissions row.
func (s *PostgresStore) CreateSubmission(ctx context.Context, in model.SubmissionInput) (model.Submission, error) {
	if k := in.Kind(); !k.Valid() {
		return model.Submission{}, fmt.Errorf("create submission: %w: %q", ErrUnknownKind, k)
	}

	var (
		id        int64
		createdAt time.Time
		processed bool
	)
	err := s.db.QueryRow(ctx,
		`INSERT INTO contact_submissions (name, email, business, message, type, project_type, budget, created_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5::text::submission_kind, NULLIF($6, ''), NULLIF($7, ''), COALESCE($8::timestamptz, NOW()))
		 RETURNING id, created_at, processed`,
		in.Name, in.Email, in.Business(), in.Message, string(in.Kind()), in.ProjectType(), in.Budget(), timestampArg(in.CreatedAt),
	).Scan(&id, &createdAt, &processed)
	if err != nil {
		return model.Submission{}, unavailable("create submission", err)
	}

	rec := in.Record(id, createdAt)
	rec.Processed = processed
	s.logger.Debug(ctx, "submission stored", logger.Int64("id", id), logger.String("kind", string(rec.Kind)))
	return rec, nil
}

// FindSubscriptionByEmail looks up one subscription by exact email.
func (s *PostgresStore) FindSubscriptionByEmail(ctx context.Context, email string) (model.Subscription, bool, error) {
	var sub model.Subscription
	err := s.db.QueryRow(ctx,
		`SELECT id, email, created_at, unsubscribed
		 FROM subscriptions
		 WHERE email = $1`,
		email,
	).Scan(&sub.ID, &sub.Email, &sub.CreatedAt, &sub.Unsubscribed)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Subscription{}, false, nil
	}
	if err != nil {
		return model.Subscription{}, false, unavailable("find subscription", err)
	}
	return sub, true, nil
}

// CreateSubscription inserts one subscriptions row.
func (s *PostgresStore) CreateSubscription(ctx context.Context, in model.SubscriptionInput) (model.Subscription, error) {
	var (
		id           int64
		createdAt    time.Time
		unsubscribed bool
	)
	err := s.db.QueryRow(ctx,
		`INSERT INTO subscriptions (email, created_at)
		 VALUES ($1, COALESCE($2::timestamptz, NOW()))
		 RETURNING id, created_at, unsubscribed`,
		in.Email, timestampArg(in.CreatedAt),
	).Scan(&id, &createdAt, &unsubscribed)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return model.Subscription{}, fmt.Errorf("create subscription: %w: %w", ErrDuplicateEmail, err)
		}
		return model.Subscription{}, unavailable("create subscription", err)
	}

	rec := in.Record(id, createdAt)
	rec.Unsubscribed = unsubscribed
	s.logger.Debug(ctx, "subscription stored", logger.Int64("id", id))
	return rec, nil
}

// Ping checks the pool can reach the database.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// timestampArg maps a zero time to NULL so the column default applies.
func timestampArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
