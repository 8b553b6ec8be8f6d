package repository

import (
	"time"

	"github.com/okian/siteforms/pkg/logger"
)

// PostgresOption applies a configuration option to the PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresLogger sets the logger used for debug traces.
func WithPostgresLogger(l logger.Logger) PostgresOption {
	return func(s *PostgresStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// SheetOption applies a configuration option to the SheetStore.
type SheetOption func(*SheetStore)

// WithQueue switches the store to asynchronous delivery through q.
func WithQueue(q Enqueuer) SheetOption {
	return func(s *SheetStore) {
		if q != nil {
			s.queue = q
		}
	}
}

// WithClock overrides the time source used when an input has no CreatedAt.
func WithClock(now func() time.Time) SheetOption {
	return func(s *SheetStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSheetLogger sets the logger used for debug traces.
func WithSheetLogger(l logger.Logger) SheetOption {
	return func(s *SheetStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// SheetClientOption applies a configuration option to the SheetClient.
type SheetClientOption func(*SheetClient)

// WithTimeout bounds one webhook round trip.
func WithTimeout(d time.Duration) SheetClientOption {
	return func(c *SheetClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc HTTPDoer) SheetClientOption {
	return func(c *SheetClient) {
		if hc != nil {
			c.doer = hc
		}
	}
}
