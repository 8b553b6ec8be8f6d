// Package repository persists form records through one of two backends.
package repository

import (
	"context"

	"github.com/okian/siteforms/internal/domain/model"
)

// Backend names as they appear in configuration and metrics.
const (
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
)

// Store persists submissions and subscriptions.
//
// Implementations never return validation errors; inputs arrive validated.
// Failures wrap ErrStorageUnavailable.
type Store interface {
	// CreateSubmission stores a contact inquiry or work request and returns
	// the stored record with its assigned ID.
	CreateSubmission(ctx context.Context, in model.SubmissionInput) (model.Submission, error)

	// FindSubscriptionByEmail looks up a subscription by exact email.
	// Absent is (zero, false, nil), never an error.
	FindSubscriptionByEmail(ctx context.Context, email string) (model.Subscription, bool, error)

	// CreateSubscription stores a newsletter sign-up. A second sign-up for an
	// email the backend already knows returns ErrDuplicateEmail.
	CreateSubscription(ctx context.Context, in model.SubscriptionInput) (model.Subscription, error)
}

// Pinger is implemented by stores that can check their backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}
