package model

import (
	"strings"
	"time"
)

// SubscriptionInput is a validated newsletter sign-up.
type SubscriptionInput struct {
	Email     string
	CreatedAt time.Time
}

// NewSubscription validates a sign-up; the email is trimmed but not format-checked.
func NewSubscription(email string, createdAt time.Time) (SubscriptionInput, error) {
	email = strings.TrimSpace(email)
	if err := required("email", email); err != nil {
		return SubscriptionInput{}, err
	}
	return SubscriptionInput{Email: email, CreatedAt: createdAt}, nil
}

// Record builds the persisted form of the input with store-assigned values.
func (in SubscriptionInput) Record(id int64, createdAt time.Time) Subscription {
	return Subscription{ID: id, Email: in.Email, CreatedAt: createdAt}
}

// Subscription is a stored newsletter sign-up, unique by Email.
type Subscription struct {
	ID           int64
	Email        string
	CreatedAt    time.Time
	Unsubscribed bool
}
