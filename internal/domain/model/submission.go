// Package model contains the form records passed between layers.
package model

import (
	"strings"
	"time"
)

// Kind distinguishes the two submission flavours sharing one table.
type Kind string

const (
	KindContact     Kind = "contact"
	KindWorkRequest Kind = "work-request"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindContact || k == KindWorkRequest
}

// Detail is the kind-specific part of a submission.
// Only ContactDetail and WorkRequestDetail implement it.
type Detail interface {
	Kind() Kind
}

// ContactDetail carries the optional business name of a contact inquiry.
type ContactDetail struct {
	Business string
}

func (ContactDetail) Kind() Kind { return KindContact }

// WorkRequestDetail carries the project fields a work request must have.
type WorkRequestDetail struct {
	ProjectType string
	Budget      string
}

func (WorkRequestDetail) Kind() Kind { return KindWorkRequest }

// SubmissionInput is a validated candidate submission, ready for a Store.
type SubmissionInput struct {
	Name      string
	Email     string
	Message   string
	Detail    Detail
	CreatedAt time.Time
}

// Kind derives the submission kind from its detail.
func (in SubmissionInput) Kind() Kind {
	if in.Detail == nil {
		return KindContact
	}
	return in.Detail.Kind()
}

// Business returns the business name, empty for work requests.
func (in SubmissionInput) Business() string {
	if d, ok := in.Detail.(ContactDetail); ok {
		return d.Business
	}
	return ""
}

// ProjectType returns the project type, empty for contact inquiries.
func (in SubmissionInput) ProjectType() string {
	if d, ok := in.Detail.(WorkRequestDetail); ok {
		return d.ProjectType
	}
	return ""
}

// Budget returns the budget, empty for contact inquiries.
func (in SubmissionInput) Budget() string {
	if d, ok := in.Detail.(WorkRequestDetail); ok {
		return d.Budget
	}
	return ""
}

// Record builds the persisted form of the input with store-assigned values.
func (in SubmissionInput) Record(id int64, createdAt time.Time) Submission {
	return Submission{
		ID:          id,
		Name:        in.Name,
		Email:       in.Email,
		Business:    in.Business(),
		Message:     in.Message,
		Kind:        in.Kind(),
		ProjectType: in.ProjectType(),
		Budget:      in.Budget(),
		CreatedAt:   createdAt,
	}
}

// NewContact validates a contact inquiry. Business is optional.
func NewContact(name, email, business, message string, createdAt time.Time) (SubmissionInput, error) {
	name, email, message = strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(message)
	if err := required("name", name, "email", email, "message", message); err != nil {
		return SubmissionInput{}, err
	}
	return SubmissionInput{
		Name:      name,
		Email:     email,
		Message:   message,
		Detail:    ContactDetail{Business: strings.TrimSpace(business)},
		CreatedAt: createdAt,
	}, nil
}

// NewWorkRequest validates a work request. Every field is required.
func NewWorkRequest(name, email, projectType, budget, message string, createdAt time.Time) (SubmissionInput, error) {
	name, email, message = strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(message)
	projectType, budget = strings.TrimSpace(projectType), strings.TrimSpace(budget)
	err := required(
		"name", name,
		"email", email,
		"projectType", projectType,
		"budget", budget,
		"message", message,
	)
	if err != nil {
		return SubmissionInput{}, err
	}
	return SubmissionInput{
		Name:      name,
		Email:     email,
		Message:   message,
		Detail:    WorkRequestDetail{ProjectType: projectType, Budget: budget},
		CreatedAt: createdAt,
	}, nil
}

// Submission is a stored contact inquiry or work request.
// It mirrors one contact_submissions row.
type Submission struct {
	ID          int64
	Name        string
	Email       string
	Business    string // empty when not given
	Message     string
	Kind        Kind
	ProjectType string // work requests only
	Budget      string // work requests only
	CreatedAt   time.Time
	Processed   bool // reserved for follow-up tooling, always false on create
}
