// Package types contains the JSON bodies shared by the HTTP API and its clients.
package types

// ContactRequest is the body of POST /api/contact.
type ContactRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Business string `json:"business,omitempty"`
	Message  string `json:"message"`
}

// WorkRequest is the body of POST /api/work-with-us.
type WorkRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	ProjectType string `json:"projectType"`
	Budget      string `json:"budget"`
	Message     string `json:"message"`
}

// SubscribeRequest is the body of POST /api/subscribe.
type SubscribeRequest struct {
	Email string `json:"email"`
}

// Ack is every form endpoint's response. ID is set only when a record was created.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      *int64 `json:"id,omitempty"`
}

// Created builds a successful Ack for a new record.
func Created(message string, id int64) Ack {
	return Ack{Success: true, Message: message, ID: &id}
}

// Failed builds an error Ack.
func Failed(message string) Ack {
	return Ack{Success: false, Message: message}
}
