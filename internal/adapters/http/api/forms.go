package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/siteforms/internal/adapters/repository"
	"github.com/okian/siteforms/internal/domain/types"
	"github.com/okian/siteforms/pkg/logger"
	"github.com/okian/siteforms/pkg/metrics"
)

const maxBodyBytes = 64 << 10

// Response messages.
const (
	msgContactRequired = "Name, email, and message are required"
	msgContactCreated  = "Contact form submitted successfully"
	msgContactFailed   = "Failed to submit contact form"

	msgWorkRequired = "All fields are required"
	msgWorkCreated  = "Work request submitted successfully"
	msgWorkFailed   = "Failed to submit work request"

	msgEmailRequired     = "Email is required"
	msgSubscribed        = "Subscribed successfully"
	msgAlreadySubscribed = "Email already subscribed"
	msgSubscribeFailed   = "Failed to subscribe"
)

// FormsHandler serves the three form endpoints over one Store.
type FormsHandler struct {
	store  repository.Store
	now    func() time.Time
	logger logger.Logger
}

// NewFormsHandler creates a forms handler; now stamps new records.
func NewFormsHandler(store repository.Store, now func() time.Time, l logger.Logger) *FormsHandler {
	if now == nil {
		now = time.Now
	}
	return &FormsHandler{store: store, now: now, logger: l}
}

// decodeBody reads a size-limited JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// reject answers 400 with the endpoint's required-fields message.
func (h *FormsHandler) reject(w http.ResponseWriter, r *http.Request, endpoint, msg string, err error) {
	metrics.RecordValidationFailure(endpoint)
	h.logger.Debug(r.Context(), "form rejected", logger.String("endpoint", endpoint), logger.Error(err))
	writeJSON(w, http.StatusBadRequest, types.Failed(msg))
}

// fail logs the storage cause and answers 500 with a generic message.
func (h *FormsHandler) fail(w http.ResponseWriter, r *http.Request, op, msg string, err error) {
	h.logger.Error(r.Context(), "form storage failed",
		logger.String("op", op),
		logger.String("path", r.URL.Path),
		logger.Error(WrapKind(op, ErrStorage, err)),
	)
	writeJSON(w, http.StatusInternalServerError, types.Failed(msg))
}
