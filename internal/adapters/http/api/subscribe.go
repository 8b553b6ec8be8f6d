package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/siteforms/internal/adapters/repository"
	"github.com/okian/siteforms/internal/domain/model"
	"github.com/okian/siteforms/internal/domain/types"
	"github.com/okian/siteforms/pkg/logger"
	"github.com/okian/siteforms/pkg/metrics"
)

// HandleSubscribe handles POST /api/subscribe.
// A known email answers 200 without writing; a new one is stored and answers 201.
func (h *FormsHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	const op = "api.subscribe"

	var req types.SubscribeRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.reject(w, r, RouteSubscribe, msgEmailRequired, WrapKind(op, ErrBadRequest, err))
		return
	}

	in, err := model.NewSubscription(req.Email, h.now())
	if err != nil {
		h.reject(w, r, RouteSubscribe, msgEmailRequired, WrapKind(op, ErrBadRequest, err))
		return
	}

	ctx := context.WithoutCancel(r.Context())
	_, found, err := h.store.FindSubscriptionByEmail(ctx, in.Email)
	if err != nil {
		h.fail(w, r, op, msgSubscribeFailed, err)
		return
	}
	if found {
		h.alreadySubscribed(w)
		return
	}

	rec, err := h.store.CreateSubscription(ctx, in)
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		// lost a race with a concurrent sign-up for the same email
		h.logger.Debug(ctx, "duplicate subscription", logger.String("op", op))
		h.alreadySubscribed(w)
	case err != nil:
		h.fail(w, r, op, msgSubscribeFailed, err)
	default:
		writeJSON(w, http.StatusCreated, types.Created(msgSubscribed, rec.ID))
	}
}

func (h *FormsHandler) alreadySubscribed(w http.ResponseWriter) {
	metrics.RecordSubscriptionExisting()
	writeJSON(w, http.StatusOK, types.Ack{Success: true, Message: msgAlreadySubscribed})
}
