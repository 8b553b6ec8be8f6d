package api

import (
	"context"
	"net/http"

	"github.com/okian/siteforms/internal/domain/model"
	"github.com/okian/siteforms/internal/domain/types"
)

// HandleContact handles POST /api/contact.
func (h *FormsHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	const op = "api.contact"

	var req types.ContactRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.reject(w, r, RouteContact, msgContactRequired, WrapKind(op, ErrBadRequest, err))
		return
	}

	in, err := model.NewContact(req.Name, req.Email, req.Business, req.Message, h.now())
	if err != nil {
		h.reject(w, r, RouteContact, msgContactRequired, WrapKind(op, ErrBadRequest, err))
		return
	}

	// storage runs to completion even if the client goes away
	ctx := context.WithoutCancel(r.Context())
	rec, err := h.store.CreateSubmission(ctx, in)
	if err != nil {
		h.fail(w, r, op, msgContactFailed, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.Created(msgContactCreated, rec.ID))
}
