package api

import (
	"context"
	"net/http"

	"github.com/okian/siteforms/internal/domain/model"
	"github.com/okian/siteforms/internal/domain/types"
)

// HandleWorkWithUs handles POST /api/work-with-us. Every field is required.
func (h *FormsHandler) HandleWorkWithUs(w http.ResponseWriter, r *http.Request) {
	const op = "api.work_with_us"

	var req types.WorkRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.reject(w, r, RouteWorkWithUs, msgWorkRequired, WrapKind(op, ErrBadRequest, err))
		return
	}

	in, err := model.NewWorkRequest(req.Name, req.Email, req.ProjectType, req.Budget, req.Message, h.now())
	if err != nil {
		h.reject(w, r, RouteWorkWithUs, msgWorkRequired, WrapKind(op, ErrBadRequest, err))
		return
	}

	// storage runs to completion even if the client goes away
	ctx := context.WithoutCancel(r.Context())
	rec, err := h.store.CreateSubmission(ctx, in)
	if err != nil {
		h.fail(w, r, op, msgWorkFailed, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.Created(msgWorkCreated, rec.ID))
}
