package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/braindump-app/api/pkg/core"
	"github.com/braindump-app/api/pkg/organize"
)

// DumpOrganizer is what the handler needs from the organize package.
type DumpOrganizer interface {
	Organize(ctx context.Context, req organize.Request) (*organize.Response, error)
}

// OrganizeHandler turns a free-form brain dump into structured tasks
// and notes.
type OrganizeHandler struct {
	Organizer    DumpOrganizer
	MaxBodyBytes int64
	Timeout      time.Duration
}

func (h *OrganizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)

	var req organize.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, r, core.NewInvalidRequestError("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeErr(w, r, core.NewInvalidRequestErrorWithParam("text must not be empty", "text"))
		return
	}
	if req.TodayISO == "" {
		writeErr(w, r, core.NewInvalidRequestErrorWithParam("todayISO is required", "todayISO"))
		return
	}
	if _, err := time.Parse("2006-01-02", req.TodayISO); err != nil {
		writeErr(w, r, core.NewInvalidRequestErrorWithParam("invalid date format, use YYYY-MM-DD", "todayISO"))
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	resp, err := h.Organizer.Organize(ctx, req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
