package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/braindump-app/api/pkg/core"
)

func TestFromError_Nil(t *testing.T) {
	coreErr, status := FromError(nil, "req_1")
	if coreErr != nil || status != http.StatusOK {
		t.Fatalf("got (%v, %d)", coreErr, status)
	}
}

func TestFromError_ContextErrors(t *testing.T) {
	coreErr, status := FromError(context.DeadlineExceeded, "req_1")
	if status != http.StatusGatewayTimeout || coreErr.Type != core.ErrAPI {
		t.Fatalf("deadline: (%+v, %d)", coreErr, status)
	}
	coreErr, status = FromError(context.Canceled, "req_1")
	if status != http.StatusRequestTimeout || coreErr.Code != "cancelled" {
		t.Fatalf("cancel: (%+v, %d)", coreErr, status)
	}
}

func TestFromError_CanonicalPassesThrough(t *testing.T) {
	in := &core.Error{Type: core.ErrRateLimit, Message: "slow down"}
	coreErr, status := FromError(fmt.Errorf("wrapped: %w", in), "req_42")
	if status != http.StatusTooManyRequests {
		t.Fatalf("status=%d", status)
	}
	if coreErr.RequestID != "req_42" || coreErr.Message != "slow down" {
		t.Fatalf("coreErr=%+v", coreErr)
	}
	// Original must not be mutated.
	if in.RequestID != "" {
		t.Fatalf("input mutated: %+v", in)
	}
}

func TestFromError_UnknownIsInternal(t *testing.T) {
	coreErr, status := FromError(errors.New("boom"), "req_1")
	if status != http.StatusInternalServerError || coreErr.Message != "internal error" {
		t.Fatalf("got (%+v, %d)", coreErr, status)
	}
}

func TestStatusFromType(t *testing.T) {
	cases := map[core.ErrorType]int{
		core.ErrInvalidRequest: http.StatusBadRequest,
		core.ErrAuthentication: http.StatusUnauthorized,
		core.ErrPermission:     http.StatusForbidden,
		core.ErrNotFound:       http.StatusNotFound,
		core.ErrRateLimit:      http.StatusTooManyRequests,
		core.ErrOverloaded:     529,
		core.ErrProvider:       http.StatusBadGateway,
		core.ErrAPI:            http.StatusBadGateway,
		core.ErrorType("???"):  http.StatusInternalServerError,
	}
	for typ, want := range cases {
		if got := StatusFromType(typ); got != want {
			t.Fatalf("StatusFromType(%q)=%d, want %d", typ, got, want)
		}
	}
}
