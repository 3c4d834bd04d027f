// Package handlers implements the HTTP endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/braindump-app/api/pkg/core"
	"github.com/braindump-app/api/pkg/gateway/apierror"
	"github.com/braindump-app/api/pkg/gateway/mw"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	coreErr, status := apierror.FromError(err, reqID)
	writeJSON(w, status, apierror.Envelope{Error: coreErr})
}

func writeSpeechUnconfigured(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	writeJSON(w, http.StatusServiceUnavailable, apierror.Envelope{Error: &core.Error{
		Type:      core.ErrAPI,
		Message:   "speech endpoints are not configured; set ELEVENLABS_API_KEY",
		Code:      "speech_unconfigured",
		RequestID: reqID,
	}})
}
