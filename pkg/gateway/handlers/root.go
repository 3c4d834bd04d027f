package handlers

import "net/http"

// RootHandler serves the landing probe used by frontends to check the
// API is up.
type RootHandler struct{}

func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Brain Dump Organizer API",
		"status":  "running",
	})
}
