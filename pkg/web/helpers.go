package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// ParsePathID extracts a non-empty resource identifier from the request path.
// Commerce backend IDs are opaque strings (e.g. "order_01J..."), not UUIDs.
// Returns the ID and a boolean indicating success.
func ParsePathID(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string) (string, bool) {
	id := r.PathValue(key)
	if id == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Missing %s in request path", key))
		return "", false
	}
	return id, true
}

// QueryParam extracts a required query parameter.
// Returns the value and a boolean indicating success.
func QueryParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string) (string, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("%s url parameter is required", key))
		return "", false
	}
	return value, true
}
