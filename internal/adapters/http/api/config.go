package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/niicolenco/tikbattle/internal/config"
)

// ConfigProvider exposes reading and replacing the live configuration.
type ConfigProvider interface {
	Config() config.Config
	UpdateConfig(ctx context.Context, cfg *config.Config) error
}

// ConfigHandler handles configuration requests.
type ConfigHandler struct {
	deps ConfigProvider
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(deps ConfigProvider) *ConfigHandler {
	return &ConfigHandler{deps: deps}
}

// HandleConfig handles GET and PUT /api/config requests. PUT replaces
// the whole configuration: the payload is validated before it is
// applied, and rejected payloads leave the running config untouched.
func (h *ConfigHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	const op = "api.config"
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.Config())
	case http.MethodPut, http.MethodPost:
		cfg := h.deps.Config()
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := h.deps.UpdateConfig(r.Context(), &cfg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_config", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "updated"})
	default:
		http.NotFound(w, r)
	}
}
