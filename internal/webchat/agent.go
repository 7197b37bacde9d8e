package webchat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/odontosorriso/booking-platform/pkg/logging"
)

// AgentRequest is one simulated patient message.
type AgentRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// AgentHandler is the plain-HTTP twin of the WebSocket simulator: one
// POST per patient message, full turn result back. Useful for tests,
// curl and clients without WebSocket support.
type AgentHandler struct {
	turns  TurnHandler
	logger *logging.Logger
}

// NewAgentHandler creates the HTTP simulator endpoint.
func NewAgentHandler(turns TurnHandler, logger *logging.Logger) *AgentHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AgentHandler{turns: turns, logger: logger}
}

// ServeHTTP handles POST /agent.
func (h *AgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Phone = strings.TrimSpace(req.Phone)
	if req.Phone == "" || strings.TrimSpace(req.Message) == "" {
		http.Error(w, "phone and message are required", http.StatusBadRequest)
		return
	}

	result, err := h.turns.HandleTurn(r.Context(), req.Phone, req.Message)
	if err != nil {
		h.logger.Error("agent simulator turn failed", "error", err, "phone", req.Phone)
		http.Error(w, "Falha ao processar a mensagem.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}
