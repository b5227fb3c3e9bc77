package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/asrat/dietbuddy-intake/internal/models"
	"github.com/asrat/dietbuddy-intake/internal/orchestrator"
)

// ChatHandler validates incoming chat requests and hands them to the
// orchestrator. The orchestrator owns all conversational behavior; errors
// surfaced here are transport-level only.
type ChatHandler struct {
	orch *orchestrator.Orchestrator
}

func NewChatHandler(orch *orchestrator.Orchestrator) *ChatHandler {
	return &ChatHandler{orch: orch}
}

func (h *ChatHandler) ProcessChat(ctx context.Context, request *models.ChatRequest) (*models.ChatResponse, error) {
	if request == nil {
		return nil, fmt.Errorf("request is required")
	}

	response := h.orch.HandleTurn(ctx, request)

	log.Printf("Turn processed for session %s: template=%s, status=%s",
		response.SessionID, response.Template, response.Status)
	return response, nil
}
