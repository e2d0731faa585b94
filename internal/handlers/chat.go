package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harvlabs/harv-backend/internal/requestdata"
	"github.com/harvlabs/harv-backend/internal/services"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type sendMessageRequest struct {
	ModuleID       string `json:"module_id" binding:"required"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"))
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	moduleID, err := uuid.Parse(req.ModuleID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_module_id", err)
		return
	}
	var conversationID *uuid.UUID
	if req.ConversationID != "" {
		id, err := uuid.Parse(req.ConversationID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_conversation_id", err)
			return
		}
		conversationID = &id
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), services.SendMessageInput{
		UserID:         rd.UserID,
		ModuleID:       moduleID,
		ConversationID: conversationID,
		Message:        req.Message,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "chat_failed", err)
		return
	}
	RespondOK(c, result)
}
