package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harvlabs/harv-backend/internal/requestdata"
	"github.com/harvlabs/harv-backend/internal/services"
)

type MemoryHandler struct {
	memoryService  *services.MemoryContextService
	insightService *services.InsightService
}

func NewMemoryHandler(memoryService *services.MemoryContextService, insightService *services.InsightService) *MemoryHandler {
	return &MemoryHandler{memoryService: memoryService, insightService: insightService}
}

type assembleContextRequest struct {
	ModuleID       string `json:"module_id" binding:"required"`
	ConversationID string `json:"conversation_id"`
	CurrentMessage string `json:"current_message"`
}

type assembleContextResponse struct {
	Prompt       string                     `json:"prompt"`
	Metrics      services.ContextMetrics    `json:"metrics"`
	Layers       services.LayerStatus       `json:"layers"`
	Phase        services.ConversationPhase `json:"phase"`
	Topic        string                     `json:"topic"`
	Strategy     string                     `json:"strategy"`
	Completion   float64                    `json:"completion"`
	MasteryLevel string                     `json:"average_mastery"`
}

// AssembleContext exposes the context engine directly so operators and the
// frontend can inspect what the tutor would see.
func (h *MemoryHandler) AssembleContext(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"))
		return
	}

	var req assembleContextRequest
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

	assembled := h.memoryService.AssembleContext(c.Request.Context(), rd.UserID, moduleID, conversationID, req.CurrentMessage)
	RespondOK(c, assembleContextResponse{
		Prompt:       assembled.Prompt,
		Metrics:      assembled.Metrics,
		Layers:       assembled.Status,
		Phase:        assembled.Conversation.Phase,
		Topic:        assembled.Conversation.Topic,
		Strategy:     assembled.Module.Strategy,
		Completion:   assembled.Module.Progress,
		MasteryLevel: assembled.Profile.AverageMastery,
	})
}

type analyzeReplyRequest struct {
	Reply string `json:"reply"`
}

func (h *MemoryHandler) AnalyzeReply(c *gin.Context) {
	var req analyzeReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	RespondOK(c, services.AnalyzeReply(req.Reply))
}

type saveInsightRequest struct {
	ModuleID        string  `json:"module_id" binding:"required"`
	WhatLearned     string  `json:"what_learned" binding:"required"`
	HowLearned      string  `json:"how_learned"`
	ConnectionsMade string  `json:"connections_made"`
	Confidence      float64 `json:"confidence"`
}

func (h *MemoryHandler) SaveInsight(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"))
		return
	}

	var req saveInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	moduleID, err := uuid.Parse(req.ModuleID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_module_id", err)
		return
	}

	row, err := h.insightService.SaveInsight(c.Request.Context(), nil, services.SaveInsightInput{
		UserID:          rd.UserID,
		ModuleID:        moduleID,
		WhatLearned:     req.WhatLearned,
		HowLearned:      req.HowLearned,
		ConnectionsMade: req.ConnectionsMade,
		Confidence:      req.Confidence,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "save_insight_failed", err)
		return
	}
	RespondOK(c, gin.H{"insight": row})
}
