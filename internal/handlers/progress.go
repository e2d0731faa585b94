package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harvlabs/harv-backend/internal/data/repos"
	"github.com/harvlabs/harv-backend/internal/requestdata"
	"github.com/harvlabs/harv-backend/internal/services"
)

type ProgressHandler struct {
	insightService *services.InsightService
	progressRepo   repos.ProgressRecordRepo
}

func NewProgressHandler(insightService *services.InsightService, progressRepo repos.ProgressRecordRepo) *ProgressHandler {
	return &ProgressHandler{insightService: insightService, progressRepo: progressRepo}
}

type updateProgressRequest struct {
	ModuleID        string `json:"module_id" binding:"required"`
	Conversations   int    `json:"conversations"`
	Messages        int    `json:"messages"`
	Insights        int    `json:"insights"`
	TimeMinutes     int    `json:"time_minutes"`
	QuestionsAsked  int    `json:"questions_asked"`
	InsightsGained  int    `json:"insights_gained"`
	ConnectionsMade int    `json:"connections_made"`
}

func (h *ProgressHandler) UpdateProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"))
		return
	}

	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	moduleID, err := uuid.Parse(req.ModuleID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_module_id", err)
		return
	}

	row, err := h.insightService.UpdateProgress(c.Request.Context(), nil, services.UpdateProgressInput{
		UserID:          rd.UserID,
		ModuleID:        moduleID,
		Conversations:   req.Conversations,
		Messages:        req.Messages,
		Insights:        req.Insights,
		TimeMinutes:     req.TimeMinutes,
		QuestionsAsked:  req.QuestionsAsked,
		InsightsGained:  req.InsightsGained,
		ConnectionsMade: req.ConnectionsMade,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_progress_failed", err)
		return
	}
	RespondOK(c, gin.H{"progress": row})
}

func (h *ProgressHandler) GetModuleProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"))
		return
	}

	moduleID, err := uuid.Parse(c.Param("module_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_module_id", err)
		return
	}

	row, err := h.progressRepo.GetByUserAndModule(c.Request.Context(), nil, rd.UserID, moduleID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "get_progress_failed", err)
		return
	}
	if row == nil {
		RespondError(c, http.StatusNotFound, "progress_not_found", fmt.Errorf("no progress for module"))
		return
	}
	RespondOK(c, gin.H{"progress": row})
}

func (h *ProgressHandler) ListProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"))
		return
	}

	rows, err := h.progressRepo.GetByUserID(c.Request.Context(), nil, rd.UserID, 0)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "list_progress_failed", err)
		return
	}
	RespondOK(c, gin.H{"progress": rows})
}
