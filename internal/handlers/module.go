package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/harvlabs/harv-backend/internal/data/repos"
	types "github.com/harvlabs/harv-backend/internal/domain"
)

type ModuleHandler struct {
	moduleRepo repos.ModuleRepo
}

func NewModuleHandler(moduleRepo repos.ModuleRepo) *ModuleHandler {
	return &ModuleHandler{moduleRepo: moduleRepo}
}

func (h *ModuleHandler) ListModules(c *gin.Context) {
	rows, err := h.moduleRepo.ListActive(c.Request.Context(), nil)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "list_modules_failed", err)
		return
	}
	RespondOK(c, gin.H{"modules": rows})
}

type createModuleRequest struct {
	Title             string   `json:"title" binding:"required"`
	Description       string   `json:"description"`
	Objectives        []string `json:"objectives"`
	SystemPrompt      string   `json:"system_prompt"`
	ModulePrompt      string   `json:"module_prompt"`
	SocraticIntensity string   `json:"socratic_intensity"`
	DifficultyLevel   string   `json:"difficulty_level"`
	EstimatedDuration int      `json:"estimated_duration"`
}

func (h *ModuleHandler) CreateModule(c *gin.Context) {
	var req createModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var objectives datatypes.JSON
	if len(req.Objectives) > 0 {
		raw, err := json.Marshal(req.Objectives)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_objectives", err)
			return
		}
		objectives = raw
	}

	row := &types.Module{
		Title:             req.Title,
		Description:       req.Description,
		Objectives:        objectives,
		SystemPrompt:      req.SystemPrompt,
		ModulePrompt:      req.ModulePrompt,
		SocraticIntensity: req.SocraticIntensity,
		DifficultyLevel:   req.DifficultyLevel,
		EstimatedDuration: req.EstimatedDuration,
		IsActive:          true,
	}
	if row.SocraticIntensity == "" {
		row.SocraticIntensity = types.IntensityModerate
	}
	if row.DifficultyLevel == "" {
		row.DifficultyLevel = "intermediate"
	}

	created, err := h.moduleRepo.Create(c.Request.Context(), nil, []*types.Module{row})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_module_failed", err)
		return
	}
	RespondOK(c, gin.H{"module": created[0]})
}
