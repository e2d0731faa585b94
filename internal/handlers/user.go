package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/harvlabs/harv-backend/internal/data/repos"
	types "github.com/harvlabs/harv-backend/internal/domain"
	"github.com/harvlabs/harv-backend/internal/requestdata"
)

type UserHandler struct {
	userRepo   repos.UserRepo
	surveyRepo repos.OnboardingSurveyRepo
}

func NewUserHandler(userRepo repos.UserRepo, surveyRepo repos.OnboardingSurveyRepo) *UserHandler {
	return &UserHandler{userRepo: userRepo, surveyRepo: surveyRepo}
}

type createUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role"`
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	existing, err := h.userRepo.GetByEmails(c.Request.Context(), nil, []string{req.Email})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_user_failed", err)
		return
	}
	if len(existing) > 0 {
		RespondError(c, http.StatusConflict, "email_taken", fmt.Errorf("email already registered"))
		return
	}

	role := types.Role(req.Role)
	switch role {
	case types.RoleStudent, types.RoleEducator, types.RoleAdmin:
	default:
		role = types.RoleStudent
	}

	created, err := h.userRepo.Create(c.Request.Context(), nil, []*types.User{{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     role,
		IsActive: true,
	}})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_user_failed", err)
		return
	}
	RespondOK(c, gin.H{"user": created[0]})
}

type saveSurveyRequest struct {
	LearningStyle string   `json:"learning_style"`
	PreferredPace string   `json:"preferred_pace"`
	Background    string   `json:"background"`
	Goals         []string `json:"goals"`
}

// SaveSurvey creates or replaces the caller's onboarding survey, the stored
// source of the learner profile layer.
func (h *UserHandler) SaveSurvey(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"))
		return
	}

	var req saveSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var goals datatypes.JSON
	if len(req.Goals) > 0 {
		raw, err := json.Marshal(req.Goals)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_goals", err)
			return
		}
		goals = raw
	}

	existing, err := h.surveyRepo.GetByUserID(c.Request.Context(), nil, rd.UserID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "save_survey_failed", err)
		return
	}
	if existing != nil {
		existing.LearningStyle = req.LearningStyle
		existing.PreferredPace = req.PreferredPace
		existing.Background = req.Background
		existing.Goals = goals
		if err := h.surveyRepo.Update(c.Request.Context(), nil, existing); err != nil {
			RespondError(c, http.StatusBadRequest, "save_survey_failed", err)
			return
		}
		RespondOK(c, gin.H{"survey": existing})
		return
	}

	created, err := h.surveyRepo.Create(c.Request.Context(), nil, []*types.OnboardingSurvey{{
		UserID:        rd.UserID,
		LearningStyle: req.LearningStyle,
		PreferredPace: req.PreferredPace,
		Background:    req.Background,
		Goals:         goals,
	}})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "save_survey_failed", err)
		return
	}
	RespondOK(c, gin.H{"survey": created[0]})
}
