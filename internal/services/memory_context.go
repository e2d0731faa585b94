package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/harvlabs/harv-backend/internal/data/repos"
	types "github.com/harvlabs/harv-backend/internal/domain"
	"github.com/harvlabs/harv-backend/internal/observability"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
)

const (
	layerProfile        = "profile"
	layerModule         = "module"
	layerConversation   = "conversation"
	layerPriorKnowledge = "prior_knowledge"

	crossModuleLimit      = 5
	connectionLimit       = 3
	masteredLimit         = 5
	masteredMinConfidence = 0.6
	historyLimit          = 10
)

// MemoryContextService assembles the tutoring prompt from the four memory
// layers. Assembly is total: every failure path degrades to a usable prompt,
// never to an error.
type MemoryContextService struct {
	log *logger.Logger

	users         repos.UserRepo
	surveys       repos.OnboardingSurveyRepo
	modules       repos.ModuleRepo
	conversations repos.ConversationRepo
	messages      repos.MessageRepo
	insights      repos.InsightSummaryRepo
	progress      repos.ProgressRecordRepo

	strategies *StrategyTable
	metrics    *observability.Metrics
}

func NewMemoryContextService(
	baseLog *logger.Logger,
	users repos.UserRepo,
	surveys repos.OnboardingSurveyRepo,
	modules repos.ModuleRepo,
	conversations repos.ConversationRepo,
	messages repos.MessageRepo,
	insights repos.InsightSummaryRepo,
	progress repos.ProgressRecordRepo,
	strategies *StrategyTable,
	metrics *observability.Metrics,
) *MemoryContextService {
	if strategies == nil {
		strategies = DefaultStrategyTable()
	}
	return &MemoryContextService{
		log:           baseLog.With("service", "MemoryContextService"),
		users:         users,
		surveys:       surveys,
		modules:       modules,
		conversations: conversations,
		messages:      messages,
		insights:      insights,
		progress:      progress,
		strategies:    strategies,
		metrics:       metrics,
	}
}

// AssembleContext builds the full tutoring context for one exchange.
// conversationID is optional; when nil the most recent conversation in the
// module is used. The returned context is always well formed.
func (s *MemoryContextService) AssembleContext(ctx context.Context, userID, moduleID uuid.UUID, conversationID *uuid.UUID, currentMessage string) *AssembledContext {
	tracer := otel.Tracer("harv-backend/services")
	ctx, span := tracer.Start(ctx, "MemoryContextService.AssembleContext")
	defer span.End()
	span.SetAttributes(attribute.String("module_id", moduleID.String()))

	s.metrics.ObserveAssembly()

	userRows, userErr := s.users.GetByIDs(ctx, nil, []uuid.UUID{userID})
	moduleRows, moduleErr := s.modules.GetByIDs(ctx, nil, []uuid.UUID{moduleID})
	if userErr != nil || moduleErr != nil || len(userRows) == 0 || len(moduleRows) == 0 {
		s.log.Warn("context assembly falling back globally",
			"user_id", userID.String(),
			"module_id", moduleID.String(),
			"user_err", userErr,
			"module_err", moduleErr,
			"user_found", len(userRows) > 0,
			"module_found", len(moduleRows) > 0,
		)
		return s.globalFallback(userID, moduleID)
	}
	module := moduleRows[0]

	profile := s.loadLearnerProfile(ctx, userID)
	moduleCtx := s.loadModuleContext(ctx, userID, module)
	conv := s.loadConversationState(ctx, userID, moduleID, conversationID)
	prior := s.loadPriorKnowledge(ctx, userID, moduleID)

	prompt := assemblePrompt(profile, moduleCtx, conv, prior, currentMessage)
	return &AssembledContext{
		Prompt:         prompt,
		Metrics:        contextMetrics(prompt),
		Profile:        profile,
		Module:         moduleCtx,
		Conversation:   conv,
		PriorKnowledge: prior,
		Status: LayerStatus{
			Profile:        profile.Ok,
			Module:         moduleCtx.Ok,
			Conversation:   conv.Ok,
			PriorKnowledge: prior.Ok,
		},
	}
}

// globalFallback produces the non-empty minimal prompt used when the user or
// module row cannot be loaded at all. Metrics are still real measurements of
// the fallback prompt.
func (s *MemoryContextService) globalFallback(userID, moduleID uuid.UUID) *AssembledContext {
	for _, layer := range []string{layerProfile, layerModule, layerConversation, layerPriorKnowledge} {
		s.metrics.ObserveLayerFallback(layer)
	}

	reason := "user or module unavailable"
	profile := fallbackProfile(reason)
	moduleCtx := fallbackModuleContext(moduleID, reason, s.strategies)
	conv := fallbackConversationState(reason)
	prior := fallbackPriorKnowledge(reason)

	base := assemblePrompt(profile, moduleCtx, conv, prior, "")
	prompt := fmt.Sprintf(
		"Error: Unable to load memory context for user %s, module %s. Proceeding with basic Socratic teaching approach.\n\n%s",
		userID, moduleID, base,
	)

	return &AssembledContext{
		Prompt:         prompt,
		Metrics:        contextMetrics(prompt),
		Profile:        profile,
		Module:         moduleCtx,
		Conversation:   conv,
		PriorKnowledge: prior,
		Status:         LayerStatus{},
	}
}

// Layer 1: learner profile. A missing survey is not a failure; the learner
// simply has not onboarded, so adaptive defaults apply with Ok still true.
func (s *MemoryContextService) loadLearnerProfile(ctx context.Context, userID uuid.UUID) LearnerProfile {
	profile := LearnerProfile{
		Ok:         true,
		Style:      "adaptive",
		Pace:       "moderate",
		Background: "beginner",
	}

	survey, err := s.surveys.GetByUserID(ctx, nil, userID)
	if err != nil {
		s.layerFallback(layerProfile, userID, err)
		return fallbackProfile(err.Error())
	}
	if survey != nil {
		if survey.LearningStyle != "" {
			profile.Style = survey.LearningStyle
		}
		if survey.PreferredPace != "" {
			profile.Pace = survey.PreferredPace
		}
		if survey.Background != "" {
			profile.Background = survey.Background
		}
		profile.Goals = jsonStringSlice(survey.Goals)
	}

	// Aggregates cover every module; the cross-module list keeps only the
	// most recent few.
	records, err := s.progress.GetByUserID(ctx, nil, userID, 0)
	if err != nil {
		s.layerFallback(layerProfile, userID, err)
		return fallbackProfile(err.Error())
	}
	recent := records
	if len(recent) > crossModuleLimit {
		recent = recent[:crossModuleLimit]
	}
	for _, rec := range recent {
		profile.CrossModuleMastery = append(profile.CrossModuleMastery, ModuleMastery{
			ModuleID:     rec.ModuleID,
			MasteryLevel: rec.MasteryLevel,
			Completion:   rec.CompletionPercentage,
			LastActivity: rec.UpdatedAt,
		})
	}
	profile.AverageMastery = averageMastery(records)
	profile.LearningStrengths = learningStrengths(records)
	return profile
}

// Layer 2: module context. The module row is pre-fetched by AssembleContext;
// only the progress lookup can still fall back here.
func (s *MemoryContextService) loadModuleContext(ctx context.Context, userID uuid.UUID, module *types.Module) ModuleContext {
	mc := ModuleContext{
		Ok:                true,
		ModuleID:          module.ID,
		Title:             module.Title,
		Description:       module.Description,
		Objectives:        jsonStringSlice(module.Objectives),
		SystemPrompt:      module.SystemPrompt,
		ModulePrompt:      module.ModulePrompt,
		SocraticIntensity: module.SocraticIntensity,
		Strategy:          s.strategies.Strategy(module.Title),
	}

	rec, err := s.progress.GetByUserAndModule(ctx, nil, userID, module.ID)
	if err != nil {
		s.layerFallback(layerModule, userID, err)
		fb := fallbackModuleContext(module.ID, err.Error(), s.strategies)
		fb.Title = module.Title
		fb.Description = module.Description
		fb.Strategy = s.strategies.Strategy(module.Title)
		return fb
	}
	if rec != nil {
		mc.Progress = rec.CompletionPercentage
	}
	return mc
}

// Layer 3: conversation state. No conversation yet is the normal
// new_conversation case; only query failures degrade to error_fallback.
func (s *MemoryContextService) loadConversationState(ctx context.Context, userID, moduleID uuid.UUID, conversationID *uuid.UUID) ConversationState {
	var (
		conv *types.Conversation
		err  error
	)
	if conversationID != nil {
		conv, err = s.conversations.GetOwned(ctx, nil, *conversationID, userID, moduleID)
		if err != nil {
			s.layerFallback(layerConversation, userID, err)
			return fallbackConversationState(err.Error())
		}
	}
	// A stale or foreign conversation id falls through to the module's most
	// recent conversation rather than starting over.
	if conv == nil {
		conv, err = s.conversations.GetLatestForUserModule(ctx, nil, userID, moduleID)
		if err != nil {
			s.layerFallback(layerConversation, userID, err)
			return fallbackConversationState(err.Error())
		}
	}
	if conv == nil {
		return ConversationState{
			Ok:    true,
			State: ConversationStateNew,
			Phase: PhaseNew,
			Topic: "general",
		}
	}

	total, err := s.messages.CountByConversationID(ctx, nil, conv.ID)
	if err != nil {
		s.layerFallback(layerConversation, userID, err)
		return fallbackConversationState(err.Error())
	}
	rows, err := s.messages.GetRecentByConversationID(ctx, nil, conv.ID, historyLimit)
	if err != nil {
		s.layerFallback(layerConversation, userID, err)
		return fallbackConversationState(err.Error())
	}

	history := make([]Turn, 0, len(rows))
	for _, m := range rows {
		history = append(history, Turn{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
	}

	id := conv.ID
	return ConversationState{
		Ok:             true,
		State:          ConversationStateActive,
		ConversationID: &id,
		Phase:          classifyPhase(int(total)),
		Topic:          extractTopic(history),
		TurnCount:      int(total),
		History:        history,
	}
}

// Layer 4: prior knowledge from the learner's other modules.
func (s *MemoryContextService) loadPriorKnowledge(ctx context.Context, userID, moduleID uuid.UUID) PriorKnowledge {
	prior := PriorKnowledge{Ok: true}

	others, err := s.conversations.GetByUserExcludingModule(ctx, nil, userID, moduleID)
	if err != nil {
		s.layerFallback(layerPriorKnowledge, userID, err)
		return fallbackPriorKnowledge(err.Error())
	}

	// Most recent conversation per module, capped at connectionLimit modules.
	// Input order is already most-recent-first.
	picked := make([]*types.Conversation, 0, connectionLimit)
	seen := make(map[uuid.UUID]bool)
	for _, c := range others {
		if seen[c.ModuleID] {
			continue
		}
		seen[c.ModuleID] = true
		picked = append(picked, c)
		if len(picked) == connectionLimit {
			break
		}
	}

	if len(picked) > 0 {
		convIDs := make([]uuid.UUID, 0, len(picked))
		modIDs := make([]uuid.UUID, 0, len(picked))
		for _, c := range picked {
			convIDs = append(convIDs, c.ID)
			modIDs = append(modIDs, c.ModuleID)
		}

		counts, err := s.messages.CountByConversationIDs(ctx, nil, convIDs)
		if err != nil {
			s.layerFallback(layerPriorKnowledge, userID, err)
			return fallbackPriorKnowledge(err.Error())
		}
		modRows, err := s.modules.GetByIDs(ctx, nil, modIDs)
		if err != nil {
			s.layerFallback(layerPriorKnowledge, userID, err)
			return fallbackPriorKnowledge(err.Error())
		}
		titles := make(map[uuid.UUID]string, len(modRows))
		for _, m := range modRows {
			titles[m.ID] = m.Title
		}

		insightRows, err := s.insights.GetByUserID(ctx, nil, userID)
		if err != nil {
			s.layerFallback(layerPriorKnowledge, userID, err)
			return fallbackPriorKnowledge(err.Error())
		}
		byModule := make(map[uuid.UUID]*types.InsightSummary, len(insightRows))
		for _, row := range insightRows {
			if _, ok := byModule[row.ModuleID]; !ok {
				byModule[row.ModuleID] = row
			}
		}

		for _, c := range picked {
			title := titles[c.ModuleID]
			if title == "" {
				title = "(unknown module)"
			}
			insight := "Explored " + title
			if row, ok := byModule[c.ModuleID]; ok && row.WhatLearned != "" {
				insight = row.WhatLearned
			}
			prior.Connections = append(prior.Connections, CrossModuleInsight{
				ModuleID:           c.ModuleID,
				ModuleTitle:        title,
				KeyInsight:         insight,
				MessageCount:       int(counts[c.ID]),
				LastActivity:       c.UpdatedAt,
				ConnectionStrength: connectionStrength(int(counts[c.ID])),
			})
		}
	}

	ranked, err := s.insights.GetByUserIDOrderByConfidence(ctx, nil, userID)
	if err != nil {
		s.layerFallback(layerPriorKnowledge, userID, err)
		return fallbackPriorKnowledge(err.Error())
	}
	for _, row := range ranked {
		if row.Confidence <= masteredMinConfidence {
			continue
		}
		prior.MasteredConcepts = append(prior.MasteredConcepts, row.WhatLearned)
		if len(prior.MasteredConcepts) == masteredLimit {
			break
		}
	}
	return prior
}

func (s *MemoryContextService) layerFallback(layer string, userID uuid.UUID, err error) {
	s.metrics.ObserveLayerFallback(layer)
	s.log.Warn("memory layer falling back",
		"layer", layer,
		"user_id", userID.String(),
		"error", err,
	)
}

// connectionStrength saturates at ten messages: min(messages/10, 1).
func connectionStrength(messages int) float64 {
	v := float64(messages) / 10
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// averageMastery is the modal mastery level of the given records, with
// novice counted as beginner and ties broken toward the higher level. No
// records means "beginner".
func averageMastery(records []*types.ProgressRecord) string {
	if len(records) == 0 {
		return types.MasteryBeginner
	}
	counts := map[string]int{}
	for _, rec := range records {
		level := rec.MasteryLevel
		if level == types.MasteryNovice || level == "" {
			level = types.MasteryBeginner
		}
		counts[level]++
	}
	best, bestCount := types.MasteryBeginner, 0
	for _, level := range []string{types.MasteryAdvanced, types.MasteryIntermediate, types.MasteryBeginner} {
		if counts[level] > bestCount {
			best, bestCount = level, counts[level]
		}
	}
	return best
}

// learningStrengths derives strength tags from summed interaction counters.
func learningStrengths(records []*types.ProgressRecord) []string {
	var insights, questions, connections int
	for _, rec := range records {
		insights += rec.InsightsGained
		questions += rec.QuestionsAsked
		connections += rec.ConnectionsMade
	}
	var out []string
	if insights > 5 {
		out = append(out, "insight generation")
	}
	if questions > 10 {
		out = append(out, "inquisitive questioning")
	}
	if connections > 3 {
		out = append(out, "cross-domain connections")
	}
	return out
}

func fallbackProfile(reason string) LearnerProfile {
	return LearnerProfile{
		FallbackReason: reason,
		Style:          "adaptive",
		Pace:           "moderate",
		Background:     "beginner",
	}
}

func fallbackModuleContext(moduleID uuid.UUID, reason string, strategies *StrategyTable) ModuleContext {
	return ModuleContext{
		FallbackReason: reason,
		ModuleID:       moduleID,
		Strategy:       strategies.Strategy(""),
	}
}

func fallbackConversationState(reason string) ConversationState {
	return ConversationState{
		FallbackReason: reason,
		State:          ConversationStateError,
		Phase:          PhaseNew,
		Topic:          "general",
	}
}

func fallbackPriorKnowledge(reason string) PriorKnowledge {
	return PriorKnowledge{FallbackReason: reason}
}

// jsonStringSlice decodes a jsonb string array column, tolerating null and
// malformed payloads.
func jsonStringSlice(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
