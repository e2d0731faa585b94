package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harvlabs/harv-backend/internal/data/repos"
	types "github.com/harvlabs/harv-backend/internal/domain"
	"github.com/harvlabs/harv-backend/internal/observability"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
	"github.com/harvlabs/harv-backend/internal/realtime/bus"
)

// Socratic fallback replies used when the LLM is unavailable. The exchange
// still completes: the student gets a guiding question either way.
var (
	fallbackReplyQuestion = "I see you're asking an important question! Before I share thoughts, what's your initial thinking on this? What comes to mind first?"
	fallbackReplyDefault  = "That's an interesting point. What led you to that view, and what evidence would support or challenge it?"
)

// ChatService runs one full tutoring exchange: resolve the conversation,
// assemble context, generate the reply, analyze it, persist everything, and
// publish the tutoring event.
type ChatService struct {
	log *logger.Logger

	conversations repos.ConversationRepo
	messages      repos.MessageRepo
	insights      repos.InsightSummaryRepo
	progress      repos.ProgressRecordRepo

	memory  *MemoryContextService
	insight *InsightService
	llm     TutorLLM
	events  bus.TutorEventBus
	metrics *observability.Metrics
}

func NewChatService(
	baseLog *logger.Logger,
	conversations repos.ConversationRepo,
	messages repos.MessageRepo,
	insights repos.InsightSummaryRepo,
	progress repos.ProgressRecordRepo,
	memory *MemoryContextService,
	insight *InsightService,
	llm TutorLLM,
	events bus.TutorEventBus,
	metrics *observability.Metrics,
) *ChatService {
	return &ChatService{
		log:           baseLog.With("service", "ChatService"),
		conversations: conversations,
		messages:      messages,
		insights:      insights,
		progress:      progress,
		memory:        memory,
		insight:       insight,
		llm:           llm,
		events:        events,
		metrics:       metrics,
	}
}

type SendMessageInput struct {
	UserID         uuid.UUID
	ModuleID       uuid.UUID
	ConversationID *uuid.UUID
	Message        string
}

type SendMessageResult struct {
	ConversationID uuid.UUID         `json:"conversation_id"`
	Reply          string            `json:"reply"`
	Compliance     ComplianceReport  `json:"compliance"`
	Metrics        ContextMetrics    `json:"context_metrics"`
	Layers         LayerStatus       `json:"layers"`
	Phase          ConversationPhase `json:"phase"`
}

// SendMessage processes one student message end to end. LLM failure degrades
// to a canned Socratic reply; a progress-update failure is logged and counted
// but does not fail the exchange.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageResult, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("message required")
	}

	conv, err := s.resolveConversation(ctx, in)
	if err != nil {
		return nil, err
	}

	assembled := s.memory.AssembleContext(ctx, in.UserID, in.ModuleID, in.ConversationID, in.Message)

	if _, err := s.messages.Create(ctx, nil, []*types.Message{{
		ConversationID: conv.ID,
		Role:           types.TurnRoleUser,
		Content:        in.Message,
	}}); err != nil {
		return nil, fmt.Errorf("store student message: %w", err)
	}

	reply := s.generateReply(ctx, assembled, in.Message)
	report := AnalyzeReply(reply)
	s.metrics.ObserveCompliance(string(report.Compliance))

	if _, err := s.messages.Create(ctx, nil, []*types.Message{{
		ConversationID: conv.ID,
		Role:           types.TurnRoleAssistant,
		Content:        reply,
	}}); err != nil {
		return nil, fmt.Errorf("store tutor reply: %w", err)
	}
	if err := s.conversations.Touch(ctx, nil, conv.ID); err != nil {
		s.log.Warn("conversation touch failed", "conversation_id", conv.ID.String(), "error", err)
	}

	s.updateProgress(ctx, in, report)
	s.publishEvent(ctx, in, conv.ID, report)

	return &SendMessageResult{
		ConversationID: conv.ID,
		Reply:          reply,
		Compliance:     report,
		Metrics:        assembled.Metrics,
		Layers:         assembled.Status,
		Phase:          assembled.Conversation.Phase,
	}, nil
}

func (s *ChatService) resolveConversation(ctx context.Context, in SendMessageInput) (*types.Conversation, error) {
	if in.ConversationID != nil {
		conv, err := s.conversations.GetOwned(ctx, nil, *in.ConversationID, in.UserID, in.ModuleID)
		if err != nil {
			return nil, fmt.Errorf("load conversation: %w", err)
		}
		if conv == nil {
			return nil, fmt.Errorf("conversation not found")
		}
		return conv, nil
	}

	conv, err := s.conversations.GetLatestForUserModule(ctx, nil, in.UserID, in.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}

	created, err := s.conversations.Create(ctx, nil, []*types.Conversation{{
		UserID:   in.UserID,
		ModuleID: in.ModuleID,
	}})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return created[0], nil
}

func (s *ChatService) generateReply(ctx context.Context, assembled *AssembledContext, message string) string {
	reply, err := s.llm.Complete(ctx, assembled.Prompt, assembled.Conversation.History, message)
	if err != nil {
		s.metrics.ObserveLLM("fallback")
		s.log.Warn("LLM unavailable, using fallback reply", "error", err)
		if strings.Contains(message, "?") {
			return fallbackReplyQuestion
		}
		return fallbackReplyDefault
	}
	s.metrics.ObserveLLM("ok")
	return reply
}

// updateProgress recomputes the module progress row from current totals. An
// insight row counts once; time advances one minute per exchange.
func (s *ChatService) updateProgress(ctx context.Context, in SendMessageInput, report ComplianceReport) {
	convCount, err := s.conversations.CountByUserAndModule(ctx, nil, in.UserID, in.ModuleID)
	if err != nil {
		s.progressUpdateFailed(in, err)
		return
	}
	msgCount, err := s.messages.CountByUserAndModule(ctx, nil, in.UserID, in.ModuleID)
	if err != nil {
		s.progressUpdateFailed(in, err)
		return
	}
	insightRow, err := s.insights.GetByUserAndModule(ctx, nil, in.UserID, in.ModuleID)
	if err != nil {
		s.progressUpdateFailed(in, err)
		return
	}
	existing, err := s.progress.GetByUserAndModule(ctx, nil, in.UserID, in.ModuleID)
	if err != nil {
		s.progressUpdateFailed(in, err)
		return
	}

	insightCount := 0
	if insightRow != nil {
		insightCount = 1
	}
	input := UpdateProgressInput{
		UserID:        in.UserID,
		ModuleID:      in.ModuleID,
		Conversations: int(convCount),
		Messages:      int(msgCount),
		Insights:      insightCount,
		TimeMinutes:   1,
	}
	if existing != nil {
		input.TimeMinutes = existing.TimeSpentMinutes + 1
		input.QuestionsAsked = existing.QuestionsAsked
		input.InsightsGained = existing.InsightsGained
		input.ConnectionsMade = existing.ConnectionsMade
	}
	if report.QuestionCount > 0 {
		input.QuestionsAsked += report.QuestionCount
	}

	if _, err := s.insight.UpdateProgress(ctx, nil, input); err != nil {
		s.progressUpdateFailed(in, err)
	}
}

func (s *ChatService) progressUpdateFailed(in SendMessageInput, err error) {
	s.metrics.ObservePersistFailure()
	s.log.Error("progress update failed",
		"user_id", in.UserID.String(),
		"module_id", in.ModuleID.String(),
		"error", err,
	)
}

func (s *ChatService) publishEvent(ctx context.Context, in SendMessageInput, conversationID uuid.UUID, report ComplianceReport) {
	if s.events == nil {
		return
	}
	ev := bus.TutorEvent{
		UserID:         in.UserID.String(),
		ModuleID:       in.ModuleID.String(),
		ConversationID: conversationID.String(),
		Compliance:     string(report.Compliance),
		QuestionCount:  report.QuestionCount,
		At:             time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("tutor event publish failed", "conversation_id", conversationID.String(), "error", err)
	}
}
