package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// The four memory layers feeding the prompt assembler. Each layer is a typed
// record with an explicit Ok flag: a failed load produces a usable fallback
// value, never an error.

type LearnerProfile struct {
	Ok             bool
	FallbackReason string

	Style      string
	Pace       string
	Background string
	Goals      []string

	AverageMastery     string
	LearningStrengths  []string
	CrossModuleMastery []ModuleMastery
}

// ModuleMastery is one entry of the learner's recent per-module progress,
// most recent first.
type ModuleMastery struct {
	ModuleID     uuid.UUID
	MasteryLevel string
	Completion   float64
	LastActivity time.Time
}

type ModuleContext struct {
	Ok             bool
	FallbackReason string

	ModuleID          uuid.UUID
	Title             string
	Description       string
	Objectives        []string
	SystemPrompt      string
	ModulePrompt      string
	SocraticIntensity string
	Progress          float64
	Strategy          string
}

type ConversationPhase string

const (
	PhaseNew         ConversationPhase = "new"
	PhaseOpening     ConversationPhase = "opening"
	PhaseExploration ConversationPhase = "exploration"
	PhaseDeepening   ConversationPhase = "deepening"
)

const (
	ConversationStateNew    = "new_conversation"
	ConversationStateActive = "active_conversation"
	ConversationStateError  = "error_fallback"
)

type Turn struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

type ConversationState struct {
	Ok             bool
	FallbackReason string

	State          string
	ConversationID *uuid.UUID
	Phase          ConversationPhase
	Topic          string
	TurnCount      int
	History        []Turn // last 10 turns, most recent last
}

type CrossModuleInsight struct {
	ModuleID           uuid.UUID
	ModuleTitle        string
	KeyInsight         string
	MessageCount       int
	LastActivity       time.Time
	ConnectionStrength float64
}

type PriorKnowledge struct {
	Ok             bool
	FallbackReason string

	Connections      []CrossModuleInsight // most recent other modules, top 3
	MasteredConcepts []string             // insight summaries, confidence > 0.6, top 5
}

type ContextMetrics struct {
	TotalChars        int     `json:"total_chars"`
	WordCount         int     `json:"word_count"`
	OptimizationScore float64 `json:"optimization_score"`
}

type LayerStatus struct {
	Profile        bool `json:"profile"`
	Module         bool `json:"module"`
	Conversation   bool `json:"conversation"`
	PriorKnowledge bool `json:"prior_knowledge"`
}

// AssembledContext is the complete result of one context assembly. It is
// always well formed, including under total data-source failure.
type AssembledContext struct {
	Prompt         string
	Metrics        ContextMetrics
	Profile        LearnerProfile
	Module         ModuleContext
	Conversation   ConversationState
	PriorKnowledge PriorKnowledge
	Status         LayerStatus
}

// classifyPhase maps a turn count onto the conversation phase. Thresholds are
// fixed: under 3 turns opening, under 8 exploration, deepening after.
func classifyPhase(turnCount int) ConversationPhase {
	switch {
	case turnCount < 3:
		return PhaseOpening
	case turnCount < 8:
		return PhaseExploration
	default:
		return PhaseDeepening
	}
}

// topicVocabulary is the fixed keyword set scanned for topic focus.
var topicVocabulary = []string{"communication", "media", "society"}

const topicScanWindow = 5

// extractTopic scans the last topicScanWindow turns for vocabulary hits. A
// single strict winner becomes the topic; ties and no hits yield "general".
func extractTopic(history []Turn) string {
	window := history
	if len(window) > topicScanWindow {
		window = window[len(window)-topicScanWindow:]
	}

	counts := make(map[string]int, len(topicVocabulary))
	for _, turn := range window {
		content := strings.ToLower(turn.Content)
		for _, word := range topicVocabulary {
			if strings.Contains(content, word) {
				counts[word]++
			}
		}
	}

	best, bestCount, tied := "", 0, false
	for _, word := range topicVocabulary {
		c := counts[word]
		if c > bestCount {
			best, bestCount, tied = word, c, false
		} else if c == bestCount && c > 0 {
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return "general"
	}
	return best
}
