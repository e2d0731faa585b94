package services

import (
	"fmt"
	"strings"
)

// Section markers. Every assembled prompt contains all six, in this order,
// regardless of which layers fell back.
const (
	markerProfile      = "STUDENT PROFILE:"
	markerModule       = "MODULE CONTEXT:"
	markerConversation = "CONVERSATION STATE:"
	markerPrior        = "PRIOR KNOWLEDGE:"
	markerMessage      = "STUDENT MESSAGE:"
	markerInstruction  = "=== CORE INSTRUCTION ==="
)

// Per-section caps, applied to the inputs before any concatenation. The
// final string is never truncated after assembly.
const (
	historyShown     = 3
	connectionsShown = 2
	masteredShown    = 3
)

// promptTargetChars is the size the optimization score measures against.
const promptTargetChars = 2000

// assemblePrompt deterministically composes the four memory layers and the
// current message into the tutor prompt.
func assemblePrompt(profile LearnerProfile, moduleCtx ModuleContext, conv ConversationState, prior PriorKnowledge, currentMessage string) string {
	sections := []string{"=== HARV MEMORY CONTEXT ==="}

	// Layer 1: learner profile
	sections = append(sections, fmt.Sprintf("%s %s learner, %s pace, %s background",
		markerProfile, defaultString(profile.Style, "adaptive"), defaultString(profile.Pace, "moderate"), defaultString(profile.Background, "beginner")))
	if len(profile.Goals) > 0 {
		sections = append(sections, "LEARNING GOALS: "+strings.Join(profile.Goals, ", "))
	}
	if profile.AverageMastery != "" {
		sections = append(sections, "AVERAGE MASTERY: "+profile.AverageMastery)
	}
	if len(profile.LearningStrengths) > 0 {
		sections = append(sections, "LEARNING STRENGTHS: "+strings.Join(profile.LearningStrengths, ", "))
	}
	if n := len(profile.CrossModuleMastery); n > 0 {
		sections = append(sections, fmt.Sprintf("PRIOR EXPERIENCE: %d previous module interactions", n))
	}

	// Layer 2: module context
	sections = append(sections, "", fmt.Sprintf("%s %s - %s",
		markerModule, defaultString(moduleCtx.Title, "(unknown module)"), defaultString(moduleCtx.Description, "(no description)")))
	if len(moduleCtx.Objectives) > 0 {
		sections = append(sections, "LEARNING OBJECTIVES: "+strings.Join(moduleCtx.Objectives, "; "))
	}
	sections = append(sections, fmt.Sprintf("PROGRESS: %.1f%% complete", moduleCtx.Progress))
	if moduleCtx.SystemPrompt != "" {
		sections = append(sections, "TEACHING APPROACH: "+moduleCtx.SystemPrompt)
	}
	if moduleCtx.ModulePrompt != "" {
		sections = append(sections, "MODULE STRATEGY: "+moduleCtx.ModulePrompt)
	}
	sections = append(sections, "SOCRATIC APPROACH: "+defaultString(moduleCtx.Strategy, "Use strategic questioning to reveal underlying concepts"))

	// Layer 3: conversation state
	sections = append(sections, "", fmt.Sprintf("%s %s (%s phase)",
		markerConversation, defaultString(conv.State, ConversationStateNew), defaultString(string(conv.Phase), string(PhaseNew))))
	sections = append(sections, "TOPIC FOCUS: "+defaultString(conv.Topic, "general"))
	if len(conv.History) > 0 {
		recent := conv.History
		if len(recent) > historyShown {
			recent = recent[len(recent)-historyShown:]
		}
		sections = append(sections, "RECENT DIALOGUE:")
		for _, turn := range recent {
			sections = append(sections, fmt.Sprintf("- %s: %s", turn.Role, turn.Content))
		}
	}

	// Layer 4: prior knowledge
	sections = append(sections, "", markerPrior)
	connections := prior.Connections
	if len(connections) > connectionsShown {
		connections = connections[:connectionsShown]
	}
	if len(connections) == 0 {
		sections = append(sections, "- (no prior module connections)")
	}
	for _, conn := range connections {
		sections = append(sections, fmt.Sprintf("- %s: %s (connection %.1f)", conn.ModuleTitle, conn.KeyInsight, conn.ConnectionStrength))
	}
	mastered := prior.MasteredConcepts
	if len(mastered) > masteredShown {
		mastered = mastered[:masteredShown]
	}
	if len(mastered) > 0 {
		sections = append(sections, "MASTERED CONCEPTS: "+strings.Join(mastered, ", "))
	}

	// Current message
	sections = append(sections, "", markerMessage+" "+defaultString(strings.TrimSpace(currentMessage), "(none)"))
	if strings.TrimSpace(currentMessage) != "" {
		sections = append(sections, "RESPONSE STRATEGY: "+analyzeCurrentMessage(currentMessage))
	}

	// Closing teaching instruction
	sections = append(sections, "", markerInstruction)
	sections = append(sections,
		"Remember: Use Socratic questioning to guide discovery. Never give direct answers.",
		"Focus on asking strategic questions that lead the student to insights.",
		"Build on their prior knowledge and learning style for maximum effectiveness.",
	)

	return strings.Join(sections, "\n")
}

// contextMetrics computes the prompt size metrics. The canonical
// optimization score is min(total_chars/2000, 1): a closeness measure that
// saturates at the target length. This is the only formula in the codebase.
func contextMetrics(prompt string) ContextMetrics {
	score := float64(len(prompt)) / float64(promptTargetChars)
	if score > 1 {
		score = 1
	}
	return ContextMetrics{
		TotalChars:        len(prompt),
		WordCount:         len(strings.Fields(prompt)),
		OptimizationScore: score,
	}
}

// analyzeCurrentMessage picks a response strategy hint from the student's
// message shape.
func analyzeCurrentMessage(message string) string {
	lowered := strings.ToLower(message)
	switch {
	case strings.Contains(message, "?"):
		return "Student is asking - guide with counter-questions"
	case containsAny(lowered, "what", "how", "why", "when", "where"):
		return "Exploratory inquiry - use Socratic method"
	case containsAny(lowered, "think", "believe", "feel"):
		return "Opinion or reflection - probe deeper reasoning"
	case len(strings.Fields(message)) < 5:
		return "Brief response - encourage elaboration"
	default:
		return "Detailed input - identify key concepts to explore"
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
