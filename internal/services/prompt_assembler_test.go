package services

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestAssemblePromptAlwaysHasAllMarkers(t *testing.T) {
	// Zero-value layers: the worst case short of the global fallback.
	prompt := assemblePrompt(LearnerProfile{}, ModuleContext{}, ConversationState{}, PriorKnowledge{}, "")

	for _, marker := range []string{
		markerProfile,
		markerModule,
		markerConversation,
		markerPrior,
		markerMessage,
		markerInstruction,
	} {
		if !strings.Contains(prompt, marker) {
			t.Errorf("prompt missing %q", marker)
		}
	}
	if prompt == "" {
		t.Fatal("prompt is empty")
	}
}

func TestAssemblePromptHistoryCap(t *testing.T) {
	conv := ConversationState{
		State: ConversationStateActive,
		Phase: PhaseDeepening,
		Topic: "media",
	}
	for i := 0; i < 6; i++ {
		conv.History = append(conv.History, Turn{Role: "user", Content: fmt.Sprintf("turn-%d", i)})
	}

	prompt := assemblePrompt(LearnerProfile{}, ModuleContext{}, conv, PriorKnowledge{}, "hi")
	for i := 0; i < 3; i++ {
		if strings.Contains(prompt, fmt.Sprintf("turn-%d", i)) {
			t.Errorf("old turn-%d should be dropped", i)
		}
	}
	for i := 3; i < 6; i++ {
		if !strings.Contains(prompt, fmt.Sprintf("turn-%d", i)) {
			t.Errorf("recent turn-%d should be kept", i)
		}
	}
}

func TestAssemblePromptConnectionAndMasteryCaps(t *testing.T) {
	prior := PriorKnowledge{}
	for i := 0; i < 4; i++ {
		prior.Connections = append(prior.Connections, CrossModuleInsight{
			ModuleTitle: fmt.Sprintf("conn-%d", i),
			KeyInsight:  "insight",
		})
	}
	for i := 0; i < 5; i++ {
		prior.MasteredConcepts = append(prior.MasteredConcepts, fmt.Sprintf("concept-%d", i))
	}

	prompt := assemblePrompt(LearnerProfile{}, ModuleContext{}, ConversationState{}, prior, "hi")
	if !strings.Contains(prompt, "conn-0") || !strings.Contains(prompt, "conn-1") {
		t.Error("first two connections should be kept")
	}
	if strings.Contains(prompt, "conn-2") || strings.Contains(prompt, "conn-3") {
		t.Error("connections beyond the cap should be dropped")
	}
	if !strings.Contains(prompt, "concept-2") {
		t.Error("third mastered concept should be kept")
	}
	if strings.Contains(prompt, "concept-3") {
		t.Error("mastered concepts beyond the cap should be dropped")
	}
}

func TestContextMetrics(t *testing.T) {
	short := strings.Repeat("a ", 100) // 200 chars
	m := contextMetrics(short)
	if m.TotalChars != len(short) {
		t.Errorf("TotalChars = %d, want %d", m.TotalChars, len(short))
	}
	if m.WordCount != 100 {
		t.Errorf("WordCount = %d, want 100", m.WordCount)
	}
	if math.Abs(m.OptimizationScore-0.1) > 1e-9 {
		t.Errorf("OptimizationScore = %v, want 0.1", m.OptimizationScore)
	}

	long := strings.Repeat("x", 5000)
	if got := contextMetrics(long).OptimizationScore; got != 1 {
		t.Errorf("OptimizationScore for oversized prompt = %v, want 1", got)
	}
}

func TestAnalyzeCurrentMessage(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"Is this right?", "Student is asking - guide with counter-questions"},
		{"tell me how this works please now", "Exploratory inquiry - use Socratic method"},
		{"I believe media shapes everything around us", "Opinion or reflection - probe deeper reasoning"},
		{"ok sure", "Brief response - encourage elaboration"},
		{"The audience interprets every signal through its own prior frame", "Detailed input - identify key concepts to explore"},
	}
	for _, tc := range cases {
		if got := analyzeCurrentMessage(tc.message); got != tc.want {
			t.Errorf("analyzeCurrentMessage(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}
