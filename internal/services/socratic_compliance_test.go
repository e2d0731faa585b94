package services

import (
	"math"
	"testing"
)

func TestAnalyzeReplyHigh(t *testing.T) {
	// 3 questions over 4 sentences: ratio 0.75.
	reply := "What do you think? Why might that be? Consider the context. How would you test it?"
	report := AnalyzeReply(reply)

	if report.QuestionCount != 3 {
		t.Errorf("QuestionCount = %d, want 3", report.QuestionCount)
	}
	if report.SentenceCount != 4 {
		t.Errorf("SentenceCount = %d, want 4", report.SentenceCount)
	}
	if report.Compliance != ComplianceHigh {
		t.Errorf("Compliance = %q, want HIGH", report.Compliance)
	}
	if report.HasDirectAnswer {
		t.Error("HasDirectAnswer = true, want false")
	}
	if math.Abs(report.EffectivenessScore-0.75) > 1e-9 {
		t.Errorf("EffectivenessScore = %v, want 0.75", report.EffectivenessScore)
	}
}

func TestAnalyzeReplyMedium(t *testing.T) {
	// 1 question over 2 sentences: ratio 0.5.
	report := AnalyzeReply("That builds on your earlier point. What changed your mind?")
	if report.Compliance != ComplianceMedium {
		t.Errorf("Compliance = %q, want MEDIUM", report.Compliance)
	}
}

func TestAnalyzeReplyLowNoQuestions(t *testing.T) {
	report := AnalyzeReply("This is a statement. Here is another one. And a third.")
	if report.Compliance != ComplianceLow {
		t.Errorf("Compliance = %q, want LOW", report.Compliance)
	}
	if report.QuestionCount != 0 {
		t.Errorf("QuestionCount = %d, want 0", report.QuestionCount)
	}
	if report.EffectivenessScore != 0 {
		t.Errorf("EffectivenessScore = %v, want 0", report.EffectivenessScore)
	}
}

func TestAnalyzeReplyDirectAnswerHalvesScore(t *testing.T) {
	report := AnalyzeReply("The answer is framing. What else could explain it?")
	if !report.HasDirectAnswer {
		t.Fatal("HasDirectAnswer = false, want true")
	}
	// ratio 0.5, halved to 0.25
	if math.Abs(report.EffectivenessScore-0.25) > 1e-9 {
		t.Errorf("EffectivenessScore = %v, want 0.25", report.EffectivenessScore)
	}
}

func TestAnalyzeReplyEmpty(t *testing.T) {
	for _, reply := range []string{"", "   ", "\n\t"} {
		report := AnalyzeReply(reply)
		if report.Compliance != ComplianceLow {
			t.Errorf("AnalyzeReply(%q).Compliance = %q, want LOW", reply, report.Compliance)
		}
		if report.QuestionCount != 0 || report.SentenceCount != 0 {
			t.Errorf("AnalyzeReply(%q) counts = %d/%d, want 0/0", reply, report.QuestionCount, report.SentenceCount)
		}
	}
}

func TestCountSentences(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"One. Two. Three.", 3},
		{"No terminator", 1},
		{"Trailing fragment. still counts", 2},
		{"What?! Really?!", 2},
		{"...", 0},
	}
	for _, tc := range cases {
		if got := countSentences(tc.text); got != tc.want {
			t.Errorf("countSentences(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
