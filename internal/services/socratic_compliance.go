package services

import (
	"strings"
)

type ComplianceLevel string

const (
	ComplianceHigh   ComplianceLevel = "HIGH"
	ComplianceMedium ComplianceLevel = "MEDIUM"
	ComplianceLow    ComplianceLevel = "LOW"
)

// directAnswerPhrases flags replies that hand the student a definition
// instead of guiding toward one. Matched case-insensitively.
var directAnswerPhrases = []string{
	"the answer is",
	"it is defined as",
	"communication is",
	"the definition",
}

type ComplianceReport struct {
	QuestionCount      int             `json:"question_count"`
	SentenceCount      int             `json:"sentence_count"`
	QuestionRatio      float64         `json:"question_ratio"`
	Compliance         ComplianceLevel `json:"compliance"`
	HasDirectAnswer    bool            `json:"has_direct_answer"`
	EffectivenessScore float64         `json:"effectiveness_score"`
}

// AnalyzeReply scores a generated tutor reply for guided-questioning
// compliance. It is total: an empty or malformed reply yields a LOW report
// with zeroed counts.
//
// question_ratio = question_count / max(sentence_count, 1); ratio >= 0.7 is
// HIGH, >= 0.4 MEDIUM, else LOW. effectiveness_score equals the ratio
// (clamped to [0,1]) halved when a direct-answer phrase is present, so
// HIGH-with-no-direct-answer scores highest.
func AnalyzeReply(reply string) ComplianceReport {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return ComplianceReport{Compliance: ComplianceLow}
	}

	questionCount := strings.Count(trimmed, "?")
	sentenceCount := countSentences(trimmed)

	denom := sentenceCount
	if denom < 1 {
		denom = 1
	}
	ratio := float64(questionCount) / float64(denom)

	level := ComplianceLow
	switch {
	case ratio >= 0.7:
		level = ComplianceHigh
	case ratio >= 0.4:
		level = ComplianceMedium
	}

	lowered := strings.ToLower(trimmed)
	hasDirect := false
	for _, phrase := range directAnswerPhrases {
		if strings.Contains(lowered, phrase) {
			hasDirect = true
			break
		}
	}

	score := ratio
	if score > 1 {
		score = 1
	}
	if hasDirect {
		score *= 0.5
	}

	return ComplianceReport{
		QuestionCount:      questionCount,
		SentenceCount:      sentenceCount,
		QuestionRatio:      ratio,
		Compliance:         level,
		HasDirectAnswer:    hasDirect,
		EffectivenessScore: score,
	}
}

// countSentences counts terminator runs ('.', '!', '?'); a trailing fragment
// without a terminator still counts as one sentence.
func countSentences(text string) int {
	count := 0
	inSentence := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if inSentence {
				count++
				inSentence = false
			}
		default:
			if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
				inSentence = true
			}
		}
	}
	if inSentence {
		count++
	}
	return count
}
