package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/harvlabs/harv-backend/internal/domain"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Complete(context.Context, string, []Turn, string) (string, error) {
	return f.reply, f.err
}

func newChatFixture(t *testing.T, f *memoryFixture, llm TutorLLM) *ChatService {
	t.Helper()
	memory := f.service(t)
	insight := NewInsightService(testLogger(t), f.insights, f.progress, f.metrics)
	return NewChatService(
		testLogger(t),
		f.conversations,
		f.messages,
		f.insights,
		f.progress,
		memory,
		insight,
		llm,
		nil,
		f.metrics,
	)
}

func TestSendMessageHappyPath(t *testing.T) {
	f := newMemoryFixture(t)
	f.conversations.count = 1
	f.messages.userCount = 2
	chat := newChatFixture(t, f, &fakeLLM{reply: "What do you think drives that? How would you check?"})

	result, err := chat.SendMessage(context.Background(), SendMessageInput{
		UserID:   f.userID,
		ModuleID: f.moduleID,
		Message:  "media influences people",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if result.ConversationID == uuid.Nil {
		t.Error("ConversationID not set")
	}
	if !strings.Contains(result.Reply, "What do you think") {
		t.Errorf("Reply = %q", result.Reply)
	}
	if result.Compliance.Compliance != ComplianceHigh {
		t.Errorf("Compliance = %q, want HIGH", result.Compliance.Compliance)
	}

	// Student message plus assistant reply stored.
	var userMsgs, assistantMsgs int
	for _, m := range f.messages.recent {
		switch m.Role {
		case types.TurnRoleUser:
			userMsgs++
		case types.TurnRoleAssistant:
			assistantMsgs++
		}
	}
	if userMsgs != 1 || assistantMsgs != 1 {
		t.Errorf("stored messages user=%d assistant=%d, want 1/1", userMsgs, assistantMsgs)
	}

	// Progress recomputed from current totals.
	if len(f.progress.rows) == 0 {
		t.Fatal("progress row not upserted")
	}
	row := f.progress.rows[len(f.progress.rows)-1]
	if row.TotalConversations != 1 || row.TotalMessages != 2 {
		t.Errorf("progress counters = %d/%d, want 1/2", row.TotalConversations, row.TotalMessages)
	}

	snap := f.metrics.Snapshot()
	if snap["llm_ok"] != 1 {
		t.Errorf("llm_ok = %d, want 1", snap["llm_ok"])
	}
	if snap["compliance_HIGH"] != 1 {
		t.Errorf("compliance_HIGH = %d, want 1", snap["compliance_HIGH"])
	}
}

func TestSendMessageLLMFallback(t *testing.T) {
	f := newMemoryFixture(t)
	chat := newChatFixture(t, f, &fakeLLM{err: errors.New("rate limited")})

	result, err := chat.SendMessage(context.Background(), SendMessageInput{
		UserID:   f.userID,
		ModuleID: f.moduleID,
		Message:  "what is framing?",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if result.Reply != fallbackReplyQuestion {
		t.Errorf("Reply = %q, want canned question fallback", result.Reply)
	}
	if f.metrics.Snapshot()["llm_fallback"] != 1 {
		t.Error("llm_fallback not counted")
	}

	// Non-question messages get the reflective fallback.
	result, err = chat.SendMessage(context.Background(), SendMessageInput{
		UserID:   f.userID,
		ModuleID: f.moduleID,
		Message:  "framing decides everything",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if result.Reply != fallbackReplyDefault {
		t.Errorf("Reply = %q, want default fallback", result.Reply)
	}
}

func TestSendMessageRejectsEmpty(t *testing.T) {
	f := newMemoryFixture(t)
	chat := newChatFixture(t, f, &fakeLLM{reply: "Why?"})

	if _, err := chat.SendMessage(context.Background(), SendMessageInput{
		UserID:   f.userID,
		ModuleID: f.moduleID,
		Message:  "   ",
	}); err == nil {
		t.Fatal("expected error for blank message")
	}
}

func TestSendMessageUnknownConversation(t *testing.T) {
	f := newMemoryFixture(t)
	chat := newChatFixture(t, f, &fakeLLM{reply: "Why?"})

	missing := uuid.New()
	if _, err := chat.SendMessage(context.Background(), SendMessageInput{
		UserID:         f.userID,
		ModuleID:       f.moduleID,
		ConversationID: &missing,
		Message:        "hello",
	}); err == nil {
		t.Fatal("expected error for unknown conversation id")
	}
}
