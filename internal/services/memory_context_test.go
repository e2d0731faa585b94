package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/harvlabs/harv-backend/internal/domain"
	"github.com/harvlabs/harv-backend/internal/observability"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// In-memory repo fakes. Zero values behave as empty stores; Err short-circuits
// every call to simulate a data-source outage.

type fakeUserRepo struct {
	users []*types.User
	err   error
}

func (r *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.User) ([]*types.User, error) {
	return rows, r.err
}
func (r *fakeUserRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*types.User
	for _, u := range r.users {
		for _, id := range ids {
			if u.ID == id {
				out = append(out, u)
			}
		}
	}
	return out, nil
}
func (r *fakeUserRepo) GetByEmails(context.Context, *gorm.DB, []string) ([]*types.User, error) {
	return nil, r.err
}

type fakeSurveyRepo struct {
	survey *types.OnboardingSurvey
	err    error
}

func (r *fakeSurveyRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.OnboardingSurvey) ([]*types.OnboardingSurvey, error) {
	return rows, r.err
}
func (r *fakeSurveyRepo) GetByUserID(context.Context, *gorm.DB, uuid.UUID) (*types.OnboardingSurvey, error) {
	return r.survey, r.err
}
func (r *fakeSurveyRepo) Update(context.Context, *gorm.DB, *types.OnboardingSurvey) error {
	return r.err
}

type fakeModuleRepo struct {
	modules []*types.Module
	err     error
}

func (r *fakeModuleRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.Module) ([]*types.Module, error) {
	return rows, r.err
}
func (r *fakeModuleRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Module, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*types.Module
	for _, m := range r.modules {
		for _, id := range ids {
			if m.ID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}
func (r *fakeModuleRepo) ListActive(context.Context, *gorm.DB) ([]*types.Module, error) {
	return r.modules, r.err
}
func (r *fakeModuleRepo) Update(context.Context, *gorm.DB, *types.Module) error { return r.err }

type fakeConversationRepo struct {
	latest *types.Conversation
	others []*types.Conversation
	count  int64
	err    error
}

func (r *fakeConversationRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.Conversation) ([]*types.Conversation, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	return rows, nil
}
func (r *fakeConversationRepo) GetOwned(_ context.Context, _ *gorm.DB, id, _, _ uuid.UUID) (*types.Conversation, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.latest != nil && r.latest.ID == id {
		return r.latest, nil
	}
	return nil, nil
}
func (r *fakeConversationRepo) GetLatestForUserModule(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) (*types.Conversation, error) {
	return r.latest, r.err
}
func (r *fakeConversationRepo) GetByUserExcludingModule(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) ([]*types.Conversation, error) {
	return r.others, r.err
}
func (r *fakeConversationRepo) CountByUserAndModule(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) (int64, error) {
	return r.count, r.err
}
func (r *fakeConversationRepo) Touch(context.Context, *gorm.DB, uuid.UUID) error { return r.err }

type fakeMessageRepo struct {
	recent    []*types.Message
	total     int64
	perConv   map[uuid.UUID]int64
	userCount int64
	err       error
}

func (r *fakeMessageRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.Message) ([]*types.Message, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.recent = append(r.recent, rows...)
	r.total += int64(len(rows))
	return rows, nil
}
func (r *fakeMessageRepo) GetRecentByConversationID(_ context.Context, _ *gorm.DB, _ uuid.UUID, limit int) ([]*types.Message, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := r.recent
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
func (r *fakeMessageRepo) CountByConversationID(context.Context, *gorm.DB, uuid.UUID) (int64, error) {
	return r.total, r.err
}
func (r *fakeMessageRepo) CountByConversationIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make(map[uuid.UUID]int64, len(ids))
	for _, id := range ids {
		out[id] = r.perConv[id]
	}
	return out, nil
}
func (r *fakeMessageRepo) CountByUserAndModule(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) (int64, error) {
	return r.userCount, r.err
}

type fakeInsightRepo struct {
	rows []*types.InsightSummary
	err  error
}

func (r *fakeInsightRepo) GetByUserID(context.Context, *gorm.DB, uuid.UUID) ([]*types.InsightSummary, error) {
	return r.rows, r.err
}
func (r *fakeInsightRepo) GetByUserIDOrderByConfidence(context.Context, *gorm.DB, uuid.UUID) ([]*types.InsightSummary, error) {
	return r.rows, r.err
}
func (r *fakeInsightRepo) GetByUserAndModule(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) (*types.InsightSummary, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.rows) == 0 {
		return nil, nil
	}
	return r.rows[0], nil
}
func (r *fakeInsightRepo) Upsert(_ context.Context, _ *gorm.DB, row *types.InsightSummary) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, row)
	return nil
}

type fakeProgressRepo struct {
	rows []*types.ProgressRecord
	err  error
}

func (r *fakeProgressRepo) GetByUserID(_ context.Context, _ *gorm.DB, _ uuid.UUID, limit int) ([]*types.ProgressRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := r.rows
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
func (r *fakeProgressRepo) GetByUserAndModule(_ context.Context, _ *gorm.DB, _, moduleID uuid.UUID) (*types.ProgressRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, row := range r.rows {
		if row.ModuleID == moduleID {
			return row, nil
		}
	}
	return nil, nil
}
func (r *fakeProgressRepo) Upsert(_ context.Context, _ *gorm.DB, row *types.ProgressRecord) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, row)
	return nil
}

type memoryFixture struct {
	users         *fakeUserRepo
	surveys       *fakeSurveyRepo
	modules       *fakeModuleRepo
	conversations *fakeConversationRepo
	messages      *fakeMessageRepo
	insights      *fakeInsightRepo
	progress      *fakeProgressRepo
	metrics       *observability.Metrics

	userID   uuid.UUID
	moduleID uuid.UUID
}

func newMemoryFixture(t *testing.T) *memoryFixture {
	t.Helper()
	userID, moduleID := uuid.New(), uuid.New()
	return &memoryFixture{
		users: &fakeUserRepo{users: []*types.User{{
			ID: userID, Email: "s@example.com", Name: "Student", Role: types.RoleStudent,
		}}},
		surveys: &fakeSurveyRepo{},
		modules: &fakeModuleRepo{modules: []*types.Module{{
			ID:          moduleID,
			Title:       "Media and Society",
			Description: "how media shapes social behavior",
		}}},
		conversations: &fakeConversationRepo{},
		messages:      &fakeMessageRepo{perConv: map[uuid.UUID]int64{}},
		insights:      &fakeInsightRepo{},
		progress:      &fakeProgressRepo{},
		metrics:       observability.NewMetrics(),
		userID:        userID,
		moduleID:      moduleID,
	}
}

func (f *memoryFixture) service(t *testing.T) *MemoryContextService {
	t.Helper()
	return NewMemoryContextService(
		testLogger(t),
		f.users,
		f.surveys,
		f.modules,
		f.conversations,
		f.messages,
		f.insights,
		f.progress,
		DefaultStrategyTable(),
		f.metrics,
	)
}

func TestAssembleContextGlobalFallback(t *testing.T) {
	f := newMemoryFixture(t)
	svc := f.service(t)

	missingUser := uuid.New()
	assembled := svc.AssembleContext(context.Background(), missingUser, f.moduleID, nil, "hello")

	if !strings.Contains(assembled.Prompt, "Error: Unable to load memory context") {
		t.Errorf("fallback prompt missing error preamble: %q", assembled.Prompt)
	}
	if !strings.Contains(assembled.Prompt, missingUser.String()) {
		t.Error("fallback prompt should name the user id")
	}
	if assembled.Prompt == "" || assembled.Metrics.TotalChars == 0 {
		t.Error("fallback prompt must be non-empty with real metrics")
	}
	if assembled.Status.Profile || assembled.Status.Module || assembled.Status.Conversation || assembled.Status.PriorKnowledge {
		t.Errorf("all layers should report fallback, got %+v", assembled.Status)
	}
	for _, marker := range []string{markerProfile, markerModule, markerConversation, markerPrior, markerMessage, markerInstruction} {
		if !strings.Contains(assembled.Prompt, marker) {
			t.Errorf("fallback prompt missing %q", marker)
		}
	}

	snap := f.metrics.Snapshot()
	if snap["assemble_total"] != 1 {
		t.Errorf("assemble_total = %d, want 1", snap["assemble_total"])
	}
	for _, layer := range []string{layerProfile, layerModule, layerConversation, layerPriorKnowledge} {
		if snap["layer_fallback_"+layer] != 1 {
			t.Errorf("layer_fallback_%s = %d, want 1", layer, snap["layer_fallback_"+layer])
		}
	}
}

func TestAssembleContextHappyPath(t *testing.T) {
	f := newMemoryFixture(t)
	f.surveys.survey = &types.OnboardingSurvey{
		UserID:        f.userID,
		LearningStyle: types.StyleVisual,
		PreferredPace: types.PaceFast,
		Background:    "journalism undergrad",
	}
	conv := &types.Conversation{ID: uuid.New(), UserID: f.userID, ModuleID: f.moduleID}
	f.conversations.latest = conv
	f.messages.total = 5
	for i := 0; i < 5; i++ {
		f.messages.recent = append(f.messages.recent, &types.Message{
			ConversationID: conv.ID,
			Role:           types.TurnRoleUser,
			Content:        fmt.Sprintf("question %d about media", i),
		})
	}

	svc := f.service(t)
	assembled := svc.AssembleContext(context.Background(), f.userID, f.moduleID, nil, "why does framing matter?")

	if !assembled.Status.Profile || !assembled.Status.Module || !assembled.Status.Conversation || !assembled.Status.PriorKnowledge {
		t.Fatalf("expected all layers ok, got %+v", assembled.Status)
	}
	if assembled.Conversation.Phase != PhaseExploration {
		t.Errorf("Phase = %q, want exploration for 5 turns", assembled.Conversation.Phase)
	}
	if assembled.Conversation.Topic != "media" {
		t.Errorf("Topic = %q, want media", assembled.Conversation.Topic)
	}
	if assembled.Module.Strategy != "Question assumptions about media influence and bias" {
		t.Errorf("Strategy = %q", assembled.Module.Strategy)
	}
	if !strings.Contains(assembled.Prompt, "visual learner, fast pace") {
		t.Errorf("prompt missing profile line: %q", assembled.Prompt)
	}
	if !strings.Contains(assembled.Prompt, "Media and Society") {
		t.Error("prompt missing module title")
	}
}

func TestAssembleContextStaleConversationIDFallsBack(t *testing.T) {
	f := newMemoryFixture(t)
	latest := &types.Conversation{ID: uuid.New(), UserID: f.userID, ModuleID: f.moduleID}
	f.conversations.latest = latest
	f.messages.total = 2
	for i := 0; i < 2; i++ {
		f.messages.recent = append(f.messages.recent, &types.Message{
			ConversationID: latest.ID,
			Role:           types.TurnRoleUser,
			Content:        fmt.Sprintf("earlier turn %d", i),
		})
	}

	stale := uuid.New()
	assembled := f.service(t).AssembleContext(context.Background(), f.userID, f.moduleID, &stale, "hi")

	if assembled.Conversation.State != ConversationStateActive {
		t.Fatalf("State = %q, want %q", assembled.Conversation.State, ConversationStateActive)
	}
	if assembled.Conversation.ConversationID == nil || *assembled.Conversation.ConversationID != latest.ID {
		t.Errorf("ConversationID = %v, want the module's latest conversation", assembled.Conversation.ConversationID)
	}
	if assembled.Conversation.TurnCount != 2 || len(assembled.Conversation.History) != 2 {
		t.Errorf("TurnCount/History = %d/%d, want 2/2", assembled.Conversation.TurnCount, len(assembled.Conversation.History))
	}

	// A matching id still resolves directly.
	assembled = f.service(t).AssembleContext(context.Background(), f.userID, f.moduleID, &latest.ID, "hi")
	if assembled.Conversation.State != ConversationStateActive {
		t.Errorf("State = %q for owned id, want %q", assembled.Conversation.State, ConversationStateActive)
	}
}

func TestAssembleContextPhaseThresholds(t *testing.T) {
	cases := []struct {
		total int64
		want  ConversationPhase
	}{
		{2, PhaseOpening},
		{5, PhaseExploration},
		{12, PhaseDeepening},
	}
	for _, tc := range cases {
		f := newMemoryFixture(t)
		f.conversations.latest = &types.Conversation{ID: uuid.New(), UserID: f.userID, ModuleID: f.moduleID}
		f.messages.total = tc.total

		assembled := f.service(t).AssembleContext(context.Background(), f.userID, f.moduleID, nil, "hi")
		if assembled.Conversation.Phase != tc.want {
			t.Errorf("phase for %d turns = %q, want %q", tc.total, assembled.Conversation.Phase, tc.want)
		}
	}
}

func TestPriorKnowledgeConnectionStrength(t *testing.T) {
	f := newMemoryFixture(t)
	otherModule := &types.Module{ID: uuid.New(), Title: "Communication Basics"}
	f.modules.modules = append(f.modules.modules, otherModule)

	otherConv := &types.Conversation{ID: uuid.New(), UserID: f.userID, ModuleID: otherModule.ID}
	f.conversations.others = []*types.Conversation{otherConv}
	f.messages.perConv[otherConv.ID] = 7

	assembled := f.service(t).AssembleContext(context.Background(), f.userID, f.moduleID, nil, "hi")

	if len(assembled.PriorKnowledge.Connections) != 1 {
		t.Fatalf("Connections = %d, want 1", len(assembled.PriorKnowledge.Connections))
	}
	conn := assembled.PriorKnowledge.Connections[0]
	if math.Abs(conn.ConnectionStrength-0.7) > 1e-9 {
		t.Errorf("ConnectionStrength = %v, want 0.7", conn.ConnectionStrength)
	}
	if conn.ModuleTitle != "Communication Basics" {
		t.Errorf("ModuleTitle = %q", conn.ModuleTitle)
	}

	// 25 messages saturates at 1.0
	f.messages.perConv[otherConv.ID] = 25
	assembled = f.service(t).AssembleContext(context.Background(), f.userID, f.moduleID, nil, "hi")
	if got := assembled.PriorKnowledge.Connections[0].ConnectionStrength; got != 1 {
		t.Errorf("ConnectionStrength = %v, want 1", got)
	}
}

func TestMasteredConceptsFilterAndCap(t *testing.T) {
	f := newMemoryFixture(t)
	for i := 0; i < 7; i++ {
		confidence := 0.9
		if i >= 6 {
			confidence = 0.5 // below threshold
		}
		f.insights.rows = append(f.insights.rows, &types.InsightSummary{
			UserID:      f.userID,
			ModuleID:    uuid.New(),
			WhatLearned: fmt.Sprintf("concept %d", i),
			Confidence:  confidence,
		})
	}

	assembled := f.service(t).AssembleContext(context.Background(), f.userID, f.moduleID, nil, "hi")
	got := assembled.PriorKnowledge.MasteredConcepts
	if len(got) != 5 {
		t.Fatalf("MasteredConcepts = %d entries, want 5", len(got))
	}
	for _, concept := range got {
		if concept == "concept 6" {
			t.Error("low-confidence insight should be filtered out")
		}
	}
}

func TestProfileLayerFallbackIsIsolated(t *testing.T) {
	f := newMemoryFixture(t)
	f.surveys.err = errors.New("connection refused")

	assembled := f.service(t).AssembleContext(context.Background(), f.userID, f.moduleID, nil, "hi")

	if assembled.Status.Profile {
		t.Error("profile layer should report fallback")
	}
	if !assembled.Status.Module || !assembled.Status.Conversation || !assembled.Status.PriorKnowledge {
		t.Errorf("other layers should stay ok, got %+v", assembled.Status)
	}
	if assembled.Profile.Style != "adaptive" || assembled.Profile.Pace != "moderate" {
		t.Errorf("fallback profile defaults wrong: %+v", assembled.Profile)
	}
	for _, marker := range []string{markerProfile, markerModule, markerConversation, markerPrior, markerMessage, markerInstruction} {
		if !strings.Contains(assembled.Prompt, marker) {
			t.Errorf("prompt missing %q under profile fallback", marker)
		}
	}
	if f.metrics.Snapshot()["layer_fallback_profile"] != 1 {
		t.Error("profile fallback not counted")
	}
}

func TestAverageMasteryAndStrengths(t *testing.T) {
	records := []*types.ProgressRecord{
		{MasteryLevel: types.MasteryAdvanced, InsightsGained: 4, QuestionsAsked: 8, ConnectionsMade: 2},
		{MasteryLevel: types.MasteryAdvanced, InsightsGained: 3, QuestionsAsked: 6, ConnectionsMade: 2},
		{MasteryLevel: types.MasteryNovice},
	}
	if got := averageMastery(records); got != types.MasteryAdvanced {
		t.Errorf("averageMastery = %q, want advanced", got)
	}
	if got := averageMastery(nil); got != types.MasteryBeginner {
		t.Errorf("averageMastery(nil) = %q, want beginner", got)
	}
	// novice maps to beginner; tie between beginner(2) and advanced(2) breaks high
	tied := []*types.ProgressRecord{
		{MasteryLevel: types.MasteryAdvanced},
		{MasteryLevel: types.MasteryAdvanced},
		{MasteryLevel: types.MasteryNovice},
		{MasteryLevel: types.MasteryBeginner},
	}
	if got := averageMastery(tied); got != types.MasteryAdvanced {
		t.Errorf("averageMastery(tied) = %q, want advanced", got)
	}

	strengths := learningStrengths(records)
	want := []string{"insight generation", "inquisitive questioning", "cross-domain connections"}
	if len(strengths) != len(want) {
		t.Fatalf("learningStrengths = %v, want %v", strengths, want)
	}
	for i := range want {
		if strengths[i] != want[i] {
			t.Errorf("learningStrengths[%d] = %q, want %q", i, strengths[i], want[i])
		}
	}
}
