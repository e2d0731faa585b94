package learning

import (
	"context"
	"testing"
	"time"

	types "github.com/harvlabs/harv-backend/internal/domain"

	"github.com/harvlabs/harv-backend/internal/data/repos/testutil"
)

func TestInsightSummaryRepoUpsertIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewInsightSummaryRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "upsert@example.com")
	module := testutil.SeedModule(t, ctx, tx, "Upsert Module")

	first := &types.InsightSummary{
		UserID:      user.ID,
		ModuleID:    module.ID,
		WhatLearned: "first insight",
		Confidence:  0.5,
	}
	if err := repo.Upsert(ctx, tx, first); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	second := &types.InsightSummary{
		UserID:            user.ID,
		ModuleID:          module.ID,
		WhatLearned:       "revised insight",
		Confidence:        0.8,
		RetentionStrength: 0.9,
		LastAccessed:      time.Now().UTC(),
	}
	if err := repo.Upsert(ctx, tx, second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	rows, err := repo.GetByUserID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want exactly one per (user, module)", len(rows))
	}
	if rows[0].WhatLearned != "revised insight" {
		t.Errorf("WhatLearned = %q, want last write", rows[0].WhatLearned)
	}
	if rows[0].Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", rows[0].Confidence)
	}
}

func TestInsightSummaryRepoOrderByConfidence(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewInsightSummaryRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "order@example.com")
	moduleA := testutil.SeedModule(t, ctx, tx, "Order A")
	moduleB := testutil.SeedModule(t, ctx, tx, "Order B")

	testutil.SeedInsight(t, ctx, tx, user.ID, moduleA.ID, "weak", 0.3)
	testutil.SeedInsight(t, ctx, tx, user.ID, moduleB.ID, "strong", 0.9)

	rows, err := repo.GetByUserIDOrderByConfidence(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserIDOrderByConfidence: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].WhatLearned != "strong" {
		t.Errorf("rows[0] = %q, want highest confidence first", rows[0].WhatLearned)
	}
}

func TestInsightSummaryRepoGetByUserAndModuleMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewInsightSummaryRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "missing@example.com")
	module := testutil.SeedModule(t, ctx, tx, "Missing Module")

	row, err := repo.GetByUserAndModule(ctx, tx, user.ID, module.ID)
	if err != nil {
		t.Fatalf("GetByUserAndModule: %v", err)
	}
	if row != nil {
		t.Errorf("row = %+v, want nil without error", row)
	}
}
