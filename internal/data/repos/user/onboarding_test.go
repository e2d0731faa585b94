package user

import (
	"context"
	"testing"

	types "github.com/harvlabs/harv-backend/internal/domain"

	"github.com/harvlabs/harv-backend/internal/data/repos/testutil"
)

func TestOnboardingSurveyRepoGetByUserID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewOnboardingSurveyRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "survey@example.com")

	// Not onboarded yet: nil without error.
	got, err := repo.GetByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got != nil {
		t.Fatalf("got = %+v, want nil before onboarding", got)
	}

	seeded := testutil.SeedSurvey(t, ctx, tx, u.ID, types.StyleVisual, types.PaceFast)

	got, err = repo.GetByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got == nil || got.ID != seeded.ID {
		t.Fatalf("got = %+v, want seeded survey", got)
	}
	if got.LearningStyle != types.StyleVisual || got.PreferredPace != types.PaceFast {
		t.Errorf("survey fields = %q/%q", got.LearningStyle, got.PreferredPace)
	}
}

func TestOnboardingSurveyRepoUpdate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewOnboardingSurveyRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "update@example.com")
	seeded := testutil.SeedSurvey(t, ctx, tx, u.ID, types.StyleReading, types.PaceSlow)

	seeded.PreferredPace = types.PaceFast
	if err := repo.Update(ctx, tx, seeded); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByUserID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got.PreferredPace != types.PaceFast {
		t.Errorf("PreferredPace = %q, want fast", got.PreferredPace)
	}
}

func TestUserRepoGetByEmails(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "lookup@example.com")

	rows, err := repo.GetByEmails(ctx, tx, []string{"lookup@example.com"})
	if err != nil {
		t.Fatalf("GetByEmails: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != u.ID {
		t.Fatalf("rows = %+v, want seeded user", rows)
	}

	rows, err = repo.GetByEmails(ctx, tx, nil)
	if err != nil {
		t.Fatalf("GetByEmails(nil): %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0 for empty input", len(rows))
	}
}
