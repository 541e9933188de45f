//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgerrors "github.com/bryan-besnyi/next-doorcard-sub000/pkg/errors"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=doorcard password=doorcard_password dbname=doorcard_test sslmode=disable TimeZone=America/Los_Angeles"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot connect to test database: %v\n", err)
		os.Exit(1)
	}

	err = testDB.AutoMigrate(
		&model.User{},
		&model.Term{},
		&model.Doorcard{},
		&model.Appointment{},
		&model.DoorcardDraft{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate failed: %v\n", err)
		os.Exit(1)
	}

	// AutoMigrate cannot express the partial unique index the duplicate guard
	// relies on, so create it the way the SQL migration does.
	err = testDB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_doorcards_active_identity
		ON doorcards (user_id, college, term, year)
		WHERE is_active AND deleted_at IS NULL`).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating ux_doorcards_active_identity failed: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestData creates a user and an active term, returning a cleanup func.
func setupTestData(t *testing.T) (user *model.User, term *model.Term, cleanup func()) {
	t.Helper()
	ctx := context.Background()

	user = &model.User{
		Email:        fmt.Sprintf("test%d@smccd.edu", time.Now().UnixNano()),
		Name:         "Test Faculty",
		College:      model.CollegeSkyline,
		Role:         model.RoleFaculty,
		PasswordHash: "$2a$10$placeholder",
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("creating user failed: %v", err)
	}

	term = &model.Term{
		Name:      fmt.Sprintf("Test Term %d", time.Now().UnixNano()),
		Year:      2026,
		Season:    model.SeasonFall,
		StartDate: time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC),
		IsActive:  false,
	}
	if err := testDB.WithContext(ctx).Create(term).Error; err != nil {
		t.Fatalf("creating term failed: %v", err)
	}

	cleanup = func() {
		testDB.Unscoped().Where("term_id = ?", term.TermID).Delete(&model.Term{})
		testDB.Unscoped().Where("user_id = ?", user.UserID).Delete(&model.User{})
	}
	return
}

func newDoorcard(user *model.User, term *model.Term, active bool) *model.Doorcard {
	return &model.Doorcard{
		UserID:       user.UserID,
		TermID:       &term.TermID,
		Name:         "Test Faculty",
		DoorcardName: "Office Hours",
		OfficeNumber: "7-204",
		Term:         term.SeasonDisplay(),
		Year:         fmt.Sprintf("%d", term.Year),
		College:      user.College,
		Slug:         fmt.Sprintf("test-faculty-%d", time.Now().UnixNano()),
		IsActive:     active,
		IsPublic:     active,
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction Rollback (publish-style cascade)
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	user, term, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var cardID string
	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		card := newDoorcard(user, term, true)
		if err := tx.Doorcard.Create(ctx, card); err != nil {
			return err
		}
		cardID = card.DoorcardID

		appts := []model.Appointment{{
			DoorcardID: card.DoorcardID,
			Name:       "Office Hours",
			StartTime:  "10:00",
			EndTime:    "11:00",
			DayOfWeek:  model.DayMonday,
			Category:   model.CategoryOfficeHours,
		}}
		if err := tx.Appointment.BatchCreate(ctx, appts); err != nil {
			return err
		}
		return fmt.Errorf("forced rollback")
	})
	if err == nil {
		t.Fatal("expected the forced error to surface")
	}

	// Neither the doorcard nor its appointments survive the rollback.
	if _, err := repo.Doorcard.GetByID(ctx, cardID); err == nil {
		testDB.Unscoped().Where("doorcard_id = ?", cardID).Delete(&model.Doorcard{})
		t.Fatal("doorcard should not exist after rollback")
	}
	var count int64
	testDB.Model(&model.Appointment{}).Where("doorcard_id = ?", cardID).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 appointments after rollback, got %d", count)
	}
}

func TestTransaction_Commit(t *testing.T) {
	user, term, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var cardID string
	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		card := newDoorcard(user, term, true)
		if err := tx.Doorcard.Create(ctx, card); err != nil {
			return err
		}
		cardID = card.DoorcardID
		return tx.Appointment.BatchCreate(ctx, []model.Appointment{{
			DoorcardID: card.DoorcardID,
			Name:       "Office Hours",
			StartTime:  "10:00",
			EndTime:    "11:00",
			DayOfWeek:  model.DayMonday,
			Category:   model.CategoryOfficeHours,
		}})
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	defer func() {
		testDB.Unscoped().Where("doorcard_id = ?", cardID).Delete(&model.Appointment{})
		testDB.Unscoped().Where("doorcard_id = ?", cardID).Delete(&model.Doorcard{})
	}()

	found, err := repo.Doorcard.GetByID(ctx, cardID)
	if err != nil {
		t.Fatalf("lookup after commit failed: %v", err)
	}
	if len(found.Appointments) != 1 {
		t.Errorf("expected 1 appointment after commit, got %d", len(found.Appointments))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Duplicate Guard Unique Index
// ═══════════════════════════════════════════════════════════

func TestDuplicateGuard_UniqueIndexRejectsSecondActive(t *testing.T) {
	user, term, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	card1 := newDoorcard(user, term, true)
	if err := repo.Doorcard.Create(ctx, card1); err != nil {
		t.Fatalf("creating first doorcard failed: %v", err)
	}
	defer testDB.Unscoped().Where("doorcard_id = ?", card1.DoorcardID).Delete(&model.Doorcard{})

	// Second active doorcard for the same (user, college, term, year) must be
	// rejected by ux_doorcards_active_identity.
	card2 := newDoorcard(user, term, true)
	err := repo.Doorcard.Create(ctx, card2)
	if err == nil {
		testDB.Unscoped().Where("doorcard_id = ?", card2.DoorcardID).Delete(&model.Doorcard{})
		t.Fatal("expected unique violation, but second active doorcard was created")
	}
	if err != gorm.ErrDuplicatedKey {
		t.Errorf("expected gorm.ErrDuplicatedKey, got: %v", err)
	}

	// An inactive doorcard for the same identity is fine.
	card3 := newDoorcard(user, term, false)
	if err := repo.Doorcard.Create(ctx, card3); err != nil {
		t.Fatalf("creating inactive doorcard should succeed: %v", err)
	}
	testDB.Unscoped().Where("doorcard_id = ?", card3.DoorcardID).Delete(&model.Doorcard{})
}

func TestDuplicateGuard_ConcurrentCreates(t *testing.T) {
	user, term, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	// Two goroutines race to create the same active identity; exactly one wins.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	ids := make([]string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			card := newDoorcard(user, term, true)
			errs[i] = repo.Doorcard.Create(ctx, card)
			ids[i] = card.DoorcardID
		}(i)
	}
	wg.Wait()
	defer func() {
		for _, id := range ids {
			testDB.Unscoped().Where("doorcard_id = ?", id).Delete(&model.Doorcard{})
		}
	}()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if err != gorm.ErrDuplicatedKey {
			t.Errorf("loser should get gorm.ErrDuplicatedKey, got: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", succeeded)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_Term_ConflictDetected(t *testing.T) {
	_, term, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	copy1, _ := repo.Term.GetByID(ctx, term.TermID)
	copy2, _ := repo.Term.GetByID(ctx, term.TermID)

	copy1.IsActive = true
	if err := repo.Term.Update(ctx, copy1); err != nil {
		t.Fatalf("first update should succeed: %v", err)
	}

	copy2.IsArchived = true
	err := repo.Term.Update(ctx, copy2)
	if err == nil {
		t.Fatal("expected optimistic lock conflict, but update succeeded")
	}
	if err != pkgerrors.ErrOptimisticLock {
		t.Errorf("expected ErrOptimisticLock, got: %v", err)
	}
}

func TestOptimisticLock_VersionIncrement(t *testing.T) {
	_, term, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if term.Version != 1 {
		t.Errorf("initial version should be 1, got: %d", term.Version)
	}

	for i := 0; i < 3; i++ {
		got, _ := repo.Term.GetByID(ctx, term.TermID)
		if err := repo.Term.Update(ctx, got); err != nil {
			t.Fatalf("update %d failed: %v", i+1, err)
		}
	}

	final, _ := repo.Term.GetByID(ctx, term.TermID)
	if final.Version != 4 {
		t.Errorf("expected version=4, got: %d", final.Version)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Archive Cascade
// ═══════════════════════════════════════════════════════════

func TestArchiveByTerm_SweepsFKAndLegacyRows(t *testing.T) {
	user, term, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	// One row linked by FK, one legacy row matched only by the string pair.
	linked := newDoorcard(user, term, true)
	if err := repo.Doorcard.Create(ctx, linked); err != nil {
		t.Fatalf("creating linked doorcard failed: %v", err)
	}
	defer testDB.Unscoped().Where("doorcard_id = ?", linked.DoorcardID).Delete(&model.Doorcard{})

	legacy := newDoorcard(user, term, false)
	legacy.TermID = nil
	legacy.IsPublic = true
	legacy.College = model.CollegeCSM
	if err := repo.Doorcard.Create(ctx, legacy); err != nil {
		t.Fatalf("creating legacy doorcard failed: %v", err)
	}
	defer testDB.Unscoped().Where("doorcard_id = ?", legacy.DoorcardID).Delete(&model.Doorcard{})

	n, err := repo.Doorcard.ArchiveByTerm(ctx, term.TermID, linked.Term, linked.Year)
	if err != nil {
		t.Fatalf("ArchiveByTerm failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 archived doorcards, got %d", n)
	}

	for _, id := range []string{linked.DoorcardID, legacy.DoorcardID} {
		got, err := repo.Doorcard.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if got.IsActive || got.IsPublic {
			t.Errorf("doorcard %s should be inactive and unpublished", id)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Soft Delete
// ═══════════════════════════════════════════════════════════

func TestDoorcard_SoftDelete(t *testing.T) {
	user, term, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	card := newDoorcard(user, term, false)
	if err := repo.Doorcard.Create(ctx, card); err != nil {
		t.Fatalf("creating doorcard failed: %v", err)
	}
	defer testDB.Unscoped().Where("doorcard_id = ?", card.DoorcardID).Delete(&model.Doorcard{})

	if err := repo.Doorcard.Delete(ctx, card.DoorcardID, user.UserID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	if _, err := repo.Doorcard.GetByID(ctx, card.DoorcardID); err == nil {
		t.Fatal("soft-deleted doorcard should not be visible to normal queries")
	}

	var found model.Doorcard
	if err := testDB.Unscoped().Where("doorcard_id = ?", card.DoorcardID).First(&found).Error; err != nil {
		t.Fatalf("unscoped lookup should find the row: %v", err)
	}
	if found.DeletedAt.Time.IsZero() {
		t.Error("DeletedAt should be set")
	}
	if found.DeletedBy == nil || *found.DeletedBy != user.UserID {
		t.Error("DeletedBy should record the deleting user")
	}
}
