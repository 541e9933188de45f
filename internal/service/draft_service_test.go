package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/dto"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
)

func setupTestDraftService() (DraftService, *mockRepos) {
	repo, mocks := newMockRepository()
	svc := NewDraftService(repo, zap.NewNop())
	return svc, mocks
}

// ── Upsert ──

func TestDraftService_Upsert_CreatesThenUpdates(t *testing.T) {
	svc, mocks := setupTestDraftService()

	created, err := svc.Upsert(context.Background(), "user-a", nil, &dto.UpsertDraftRequest{
		Data: model.DraftData{Name: "Jane Doe"},
	})
	if err != nil {
		t.Fatalf("create should succeed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created draft should have an id")
	}

	updated, err := svc.Upsert(context.Background(), "user-a", &created.ID, &dto.UpsertDraftRequest{
		Data: model.DraftData{Name: "Jane Doe", OfficeNumber: "7-204"},
	})
	if err != nil {
		t.Fatalf("update should succeed: %v", err)
	}
	if updated.ID != created.ID {
		t.Error("update should keep the draft id")
	}
	if mocks.draft.drafts[created.ID].Data.OfficeNumber != "7-204" {
		t.Error("data payload should be replaced in place")
	}
	if len(mocks.draft.drafts) != 1 {
		t.Errorf("expected 1 draft, got %d", len(mocks.draft.drafts))
	}
}

func TestDraftService_Upsert_ForeignDraftIDCreatesNew(t *testing.T) {
	svc, mocks := setupTestDraftService()
	mocks.draft.drafts["draft-001"] = &model.DoorcardDraft{
		DraftID: "draft-001", UserID: "user-b", Data: model.DraftData{Name: "Other"},
	}

	// A draft id owned by someone else must not be written through; the
	// payload lands in a fresh draft for the caller.
	foreign := "draft-001"
	result, err := svc.Upsert(context.Background(), "user-a", &foreign, &dto.UpsertDraftRequest{
		Data: model.DraftData{Name: "Jane Doe"},
	})
	if err != nil {
		t.Fatalf("upsert should succeed: %v", err)
	}
	if result.ID == "draft-001" {
		t.Fatal("foreign draft must not be overwritten")
	}
	if mocks.draft.drafts["draft-001"].Data.Name != "Other" {
		t.Error("foreign draft payload should be untouched")
	}
}

// ── GetByID / List ──

func TestDraftService_GetByID_OwnershipScoped(t *testing.T) {
	svc, mocks := setupTestDraftService()
	mocks.draft.drafts["draft-001"] = &model.DoorcardDraft{
		DraftID: "draft-001", UserID: "user-a", Data: model.DraftData{Name: "Jane"},
	}

	if _, err := svc.GetByID(context.Background(), "user-b", "draft-001"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("foreign draft should read as not found, got: %v", err)
	}

	result, err := svc.GetByID(context.Background(), "user-a", "draft-001")
	if err != nil {
		t.Fatalf("owner read should succeed: %v", err)
	}
	if result.CompletionPercent <= 0 {
		t.Error("response should carry a completion score")
	}
}

func TestDraftService_List_OnlyOwn(t *testing.T) {
	svc, mocks := setupTestDraftService()
	mocks.draft.drafts["draft-001"] = &model.DoorcardDraft{DraftID: "draft-001", UserID: "user-a"}
	mocks.draft.drafts["draft-002"] = &model.DoorcardDraft{DraftID: "draft-002", UserID: "user-a"}
	mocks.draft.drafts["draft-003"] = &model.DoorcardDraft{DraftID: "draft-003", UserID: "user-b"}

	result, err := svc.List(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("List should succeed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected 2 drafts, got %d", len(result))
	}
}

// ── AdvanceStep ──

func TestDraftService_AdvanceStep_GatesForward(t *testing.T) {
	svc, mocks := setupTestDraftService()
	mocks.draft.drafts["draft-001"] = &model.DoorcardDraft{
		DraftID: "draft-001", UserID: "user-a",
		Data: model.DraftData{
			College: model.CollegeSkyline, Term: "Fall", Year: "2025",
			CurrentStep: 0,
		},
	}

	// Step 0 → 1 needs only campus/term data.
	result, err := svc.AdvanceStep(context.Background(), "user-a", "draft-001", &dto.AdvanceStepRequest{Step: 1})
	if err != nil {
		t.Fatalf("advance to step 1 should succeed: %v", err)
	}
	if result.Data.CurrentStep != 1 {
		t.Errorf("expected step 1, got %d", result.Data.CurrentStep)
	}

	// Step 1 → 2 needs basic info, which is missing.
	if _, err := svc.AdvanceStep(context.Background(), "user-a", "draft-001", &dto.AdvanceStepRequest{Step: 2}); !errors.Is(err, ErrWizardBasicInfo) {
		t.Errorf("expected ErrWizardBasicInfo, got: %v", err)
	}

	// Backward navigation never validates.
	if _, err := svc.AdvanceStep(context.Background(), "user-a", "draft-001", &dto.AdvanceStepRequest{Step: 0}); err != nil {
		t.Errorf("going back should always succeed: %v", err)
	}
}

func TestDraftService_AdvanceStep_DuplicateBlocked(t *testing.T) {
	svc, mocks := setupTestDraftService()
	seedActiveDoorcard(mocks, "dc-001", "user-a", model.CollegeSkyline, "term-001", "Fall", "2025")
	mocks.draft.drafts["draft-001"] = &model.DoorcardDraft{
		DraftID: "draft-001", UserID: "user-a",
		Data: model.DraftData{
			College: model.CollegeSkyline, Term: "Fall", Year: "2025",
			CurrentStep: 0,
		},
	}

	// Leaving campus/term selection with an identity that collides with a
	// live doorcard blocks, naming the survivor.
	_, err := svc.AdvanceStep(context.Background(), "user-a", "draft-001", &dto.AdvanceStepRequest{Step: 1})
	var dupErr *DuplicateError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateError, got: %v", err)
	}
	if dupErr.ExistingDoorcardID != "dc-001" {
		t.Errorf("conflict should name the existing doorcard, got %q", dupErr.ExistingDoorcardID)
	}

	// A draft editing that same doorcard is exempt from its own guard.
	existing := "dc-001"
	mocks.draft.drafts["draft-002"] = &model.DoorcardDraft{
		DraftID: "draft-002", UserID: "user-a",
		OriginalDoorcardID: &existing,
		Data: model.DraftData{
			College: model.CollegeSkyline, Term: "Fall", Year: "2025",
			CurrentStep: 0,
		},
	}
	if _, err := svc.AdvanceStep(context.Background(), "user-a", "draft-002", &dto.AdvanceStepRequest{Step: 1}); err != nil {
		t.Errorf("editing draft should pass its own guard: %v", err)
	}

	// Going back into step 0 stays free even while the collision exists.
	mocks.draft.drafts["draft-001"].Data.CurrentStep = 1
	if _, err := svc.AdvanceStep(context.Background(), "user-a", "draft-001", &dto.AdvanceStepRequest{Step: 0}); err != nil {
		t.Errorf("backward navigation should always succeed: %v", err)
	}
}

// ── Delete / DeleteAll ──

func TestDraftService_Delete(t *testing.T) {
	svc, mocks := setupTestDraftService()
	mocks.draft.drafts["draft-001"] = &model.DoorcardDraft{DraftID: "draft-001", UserID: "user-a"}

	if err := svc.Delete(context.Background(), "user-b", "draft-001"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("foreign delete should be not found, got: %v", err)
	}
	if err := svc.Delete(context.Background(), "user-a", "draft-001"); err != nil {
		t.Fatalf("owner delete should succeed: %v", err)
	}
	if err := svc.Delete(context.Background(), "user-a", "draft-001"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("second delete should be not found, got: %v", err)
	}
}

// ── Autosave ──

func TestDraftService_Autosave_CoalescesIntoRepo(t *testing.T) {
	svc, mocks := setupTestDraftService()
	svc.(*draftService).window = 100 * time.Millisecond

	mocks.draft.drafts["draft-001"] = &model.DoorcardDraft{
		DraftID: "draft-001", UserID: "user-a",
		Data: model.DraftData{Name: "Jane Doe"},
	}

	ctx := context.Background()
	for _, name := range []string{"v1", "v2", "v3"} {
		err := svc.Autosave(ctx, "user-a", "draft-001", &dto.UpsertDraftRequest{
			Data: model.DraftData{Name: name, College: model.CollegeSkyline},
		})
		if err != nil {
			t.Fatalf("Autosave should succeed: %v", err)
		}
	}

	// Leading edge persists v1 right away.
	if got := mocks.draft.getDraft("draft-001").Data.Name; got != "v1" {
		t.Errorf("leading save should persist v1, got %q", got)
	}

	time.Sleep(200 * time.Millisecond)

	// The trailing flush carries the last snapshot.
	if got := mocks.draft.getDraft("draft-001").Data.Name; got != "v3" {
		t.Errorf("trailing save should persist v3, got %q", got)
	}
}

func TestDraftService_Autosave_FlushPersistsImmediately(t *testing.T) {
	svc, mocks := setupTestDraftService()
	svc.(*draftService).window = time.Minute // no trailing flush during the test

	mocks.draft.drafts["draft-001"] = &model.DoorcardDraft{
		DraftID: "draft-001", UserID: "user-a",
		Data: model.DraftData{Name: "Jane Doe"},
	}

	ctx := context.Background()
	svc.Autosave(ctx, "user-a", "draft-001", &dto.UpsertDraftRequest{
		Data: model.DraftData{Name: "v1", College: model.CollegeSkyline},
	})
	svc.Autosave(ctx, "user-a", "draft-001", &dto.UpsertDraftRequest{
		Data: model.DraftData{Name: "v2", College: model.CollegeSkyline},
	})

	if err := svc.FlushAutosave(ctx, "user-a", "draft-001"); err != nil {
		t.Fatalf("FlushAutosave should succeed: %v", err)
	}
	if got := mocks.draft.getDraft("draft-001").Data.Name; got != "v2" {
		t.Errorf("flush should persist the staged snapshot, got %q", got)
	}
}

func TestDraftService_Autosave_ForeignDraftRejected(t *testing.T) {
	svc, mocks := setupTestDraftService()
	mocks.draft.drafts["draft-001"] = &model.DoorcardDraft{DraftID: "draft-001", UserID: "user-b"}

	err := svc.Autosave(context.Background(), "user-a", "draft-001", &dto.UpsertDraftRequest{
		Data: model.DraftData{Name: "intruder"},
	})
	if !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound, got: %v", err)
	}
}

func TestDraftService_DeleteAll(t *testing.T) {
	svc, mocks := setupTestDraftService()
	mocks.draft.drafts["draft-001"] = &model.DoorcardDraft{DraftID: "draft-001", UserID: "user-a"}
	mocks.draft.drafts["draft-002"] = &model.DoorcardDraft{DraftID: "draft-002", UserID: "user-a"}
	mocks.draft.drafts["draft-003"] = &model.DoorcardDraft{DraftID: "draft-003", UserID: "user-b"}

	n, err := svc.DeleteAll(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("DeleteAll should succeed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	if _, ok := mocks.draft.drafts["draft-003"]; !ok {
		t.Error("other users' drafts must survive")
	}
}
