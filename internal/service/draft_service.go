package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/dto"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/repository"
)

// ── draft module business errors ──

var ErrDraftNotFound = errors.New("draft does not exist")

// DraftService maintains the durable staging copies of in-progress doorcard
// edits. Every operation is owner-scoped.
type DraftService interface {
	List(ctx context.Context, callerID string) ([]dto.DraftResponse, error)
	GetByID(ctx context.Context, callerID, draftID string) (*dto.DraftResponse, error)
	Upsert(ctx context.Context, callerID string, draftID *string, req *dto.UpsertDraftRequest) (*dto.DraftResponse, error)
	Autosave(ctx context.Context, callerID, draftID string, req *dto.UpsertDraftRequest) error
	FlushAutosave(ctx context.Context, callerID, draftID string) error
	AdvanceStep(ctx context.Context, callerID, draftID string, req *dto.AdvanceStepRequest) (*dto.DraftResponse, error)
	Delete(ctx context.Context, callerID, draftID string) error
	DeleteAll(ctx context.Context, callerID string) (int64, error)
}

type draftService struct {
	repo   *repository.Repository
	logger *zap.Logger

	mu         sync.Mutex
	autosavers map[string]*DraftAutosaver
	window     time.Duration
}

// NewDraftService creates a DraftService instance.
func NewDraftService(repo *repository.Repository, logger *zap.Logger) DraftService {
	return &draftService{
		repo:       repo,
		logger:     logger,
		autosavers: make(map[string]*DraftAutosaver),
		window:     DefaultAutosaveWindow,
	}
}

// ────────────────────── List ──────────────────────

func (s *draftService) List(ctx context.Context, callerID string) ([]dto.DraftResponse, error) {
	drafts, err := s.repo.Draft.ListByUser(ctx, callerID)
	if err != nil {
		s.logger.Error("listing drafts failed", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.DraftResponse, 0, len(drafts))
	for i := range drafts {
		result = append(result, *toDraftResponse(&drafts[i]))
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *draftService) GetByID(ctx context.Context, callerID, draftID string) (*dto.DraftResponse, error) {
	draft, err := s.getOwned(ctx, callerID, draftID)
	if err != nil {
		return nil, err
	}
	return toDraftResponse(draft), nil
}

// ────────────────────── Upsert ──────────────────────

// Upsert is the autosave entry point: update in place when draftID names an
// existing draft of the caller's, otherwise create. Last write wins on the
// data payload; the client throttles to one in-flight write per draft.
func (s *draftService) Upsert(ctx context.Context, callerID string, draftID *string, req *dto.UpsertDraftRequest) (*dto.DraftResponse, error) {
	if draftID != nil && *draftID != "" {
		draft, err := s.repo.Draft.GetByIDForUser(ctx, callerID, *draftID)
		if err == nil {
			draft.Data = req.Data
			draft.OriginalDoorcardID = req.OriginalDoorcardID
			draft.UpdatedBy = &callerID
			if err := s.repo.Draft.Update(ctx, draft); err != nil {
				s.logger.Error("updating draft failed", zap.String("draft_id", *draftID), zap.Error(err))
				return nil, err
			}
			return toDraftResponse(draft), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("draft lookup failed", zap.String("draft_id", *draftID), zap.Error(err))
			return nil, err
		}
		// Unknown or foreign id falls through to create.
	}

	draft := &model.DoorcardDraft{
		UserID:             callerID,
		OriginalDoorcardID: req.OriginalDoorcardID,
		Data:               req.Data,
	}
	draft.CreatedBy = &callerID
	draft.UpdatedBy = &callerID

	if err := s.repo.Draft.Create(ctx, draft); err != nil {
		s.logger.Error("creating draft failed", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}
	return toDraftResponse(draft), nil
}

// ────────────────────── Autosave ──────────────────────

// Autosave routes a draft edit through the per-draft write coalescer: the
// first edit after a quiet period persists immediately, rapid follow-ups
// fold into one trailing write per window carrying the latest snapshot.
// The caller gets an ack as soon as the snapshot is staged.
func (s *draftService) Autosave(ctx context.Context, callerID, draftID string, req *dto.UpsertDraftRequest) error {
	if _, err := s.getOwned(ctx, callerID, draftID); err != nil {
		return err
	}

	s.autosaverFor(callerID, draftID).Touch(ctx, req.Data)
	return nil
}

// FlushAutosave persists any staged snapshot right away. Clients call it on
// navigation away so the final edit is never dropped.
func (s *draftService) FlushAutosave(ctx context.Context, callerID, draftID string) error {
	if _, err := s.getOwned(ctx, callerID, draftID); err != nil {
		return err
	}

	s.mu.Lock()
	a := s.autosavers[draftID]
	s.mu.Unlock()
	if a != nil {
		a.Flush(ctx)
	}
	return nil
}

func (s *draftService) autosaverFor(callerID, draftID string) *DraftAutosaver {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.autosavers[draftID]; ok {
		return a
	}

	save := func(ctx context.Context, snapshot model.DraftData) {
		draft, err := s.repo.Draft.GetByIDForUser(ctx, callerID, draftID)
		if err != nil {
			s.logger.Warn("autosave target vanished", zap.String("draft_id", draftID), zap.Error(err))
			return
		}
		draft.Data = snapshot
		draft.UpdatedBy = &callerID
		if err := s.repo.Draft.Update(ctx, draft); err != nil {
			s.logger.Error("autosave write failed", zap.String("draft_id", draftID), zap.Error(err))
		}
	}

	a := NewDraftAutosaver(save, s.window, s.logger)
	s.autosavers[draftID] = a
	return a
}

func (s *draftService) dropAutosaver(draftID string) {
	s.mu.Lock()
	a := s.autosavers[draftID]
	delete(s.autosavers, draftID)
	s.mu.Unlock()
	if a != nil {
		a.Close()
	}
}

// ────────────────────── AdvanceStep ──────────────────────

// AdvanceStep moves the wizard cursor. Going backward is always allowed;
// going forward validates the steps being left behind, and leaving the
// campus/term step additionally runs the duplicate guard so a collision
// surfaces before the user invests in the later steps.
func (s *draftService) AdvanceStep(ctx context.Context, callerID, draftID string, req *dto.AdvanceStepRequest) (*dto.DraftResponse, error) {
	draft, err := s.getOwned(ctx, callerID, draftID)
	if err != nil {
		return nil, err
	}

	if req.Step > draft.Data.CurrentStep {
		if err := ValidateStep(&draft.Data, req.Step-1); err != nil {
			return nil, err
		}
		// Leaving campus/term selection also runs the duplicate guard, so
		// the user is pointed at the existing doorcard before investing in
		// the later steps.
		if req.Step > StepCampusTerm {
			if err := s.guardDuplicate(ctx, draft); err != nil {
				return nil, err
			}
		}
	}

	draft.Data.CurrentStep = req.Step
	draft.UpdatedBy = &callerID
	if err := s.repo.Draft.Update(ctx, draft); err != nil {
		s.logger.Error("advancing draft step failed", zap.String("draft_id", draftID), zap.Error(err))
		return nil, err
	}
	return toDraftResponse(draft), nil
}

// ────────────────────── Delete / DeleteAll ──────────────────────

func (s *draftService) Delete(ctx context.Context, callerID, draftID string) error {
	if err := s.repo.Draft.Delete(ctx, callerID, draftID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDraftNotFound
		}
		s.logger.Error("deleting draft failed", zap.String("draft_id", draftID), zap.Error(err))
		return err
	}
	s.dropAutosaver(draftID)
	return nil
}

func (s *draftService) DeleteAll(ctx context.Context, callerID string) (int64, error) {
	n, err := s.repo.Draft.DeleteAllByUser(ctx, callerID)
	if err != nil {
		s.logger.Error("deleting drafts failed", zap.String("user_id", callerID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// ── internal helpers ──

// guardDuplicate checks the draft's identity tuple against the caller's live
// doorcards. Drafts editing an existing doorcard exclude it from the check.
func (s *draftService) guardDuplicate(ctx context.Context, draft *model.DoorcardDraft) error {
	existing, err := s.repo.Doorcard.FindActiveByIdentity(
		ctx, draft.UserID, draft.Data.College, draft.Data.Term, draft.Data.Year, draft.OriginalDoorcardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("duplicate check failed", zap.String("draft_id", draft.DraftID), zap.Error(err))
		return err
	}
	return &DuplicateError{
		Message:            duplicateMessage(draft.Data.College, draft.Data.Term, draft.Data.Year),
		ExistingDoorcardID: existing.DoorcardID,
	}
}

func (s *draftService) getOwned(ctx context.Context, callerID, draftID string) (*model.DoorcardDraft, error) {
	draft, err := s.repo.Draft.GetByIDForUser(ctx, callerID, draftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		s.logger.Error("draft lookup failed", zap.String("draft_id", draftID), zap.Error(err))
		return nil, err
	}
	return draft, nil
}

func toDraftResponse(draft *model.DoorcardDraft) *dto.DraftResponse {
	return &dto.DraftResponse{
		ID:                 draft.DraftID,
		OriginalDoorcardID: draft.OriginalDoorcardID,
		Data:               draft.Data,
		CompletionPercent:  CalculateCompletion(&draft.Data),
		LastUpdated:        draft.LastUpdated.Format(time.RFC3339),
	}
}
