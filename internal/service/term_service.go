package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/dto"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/repository"
)

// ── term module business errors ──

var (
	ErrTermNotFound    = errors.New("term does not exist")
	ErrTermDateInvalid = errors.New("term end date must be after start date")
	ErrTermNameTaken   = errors.New("a term with that season and year already exists")
	ErrTermArchived    = errors.New("an archived term cannot be activated")
	ErrNoActiveTerm    = errors.New("no term is currently active")
)

// TermService manages the term lifecycle: upcoming → active → archived.
type TermService interface {
	Create(ctx context.Context, req *dto.CreateTermRequest, callerID string) (*dto.TermResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TermResponse, error)
	GetActive(ctx context.Context) (*dto.TermResponse, error)
	List(ctx context.Context) ([]dto.TermResponse, error)
	Archive(ctx context.Context, req *dto.ArchiveTermRequest, callerID string) (*dto.ArchiveTermResponse, error)
	Transition(ctx context.Context, req *dto.TransitionTermRequest, callerID string) (*dto.TermResponse, error)
	AutoArchiveExpired(ctx context.Context, callerID string) (*dto.AutoArchiveResponse, error)
}

type termService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewTermService creates a TermService instance.
func NewTermService(repo *repository.Repository, logger *zap.Logger) TermService {
	return &termService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *termService) Create(ctx context.Context, req *dto.CreateTermRequest, callerID string) (*dto.TermResponse, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, ErrTermDateInvalid
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, ErrTermDateInvalid
	}
	if !endDate.After(startDate) {
		return nil, ErrTermDateInvalid
	}

	if existing, err := s.repo.Term.GetBySeasonYear(ctx, req.Season, req.Year); err == nil && existing != nil {
		return nil, ErrTermNameTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("season/year lookup failed", zap.Error(err))
		return nil, err
	}

	term := &model.Term{
		Name:      req.Name,
		Year:      req.Year,
		Season:    req.Season,
		StartDate: startDate,
		EndDate:   endDate,
		IsActive:  false,
	}
	term.CreatedBy = &callerID
	term.UpdatedBy = &callerID

	// Activation goes through the same clear-then-set transaction as
	// Transition so two terms can never both end up active.
	if req.IsActive {
		err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			if err := tx.Term.ClearActive(ctx); err != nil {
				return err
			}
			term.IsActive = true
			return tx.Term.Create(ctx, term)
		})
	} else {
		err = s.repo.Term.Create(ctx, term)
	}
	if err != nil {
		s.logger.Error("creating term failed", zap.Error(err))
		return nil, err
	}

	return toTermResponse(term), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *termService) GetByID(ctx context.Context, id string) (*dto.TermResponse, error) {
	term, err := s.repo.Term.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		s.logger.Error("term lookup failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toTermResponse(term), nil
}

// ────────────────────── GetActive ──────────────────────

func (s *termService) GetActive(ctx context.Context) (*dto.TermResponse, error) {
	term, err := s.repo.Term.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveTerm
		}
		s.logger.Error("active term lookup failed", zap.Error(err))
		return nil, err
	}
	return toTermResponse(term), nil
}

// ────────────────────── List ──────────────────────

func (s *termService) List(ctx context.Context) ([]dto.TermResponse, error) {
	terms, err := s.repo.Term.List(ctx)
	if err != nil {
		s.logger.Error("listing terms failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.TermResponse, 0, len(terms))
	for i := range terms {
		result = append(result, *toTermResponse(&terms[i]))
	}
	return result, nil
}

// ────────────────────── Archive ──────────────────────

// Archive moves one term to archived, deactivating it and, unless the caller
// opts out, sweeping its doorcards inactive and unpublished. The whole
// operation is one transaction; either everything lands or nothing does.
func (s *termService) Archive(ctx context.Context, req *dto.ArchiveTermRequest, callerID string) (*dto.ArchiveTermResponse, error) {
	term, err := s.repo.Term.GetByID(ctx, req.TermID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		s.logger.Error("term lookup failed", zap.String("id", req.TermID), zap.Error(err))
		return nil, err
	}

	cascade := req.ArchiveDoorcards == nil || *req.ArchiveDoorcards

	var archivedDoorcards int64
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := s.archiveTermTx(ctx, tx, term, callerID); err != nil {
			return err
		}
		if cascade {
			n, err := tx.Doorcard.ArchiveByTerm(ctx, term.TermID, term.SeasonDisplay(), yearString(term.Year))
			if err != nil {
				return err
			}
			archivedDoorcards = n
		}
		return nil
	})
	if err != nil {
		s.logger.Error("archiving term failed", zap.String("id", req.TermID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("term archived",
		zap.String("term_id", term.TermID),
		zap.Int64("archived_doorcards", archivedDoorcards))

	return &dto.ArchiveTermResponse{
		Term:              *toTermResponse(term),
		ArchivedDoorcards: archivedDoorcards,
	}, nil
}

// ────────────────────── Transition ──────────────────────

// Transition performs the full old→new handover: archive the active term
// (with doorcard cascade) and activate the new one, atomically.
func (s *termService) Transition(ctx context.Context, req *dto.TransitionTermRequest, callerID string) (*dto.TermResponse, error) {
	newTerm, err := s.repo.Term.GetByID(ctx, req.NewTermID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		s.logger.Error("term lookup failed", zap.String("id", req.NewTermID), zap.Error(err))
		return nil, err
	}

	opts := req.Options
	archiveOld := opts.ArchiveOldTerm == nil || *opts.ArchiveOldTerm
	activateNew := opts.ActivateNewTerm == nil || *opts.ActivateNewTerm
	archiveDoorcards := opts.ArchiveOldDoorcards == nil || *opts.ArchiveOldDoorcards

	// The lifecycle is linear: upcoming → active → archived. An archived
	// term never comes back.
	if activateNew && newTerm.IsArchived {
		return nil, ErrTermArchived
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		oldTerm, err := tx.Term.GetActive(ctx)
		switch {
		case err == nil && oldTerm.TermID != newTerm.TermID:
			if archiveOld {
				if err := s.archiveTermTx(ctx, tx, oldTerm, callerID); err != nil {
					return err
				}
			} else {
				oldTerm.IsActive = false
				oldTerm.UpdatedBy = &callerID
				if err := tx.Term.Update(ctx, oldTerm); err != nil {
					return err
				}
			}
			if archiveDoorcards {
				if _, err := tx.Doorcard.ArchiveByTerm(ctx, oldTerm.TermID, oldTerm.SeasonDisplay(), yearString(oldTerm.Year)); err != nil {
					return err
				}
			}
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if activateNew {
			newTerm.IsActive = true
			newTerm.UpdatedBy = &callerID
			return tx.Term.Update(ctx, newTerm)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("term transition failed", zap.String("new_term_id", req.NewTermID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("term transition complete", zap.String("new_term_id", newTerm.TermID))
	return toTermResponse(newTerm), nil
}

// ────────────────────── AutoArchiveExpired ──────────────────────

// AutoArchiveExpired archives every term whose end date has passed, cascading
// to its doorcards. Each term is its own transaction so one failure does not
// block the rest; idempotent because archived terms drop out of the query.
func (s *termService) AutoArchiveExpired(ctx context.Context, callerID string) (*dto.AutoArchiveResponse, error) {
	expired, err := s.repo.Term.ListExpiredUnarchived(ctx, s.now())
	if err != nil {
		s.logger.Error("listing expired terms failed", zap.Error(err))
		return nil, err
	}

	archived := 0
	for i := range expired {
		term := &expired[i]
		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			if err := s.archiveTermTx(ctx, tx, term, callerID); err != nil {
				return err
			}
			_, err := tx.Doorcard.ArchiveByTerm(ctx, term.TermID, term.SeasonDisplay(), yearString(term.Year))
			return err
		})
		if err != nil {
			// Skip and keep sweeping; the failed term stays unarchived
			// and is retried on the next run.
			s.logger.Warn("auto-archive skipped term",
				zap.String("term_id", term.TermID), zap.Error(err))
			continue
		}
		archived++
	}

	s.logger.Info("auto-archive sweep complete", zap.Int("archived", archived))
	return &dto.AutoArchiveResponse{ArchivedCount: archived}, nil
}

// ── internal helpers ──

func (s *termService) archiveTermTx(ctx context.Context, tx *repository.Repository, term *model.Term, callerID string) error {
	now := s.now()
	term.IsActive = false
	term.IsArchived = true
	term.ArchiveDate = &now
	term.UpdatedBy = &callerID
	return tx.Term.Update(ctx, term)
}

func yearString(year int) string {
	return strconv.Itoa(year)
}

func toTermResponse(term *model.Term) *dto.TermResponse {
	resp := &dto.TermResponse{
		ID:         term.TermID,
		Name:       term.Name,
		Year:       term.Year,
		Season:     term.Season,
		StartDate:  term.StartDate.Format("2006-01-02"),
		EndDate:    term.EndDate.Format("2006-01-02"),
		IsActive:   term.IsActive,
		IsArchived: term.IsArchived,
		IsUpcoming: term.IsUpcoming(),
		CreatedAt:  term.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  term.UpdatedAt.Format(time.RFC3339),
	}
	if term.ArchiveDate != nil {
		resp.ArchiveDate = term.ArchiveDate.Format(time.RFC3339)
	}
	return resp
}
