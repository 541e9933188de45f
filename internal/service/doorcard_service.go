package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/dto"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/repository"
)

// ── doorcard module business errors ──

var (
	ErrDoorcardNotFound  = errors.New("doorcard does not exist")
	ErrDoorcardNotOwner  = errors.New("doorcard belongs to another user")
	ErrDoorcardDuplicate = errors.New("an active doorcard already exists for this campus and term")
	ErrScheduleEmpty     = errors.New("a doorcard needs at least one appointment before publishing")
	ErrScheduleOverlap   = errors.New("appointments overlap on the same day")
)

// DuplicateError carries the surviving doorcard's id so clients can offer
// "edit existing" instead of "create new".
type DuplicateError struct {
	Message            string
	ExistingDoorcardID string
}

func (e *DuplicateError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrDoorcardDuplicate) match.
func (e *DuplicateError) Is(target error) bool { return target == ErrDoorcardDuplicate }

// DoorcardService is the doorcard business interface: CRUD, the duplicate
// guard, schedule replacement, publish, and the public read paths.
type DoorcardService interface {
	Create(ctx context.Context, req *dto.CreateDoorcardRequest, callerID string) (*dto.DoorcardResponse, error)
	GetByID(ctx context.Context, id string, callerID string) (*dto.DoorcardResponse, error)
	ListMine(ctx context.Context, callerID string) ([]dto.DoorcardResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateDoorcardRequest, callerID string) (*dto.DoorcardResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	CheckDuplicate(ctx context.Context, req *dto.ValidateDoorcardRequest, callerID string) (*dto.DuplicateCheckResponse, error)
	ReplaceSchedule(ctx context.Context, id string, req *dto.ReplaceScheduleRequest, callerID string) (*dto.DoorcardResponse, error)
	Publish(ctx context.Context, id string, callerID string) (*dto.DoorcardResponse, error)
	GetPublicBySlugOrID(ctx context.Context, slugOrID string) (*dto.DoorcardResponse, error)
	GetPublicByUsernameAndTerm(ctx context.Context, username, termSlug string) (*dto.DoorcardResponse, error)
}

type doorcardService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDoorcardService creates a DoorcardService instance.
func NewDoorcardService(repo *repository.Repository, logger *zap.Logger) DoorcardService {
	return &doorcardService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create validates the payload, runs the duplicate guard, and inserts the
// doorcard with its nested appointments in one transaction. The active-row
// partial unique index backstops the guard, so two racing creates cannot
// both win even though the check and the insert are separate statements.
func (s *doorcardService) Create(ctx context.Context, req *dto.CreateDoorcardRequest, callerID string) (*dto.DoorcardResponse, error) {
	termName, yearName := req.Term, req.Year

	var termID *string
	if req.TermID != nil && *req.TermID != "" {
		term, err := s.repo.Term.GetByID(ctx, *req.TermID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTermNotFound
			}
			s.logger.Error("term lookup failed", zap.String("id", *req.TermID), zap.Error(err))
			return nil, err
		}
		termID = &term.TermID
		termName = term.SeasonDisplay()
		yearName = yearString(term.Year)
	}

	appts, err := buildAppointments(req.Appointments)
	if err != nil {
		return nil, err
	}

	doorcard := &model.Doorcard{
		DoorcardID:   uuid.NewString(),
		UserID:       callerID,
		TermID:       termID,
		Name:         req.Name,
		DoorcardName: req.DoorcardName,
		OfficeNumber: req.OfficeNumber,
		Term:         termName,
		Year:         yearName,
		College:      req.College,
		IsActive:     true,
		IsPublic:     req.Publish,
	}
	doorcard.Slug = DoorcardSlug(req.Name, termName, yearName, doorcard.DoorcardID)
	doorcard.CreatedBy = &callerID
	doorcard.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if dupErr := s.guardDuplicate(ctx, tx, callerID, req.College, termName, yearName, nil); dupErr != nil {
			return dupErr
		}
		if err := tx.Doorcard.Create(ctx, doorcard); err != nil {
			return err
		}
		for i := range appts {
			appts[i].DoorcardID = doorcard.DoorcardID
		}
		return tx.Appointment.BatchCreate(ctx, appts)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race; resolve the winner for the 409 payload.
			return nil, s.duplicateVerdict(ctx, callerID, req.College, termName, yearName, nil)
		}
		var dup *DuplicateError
		if errors.As(err, &dup) {
			return nil, err
		}
		s.logger.Error("creating doorcard failed", zap.Error(err))
		return nil, err
	}

	doorcard.Appointments = appts
	s.logger.Info("doorcard created",
		zap.String("doorcard_id", doorcard.DoorcardID),
		zap.String("user_id", callerID),
		zap.Bool("published", req.Publish))
	return toDoorcardResponse(doorcard), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *doorcardService) GetByID(ctx context.Context, id string, callerID string) (*dto.DoorcardResponse, error) {
	doorcard, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	return toDoorcardResponse(doorcard), nil
}

// ────────────────────── ListMine ──────────────────────

func (s *doorcardService) ListMine(ctx context.Context, callerID string) ([]dto.DoorcardResponse, error) {
	cards, err := s.repo.Doorcard.ListByUser(ctx, callerID)
	if err != nil {
		s.logger.Error("listing doorcards failed", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.DoorcardResponse, 0, len(cards))
	for i := range cards {
		result = append(result, *toDoorcardResponse(&cards[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

// Update applies a partial update. Re-activating a doorcard re-runs the
// duplicate guard excluding the doorcard itself.
func (s *doorcardService) Update(ctx context.Context, id string, req *dto.UpdateDoorcardRequest, callerID string) (*dto.DoorcardResponse, error) {
	doorcard, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		doorcard.Name = *req.Name
		doorcard.Slug = DoorcardSlug(doorcard.Name, doorcard.Term, doorcard.Year, doorcard.DoorcardID)
	}
	if req.DoorcardName != nil {
		doorcard.DoorcardName = *req.DoorcardName
	}
	if req.OfficeNumber != nil {
		doorcard.OfficeNumber = *req.OfficeNumber
	}
	activating := req.IsActive != nil && *req.IsActive && !doorcard.IsActive
	if req.IsActive != nil {
		doorcard.IsActive = *req.IsActive
	}
	if req.IsPublic != nil {
		doorcard.IsPublic = *req.IsPublic
	}
	doorcard.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if activating {
			if dupErr := s.guardDuplicate(ctx, tx, callerID, doorcard.College, doorcard.Term, doorcard.Year, &doorcard.DoorcardID); dupErr != nil {
				return dupErr
			}
		}
		return tx.Doorcard.Update(ctx, doorcard)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateVerdict(ctx, callerID, doorcard.College, doorcard.Term, doorcard.Year, &doorcard.DoorcardID)
		}
		var dup *DuplicateError
		if errors.As(err, &dup) {
			return nil, err
		}
		s.logger.Error("updating doorcard failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toDoorcardResponse(doorcard), nil
}

// ────────────────────── Delete ──────────────────────

func (s *doorcardService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getOwned(ctx, id, callerID); err != nil {
		return err
	}
	if err := s.repo.Doorcard.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("deleting doorcard failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── CheckDuplicate ──────────────────────

// CheckDuplicate is the advisory pre-flight the wizard calls on step 0. It
// never blocks anything by itself; Create/Update/Publish re-run the guard
// inside their transactions.
func (s *doorcardService) CheckDuplicate(ctx context.Context, req *dto.ValidateDoorcardRequest, callerID string) (*dto.DuplicateCheckResponse, error) {
	existing, err := s.repo.Doorcard.FindActiveByIdentity(ctx, callerID, req.College, req.Term, req.Year, req.ExcludeDoorcardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.DuplicateCheckResponse{IsDuplicate: false}, nil
		}
		s.logger.Error("duplicate check failed", zap.Error(err))
		return nil, err
	}

	return &dto.DuplicateCheckResponse{
		IsDuplicate:        true,
		Message:            duplicateMessage(req.College, req.Term, req.Year),
		ExistingDoorcardID: &existing.DoorcardID,
	}, nil
}

// ────────────────────── ReplaceSchedule ──────────────────────

// ReplaceSchedule swaps the full appointment set: delete all rows, insert
// the new ones, one transaction. Overlap validation runs first.
func (s *doorcardService) ReplaceSchedule(ctx context.Context, id string, req *dto.ReplaceScheduleRequest, callerID string) (*dto.DoorcardResponse, error) {
	doorcard, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	appts, err := buildAppointments(req.Appointments)
	if err != nil {
		return nil, err
	}
	for i := range appts {
		appts[i].DoorcardID = doorcard.DoorcardID
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Appointment.DeleteByDoorcard(ctx, doorcard.DoorcardID); err != nil {
			return err
		}
		return tx.Appointment.BatchCreate(ctx, appts)
	})
	if err != nil {
		s.logger.Error("replacing schedule failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	doorcard.Appointments = appts
	return toDoorcardResponse(doorcard), nil
}

// ────────────────────── Publish ──────────────────────

// Publish is the terminal wizard transition: require a non-empty schedule,
// run the duplicate guard excluding self, set isActive and isPublic, and
// discard any drafts staged against this doorcard. Publishing an
// already-published doorcard is a no-op success.
func (s *doorcardService) Publish(ctx context.Context, id string, callerID string) (*dto.DoorcardResponse, error) {
	doorcard, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if doorcard.IsActive && doorcard.IsPublic {
		return toDoorcardResponse(doorcard), nil
	}

	appts, err := s.repo.Appointment.ListByDoorcard(ctx, doorcard.DoorcardID)
	if err != nil {
		s.logger.Error("listing appointments failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if len(appts) == 0 {
		return nil, ErrScheduleEmpty
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if dupErr := s.guardDuplicate(ctx, tx, callerID, doorcard.College, doorcard.Term, doorcard.Year, &doorcard.DoorcardID); dupErr != nil {
			return dupErr
		}
		doorcard.IsActive = true
		doorcard.IsPublic = true
		doorcard.UpdatedBy = &callerID
		if err := tx.Doorcard.Update(ctx, doorcard); err != nil {
			return err
		}
		return tx.Draft.DeleteByOriginalDoorcard(ctx, doorcard.DoorcardID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateVerdict(ctx, callerID, doorcard.College, doorcard.Term, doorcard.Year, &doorcard.DoorcardID)
		}
		var dup *DuplicateError
		if errors.As(err, &dup) {
			return nil, err
		}
		s.logger.Error("publishing doorcard failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	doorcard.Appointments = appts
	s.logger.Info("doorcard published", zap.String("doorcard_id", doorcard.DoorcardID))
	return toDoorcardResponse(doorcard), nil
}

// ────────────────────── Public reads ──────────────────────

func (s *doorcardService) GetPublicBySlugOrID(ctx context.Context, slugOrID string) (*dto.DoorcardResponse, error) {
	doorcard, err := s.repo.Doorcard.FindPublicBySlugOrID(ctx, slugOrID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoorcardNotFound
		}
		s.logger.Error("public doorcard lookup failed", zap.String("slug", slugOrID), zap.Error(err))
		return nil, err
	}
	return toDoorcardResponse(doorcard), nil
}

// GetPublicByUsernameAndTerm resolves /public/:username/:termSlug. The slug
// "current" means the active term.
func (s *doorcardService) GetPublicByUsernameAndTerm(ctx context.Context, username, termSlug string) (*dto.DoorcardResponse, error) {
	user, err := s.repo.User.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoorcardNotFound
		}
		s.logger.Error("user lookup failed", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	var term, year string
	if termSlug == "current" {
		active, err := s.repo.Term.GetActive(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNoActiveTerm
			}
			return nil, err
		}
		term = active.SeasonDisplay()
		year = yearString(active.Year)
	} else {
		term, year, err = ParseTermSlug(termSlug)
		if err != nil {
			return nil, err
		}
	}

	doorcard, err := s.repo.Doorcard.FindPublicByUserAndTerm(ctx, user.UserID, term, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoorcardNotFound
		}
		s.logger.Error("public doorcard lookup failed", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	return toDoorcardResponse(doorcard), nil
}

// ── internal helpers ──

func (s *doorcardService) getOwned(ctx context.Context, id string, callerID string) (*model.Doorcard, error) {
	doorcard, err := s.repo.Doorcard.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoorcardNotFound
		}
		s.logger.Error("doorcard lookup failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if doorcard.UserID != callerID {
		return nil, ErrDoorcardNotOwner
	}
	return doorcard, nil
}

// guardDuplicate runs the in-transaction duplicate check and returns a
// *DuplicateError naming the existing doorcard when one is found.
func (s *doorcardService) guardDuplicate(ctx context.Context, tx *repository.Repository, userID, college, term, year string, excludeID *string) error {
	existing, err := tx.Doorcard.FindActiveByIdentity(ctx, userID, college, term, year, excludeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return &DuplicateError{
		Message:            duplicateMessage(college, term, year),
		ExistingDoorcardID: existing.DoorcardID,
	}
}

// duplicateVerdict re-resolves the surviving doorcard after a unique-index
// violation so the conflict response can still name it.
func (s *doorcardService) duplicateVerdict(ctx context.Context, userID, college, term, year string, excludeID *string) error {
	existing, err := s.repo.Doorcard.FindActiveByIdentity(ctx, userID, college, term, year, excludeID)
	if err != nil {
		return &DuplicateError{Message: duplicateMessage(college, term, year)}
	}
	return &DuplicateError{
		Message:            duplicateMessage(college, term, year),
		ExistingDoorcardID: existing.DoorcardID,
	}
}

func duplicateMessage(college, term, year string) string {
	name := model.CollegeNames[college]
	if name == "" {
		name = college
	}
	return fmt.Sprintf("You already have an active doorcard for %s in %s %s. Edit the existing doorcard instead of creating a new one.", name, term, year)
}

func buildAppointments(inputs []dto.AppointmentInput) ([]model.Appointment, error) {
	blocks := make([]model.TimeBlock, len(inputs))
	for i, in := range inputs {
		blocks[i] = model.TimeBlock{
			DayOfWeek: in.DayOfWeek,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			Activity:  in.Name,
		}
	}
	for i := range blocks {
		if _, err := parseMinutes(blocks[i].StartTime); err != nil {
			return nil, ErrWizardTimeFormat
		}
		if _, err := parseMinutes(blocks[i].EndTime); err != nil {
			return nil, ErrWizardTimeFormat
		}
		for j := i + 1; j < len(blocks); j++ {
			if blocksOverlap(&blocks[i], &blocks[j]) {
				return nil, ErrScheduleOverlap
			}
		}
	}

	appts := make([]model.Appointment, len(inputs))
	for i, in := range inputs {
		category := in.Category
		if category == "" {
			category = model.CategoryOfficeHours
		}
		appts[i] = model.Appointment{
			Name:      in.Name,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			DayOfWeek: in.DayOfWeek,
			Category:  category,
			Location:  in.Location,
		}
	}
	return appts, nil
}

func toDoorcardResponse(d *model.Doorcard) *dto.DoorcardResponse {
	resp := &dto.DoorcardResponse{
		ID:           d.DoorcardID,
		Name:         d.Name,
		DoorcardName: d.DoorcardName,
		OfficeNumber: d.OfficeNumber,
		Term:         d.Term,
		Year:         d.Year,
		TermID:       d.TermID,
		College:      d.College,
		CollegeName:  model.CollegeNames[d.College],
		Slug:         d.Slug,
		IsActive:     d.IsActive,
		IsPublic:     d.IsPublic,
		CreatedAt:    d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    d.UpdatedAt.Format(time.RFC3339),
	}
	for i := range d.Appointments {
		a := &d.Appointments[i]
		resp.Appointments = append(resp.Appointments, dto.AppointmentResponse{
			ID:        a.AppointmentID,
			Name:      a.Name,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
			DayOfWeek: a.DayOfWeek,
			Category:  a.Category,
			Location:  a.Location,
		})
	}
	return resp
}
