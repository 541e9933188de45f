package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
	pkgerrors "github.com/bryan-besnyi/next-doorcard-sub000/pkg/errors"
)

// TermRepository is the terms data-access interface.
type TermRepository interface {
	Create(ctx context.Context, term *model.Term) error
	GetByID(ctx context.Context, id string) (*model.Term, error)
	GetActive(ctx context.Context) (*model.Term, error)
	GetBySeasonYear(ctx context.Context, season string, year int) (*model.Term, error)
	List(ctx context.Context) ([]model.Term, error)
	ListExpiredUnarchived(ctx context.Context, now time.Time) ([]model.Term, error)
	Update(ctx context.Context, term *model.Term) error
	ClearActive(ctx context.Context) error
}

type termRepo struct {
	db *gorm.DB
}

// NewTermRepo creates a TermRepository.
func NewTermRepo(db *gorm.DB) TermRepository {
	return &termRepo{db: db}
}

func (r *termRepo) Create(ctx context.Context, term *model.Term) error {
	return r.db.WithContext(ctx).Create(term).Error
}

func (r *termRepo) GetByID(ctx context.Context, id string) (*model.Term, error) {
	var term model.Term
	err := r.db.WithContext(ctx).
		Where("term_id = ?", id).
		First(&term).Error
	if err != nil {
		return nil, err
	}
	return &term, nil
}

func (r *termRepo) GetActive(ctx context.Context) (*model.Term, error) {
	var term model.Term
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		First(&term).Error
	if err != nil {
		return nil, err
	}
	return &term, nil
}

func (r *termRepo) GetBySeasonYear(ctx context.Context, season string, year int) (*model.Term, error) {
	var term model.Term
	err := r.db.WithContext(ctx).
		Where("season = ? AND year = ?", season, year).
		First(&term).Error
	if err != nil {
		return nil, err
	}
	return &term, nil
}

func (r *termRepo) List(ctx context.Context) ([]model.Term, error) {
	var terms []model.Term
	err := r.db.WithContext(ctx).
		Order("start_date DESC").
		Find(&terms).Error
	return terms, err
}

func (r *termRepo) ListExpiredUnarchived(ctx context.Context, now time.Time) ([]model.Term, error) {
	var terms []model.Term
	err := r.db.WithContext(ctx).
		Where("end_date < ? AND is_archived = ?", now, false).
		Order("end_date ASC").
		Find(&terms).Error
	return terms, err
}

// Update applies a conditional write on the version column. Two concurrent
// term transitions cannot both win; the loser gets ErrOptimisticLock.
func (r *termRepo) Update(ctx context.Context, term *model.Term) error {
	oldVersion := term.Version
	result := r.db.WithContext(ctx).
		Model(term).
		Where("term_id = ? AND version = ?", term.TermID, oldVersion).
		Updates(map[string]interface{}{
			"name":         term.Name,
			"year":         term.Year,
			"season":       term.Season,
			"start_date":   term.StartDate,
			"end_date":     term.EndDate,
			"is_active":    term.IsActive,
			"is_archived":  term.IsArchived,
			"archive_date": term.ArchiveDate,
			"updated_by":   term.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	term.Version = oldVersion + 1
	return nil
}

// ClearActive deactivates every term.
func (r *termRepo) ClearActive(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&model.Term{}).
		Where("is_active = ?", true).
		Update("is_active", false).Error
}
