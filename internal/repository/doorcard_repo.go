package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
	pkgerrors "github.com/bryan-besnyi/next-doorcard-sub000/pkg/errors"
)

// DoorcardRepository is the doorcards data-access interface.
type DoorcardRepository interface {
	Create(ctx context.Context, doorcard *model.Doorcard) error
	GetByID(ctx context.Context, id string) (*model.Doorcard, error)
	GetBySlug(ctx context.Context, slug string) (*model.Doorcard, error)
	ListByUser(ctx context.Context, userID string) ([]model.Doorcard, error)
	ListByTerm(ctx context.Context, termID string, term string, year string) ([]model.Doorcard, error)
	FindActiveByIdentity(ctx context.Context, userID, college, term, year string, excludeID *string) (*model.Doorcard, error)
	FindPublicBySlugOrID(ctx context.Context, slugOrID string) (*model.Doorcard, error)
	FindPublicByUserAndTerm(ctx context.Context, userID, term, year string) (*model.Doorcard, error)
	Update(ctx context.Context, doorcard *model.Doorcard) error
	Delete(ctx context.Context, id string, deletedBy string) error
	ArchiveByTerm(ctx context.Context, termID string, term string, year string) (int64, error)
}

type doorcardRepo struct {
	db *gorm.DB
}

// NewDoorcardRepo creates a DoorcardRepository.
func NewDoorcardRepo(db *gorm.DB) DoorcardRepository {
	return &doorcardRepo{db: db}
}

func (r *doorcardRepo) Create(ctx context.Context, doorcard *model.Doorcard) error {
	return r.db.WithContext(ctx).Create(doorcard).Error
}

func (r *doorcardRepo) GetByID(ctx context.Context, id string) (*model.Doorcard, error) {
	var dc model.Doorcard
	err := r.db.WithContext(ctx).
		Preload("Appointments").
		Preload("TermRef").
		Where("doorcard_id = ?", id).
		First(&dc).Error
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

func (r *doorcardRepo) GetBySlug(ctx context.Context, slug string) (*model.Doorcard, error) {
	var dc model.Doorcard
	err := r.db.WithContext(ctx).
		Preload("Appointments").
		Where("slug = ?", slug).
		First(&dc).Error
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

func (r *doorcardRepo) ListByUser(ctx context.Context, userID string) ([]model.Doorcard, error) {
	var cards []model.Doorcard
	err := r.db.WithContext(ctx).
		Preload("Appointments").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&cards).Error
	return cards, err
}

func (r *doorcardRepo) ListByTerm(ctx context.Context, termID string, term string, year string) ([]model.Doorcard, error) {
	var cards []model.Doorcard
	err := r.db.WithContext(ctx).
		Preload("Appointments").
		Preload("User").
		Where("term_id = ? OR (term = ? AND year = ?)", termID, term, year).
		Order("college ASC, name ASC").
		Find(&cards).Error
	return cards, err
}

// FindActiveByIdentity looks up the one live doorcard for an identity tuple,
// excluding a doorcard id when editing.
func (r *doorcardRepo) FindActiveByIdentity(ctx context.Context, userID, college, term, year string, excludeID *string) (*model.Doorcard, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND college = ? AND term = ? AND year = ? AND is_active = ?",
			userID, college, term, year, true)
	if excludeID != nil && *excludeID != "" {
		q = q.Where("doorcard_id != ?", *excludeID)
	}

	var dc model.Doorcard
	if err := q.First(&dc).Error; err != nil {
		return nil, err
	}
	return &dc, nil
}

func (r *doorcardRepo) FindPublicBySlugOrID(ctx context.Context, slugOrID string) (*model.Doorcard, error) {
	var dc model.Doorcard
	err := r.db.WithContext(ctx).
		Preload("Appointments").
		Preload("TermRef").
		Where("(slug = ? OR doorcard_id::text = ?) AND is_public = ? AND is_active = ?",
			slugOrID, slugOrID, true, true).
		First(&dc).Error
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

func (r *doorcardRepo) FindPublicByUserAndTerm(ctx context.Context, userID, term, year string) (*model.Doorcard, error) {
	var dc model.Doorcard
	err := r.db.WithContext(ctx).
		Preload("Appointments").
		Preload("TermRef").
		Where("user_id = ? AND term = ? AND year = ? AND is_public = ? AND is_active = ?",
			userID, term, year, true, true).
		First(&dc).Error
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

// Update applies a conditional write on the version column.
func (r *doorcardRepo) Update(ctx context.Context, doorcard *model.Doorcard) error {
	oldVersion := doorcard.Version
	result := r.db.WithContext(ctx).
		Model(doorcard).
		Where("doorcard_id = ? AND version = ?", doorcard.DoorcardID, oldVersion).
		Updates(map[string]interface{}{
			"name":          doorcard.Name,
			"doorcard_name": doorcard.DoorcardName,
			"office_number": doorcard.OfficeNumber,
			"term_id":       doorcard.TermID,
			"term":          doorcard.Term,
			"year":          doorcard.Year,
			"college":       doorcard.College,
			"slug":          doorcard.Slug,
			"is_active":     doorcard.IsActive,
			"is_public":     doorcard.IsPublic,
			"updated_by":    doorcard.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	doorcard.Version = oldVersion + 1
	return nil
}

func (r *doorcardRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Doorcard{}).
		Where("doorcard_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ArchiveByTerm deactivates and unpublishes every doorcard attached to a
// term, matching the FK or the legacy (term, year) string pair.
func (r *doorcardRepo) ArchiveByTerm(ctx context.Context, termID string, term string, year string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Doorcard{}).
		Where("(term_id = ? OR (term = ? AND year = ?)) AND (is_active = ? OR is_public = ?)",
			termID, term, year, true, true).
		Updates(map[string]interface{}{
			"is_active": false,
			"is_public": false,
		})
	return result.RowsAffected, result.Error
}
