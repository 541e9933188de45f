package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
)

// DraftRepository is the doorcard_drafts data-access interface. Every query
// is scoped by owner; a draft id belonging to someone else behaves as
// not-found.
type DraftRepository interface {
	Create(ctx context.Context, draft *model.DoorcardDraft) error
	GetByIDForUser(ctx context.Context, userID, draftID string) (*model.DoorcardDraft, error)
	ListByUser(ctx context.Context, userID string) ([]model.DoorcardDraft, error)
	Update(ctx context.Context, draft *model.DoorcardDraft) error
	Delete(ctx context.Context, userID, draftID string) error
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
	DeleteByOriginalDoorcard(ctx context.Context, doorcardID string) error
}

type draftRepo struct {
	db *gorm.DB
}

// NewDraftRepo creates a DraftRepository.
func NewDraftRepo(db *gorm.DB) DraftRepository {
	return &draftRepo{db: db}
}

func (r *draftRepo) Create(ctx context.Context, draft *model.DoorcardDraft) error {
	draft.LastUpdated = time.Now()
	return r.db.WithContext(ctx).Create(draft).Error
}

func (r *draftRepo) GetByIDForUser(ctx context.Context, userID, draftID string) (*model.DoorcardDraft, error) {
	var draft model.DoorcardDraft
	err := r.db.WithContext(ctx).
		Where("draft_id = ? AND user_id = ?", draftID, userID).
		First(&draft).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepo) ListByUser(ctx context.Context, userID string) ([]model.DoorcardDraft, error) {
	var drafts []model.DoorcardDraft
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_updated DESC").
		Find(&drafts).Error
	return drafts, err
}

func (r *draftRepo) Update(ctx context.Context, draft *model.DoorcardDraft) error {
	draft.LastUpdated = time.Now()
	return r.db.WithContext(ctx).
		Model(draft).
		Where("draft_id = ? AND user_id = ?", draft.DraftID, draft.UserID).
		Updates(map[string]interface{}{
			"original_doorcard_id": draft.OriginalDoorcardID,
			"data":                 draft.Data,
			"last_updated":         draft.LastUpdated,
			"updated_by":           draft.UpdatedBy,
		}).Error
}

func (r *draftRepo) Delete(ctx context.Context, userID, draftID string) error {
	result := r.db.WithContext(ctx).
		Where("draft_id = ? AND user_id = ?", draftID, userID).
		Delete(&model.DoorcardDraft{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *draftRepo) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.DoorcardDraft{})
	return result.RowsAffected, result.Error
}

// DeleteByOriginalDoorcard discards every draft that stages edits for a
// doorcard. Called inside the publish transaction.
func (r *draftRepo) DeleteByOriginalDoorcard(ctx context.Context, doorcardID string) error {
	return r.db.WithContext(ctx).
		Where("original_doorcard_id = ?", doorcardID).
		Delete(&model.DoorcardDraft{}).Error
}
