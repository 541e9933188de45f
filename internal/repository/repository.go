package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every per-entity repository.
type Repository struct {
	db *gorm.DB

	User        UserRepository
	Term        TermRepository
	Doorcard    DoorcardRepository
	Appointment AppointmentRepository
	Draft       DraftRepository
}

// NewRepository builds the aggregate over one gorm handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		User:        NewUserRepo(db),
		Term:        NewTermRepo(db),
		Doorcard:    NewDoorcardRepo(db),
		Appointment: NewAppointmentRepo(db),
		Draft:       NewDraftRepo(db),
	}
}

// Transaction runs fn against a Repository bound to a single database
// transaction; any error rolls back every change. With a nil db (unit tests
// over mock repositories) fn runs against the receiver directly.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
