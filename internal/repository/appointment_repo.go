package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
)

// AppointmentRepository is the appointments data-access interface.
// Schedule saves are full replacements: DeleteByDoorcard then BatchCreate
// inside one transaction.
type AppointmentRepository interface {
	BatchCreate(ctx context.Context, appointments []model.Appointment) error
	ListByDoorcard(ctx context.Context, doorcardID string) ([]model.Appointment, error)
	DeleteByDoorcard(ctx context.Context, doorcardID string) error
}

type appointmentRepo struct {
	db *gorm.DB
}

// NewAppointmentRepo creates an AppointmentRepository.
func NewAppointmentRepo(db *gorm.DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) BatchCreate(ctx context.Context, appointments []model.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&appointments).Error
}

func (r *appointmentRepo) ListByDoorcard(ctx context.Context, doorcardID string) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := r.db.WithContext(ctx).
		Where("doorcard_id = ?", doorcardID).
		Order("day_of_week ASC, start_time ASC").
		Find(&appts).Error
	return appts, err
}

func (r *appointmentRepo) DeleteByDoorcard(ctx context.Context, doorcardID string) error {
	return r.db.WithContext(ctx).
		Where("doorcard_id = ?", doorcardID).
		Delete(&model.Appointment{}).Error
}
