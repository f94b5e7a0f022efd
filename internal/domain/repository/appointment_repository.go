package repository

import (
	"context"

	"find-my-doctor/internal/domain/entity"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *entity.Appointment) error
	// FindByID returns nil, nil when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	// FindBookedBySlot returns the booked appointment holding the slot, or nil.
	FindBookedBySlot(ctx context.Context, slot entity.Slot) (*entity.Appointment, error)
	// FindByPatientID returns appointments ordered by date then time slot,
	// with the doctor preloaded.
	FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]entity.Appointment, error)
	// UpdateStatus moves an appointment from one status to another and
	// reports affected rows (0 when it was not in the expected status).
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.AppointmentStatus) (int64, error)
}
