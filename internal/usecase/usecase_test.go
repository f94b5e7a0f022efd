package usecase

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"find-my-doctor/internal/domain/entity"
	"find-my-doctor/internal/mocks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newQuietAuditService accepts any audit write.
func newQuietAuditService() *mocks.AuditService {
	audit := new(mocks.AuditService)
	audit.On("LogCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	audit.On("LogUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	audit.On("LogDelete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return audit
}

// memoryAppointmentRepository keeps appointments in a map and enforces
// the booked-slot unique index the way PostgreSQL does.
type memoryAppointmentRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]entity.Appointment

	// skipSlotLookup makes FindBookedBySlot miss, so only the index
	// guards the slot.
	skipSlotLookup bool
}

func newMemoryAppointmentRepository() *memoryAppointmentRepository {
	return &memoryAppointmentRepository{items: make(map[uuid.UUID]entity.Appointment)}
}

func (r *memoryAppointmentRepository) Create(ctx context.Context, appointment *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if appointment.IsBooked() {
		for _, existing := range r.items {
			if existing.IsBooked() && existing.Slot() == appointment.Slot() {
				return &pgconn.PgError{Code: "23505", ConstraintName: constraintBookedSlot}
			}
		}
	}

	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	now := time.Now()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	stored := *appointment
	stored.Doctor = nil
	r.items[appointment.ID] = stored
	return nil
}

func (r *memoryAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *memoryAppointmentRepository) FindBookedBySlot(ctx context.Context, slot entity.Slot) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.skipSlotLookup {
		return nil, nil
	}
	for _, a := range r.items {
		if a.IsBooked() && a.Slot() == slot {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memoryAppointmentRepository) FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []entity.Appointment
	for _, a := range r.items {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].TimeSlot < result[j].TimeSlot
	})
	return result, nil
}

func (r *memoryAppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.AppointmentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok || a.Status != from {
		return 0, nil
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	r.items[id] = a
	return 1, nil
}

func (r *memoryAppointmentRepository) status(id uuid.UUID) entity.AppointmentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Status
}

func (r *memoryAppointmentRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
