package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"find-my-doctor/internal/converter"
	"find-my-doctor/internal/delivery/dto"
	"find-my-doctor/internal/domain/entity"
	"find-my-doctor/internal/domain/repository"
	"find-my-doctor/internal/service"
	"find-my-doctor/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AppointmentUsecase interface {
	BookSlot(ctx context.Context, patientID uuid.UUID, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, patientID uuid.UUID, appointmentID uuid.UUID) error
	ListForPatient(ctx context.Context, patientID uuid.UUID) (*dto.AppointmentListResponse, error)
	Complete(ctx context.Context, actorID uuid.UUID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	slotLocker      service.SlotLocker
	auditService    service.AuditService
}

func NewAppointmentUsecase(
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	slotLocker service.SlotLocker,
	auditService service.AuditService,
) AppointmentUsecase {
	return &appointmentUsecase{
		log:             log,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		slotLocker:      slotLocker,
		auditService:    auditService,
	}
}

// BookSlot books (doctor, date, time slot) for the patient.
//
// The check for an existing booked appointment runs under a per-slot lock.
// The partial unique index on booked slots rejects anything the lock
// does not cover.
func (u *appointmentUsecase) BookSlot(ctx context.Context, patientID uuid.UUID, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	date := strings.TrimSpace(req.Date)
	timeSlot := strings.TrimSpace(req.TimeSlot)
	if date == "" || timeSlot == "" || strings.TrimSpace(req.DoctorID) == "" {
		return nil, ErrMissingBookingFields
	}
	if _, err := time.Parse(validator.DateLayout, date); err != nil {
		return nil, ErrInvalidDateFormat
	}

	doctorID, err := uuid.Parse(strings.TrimSpace(req.DoctorID))
	if err != nil {
		return nil, ErrDoctorNotFound
	}

	doctor, err := u.doctorRepo.FindByID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	slot := entity.Slot{DoctorID: doctorID, Date: date, TimeSlot: timeSlot}

	unlock, err := u.slotLocker.Lock(ctx, slot.Key())
	if err != nil {
		if errors.Is(err, service.ErrSlotLocked) {
			return nil, ErrSlotBusy
		}
		u.log.Warnf("Failed to lock slot %s: %+v", slot.Key(), err)
		return nil, err
	}
	defer unlock()

	existing, err := u.appointmentRepo.FindBookedBySlot(ctx, slot)
	if err != nil {
		u.log.Warnf("Failed to check slot %s: %+v", slot.Key(), err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlotConflict
	}

	appointment := &entity.Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		TimeSlot:  timeSlot,
		Status:    entity.AppointmentStatusBooked,
		Notes:     strings.TrimSpace(req.Notes),
	}

	if err := u.appointmentRepo.Create(ctx, appointment); err != nil {
		if isDuplicateKeyError(err, constraintBookedSlot) {
			return nil, ErrSlotConflict
		}
		if isForeignKeyError(err, constraintAppointment) {
			return nil, ErrDoctorNotFound
		}
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}
	appointment.Doctor = doctor

	if err := u.auditService.LogCreate(ctx, &patientID, entity.AuditActionAppointmentBook, "appointment", appointment.ID.String(), slotAudit(appointment)); err != nil {
		u.log.Warnf("Failed to audit booking %s: %+v", appointment.ID, err)
	}

	return converter.AppointmentToResponse(appointment), nil
}

// Cancel releases the slot held by the patient's appointment. Cancelling
// an appointment that is already cancelled succeeds without changes.
func (u *appointmentUsecase) Cancel(ctx context.Context, patientID uuid.UUID, appointmentID uuid.UUID) error {
	appointment, err := u.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return err
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}
	if !appointment.IsOwnedBy(patientID) {
		return ErrAppointmentNotOwned
	}

	switch appointment.Status {
	case entity.AppointmentStatusCancelled:
		return nil
	case entity.AppointmentStatusCompleted:
		return ErrAppointmentCompleted
	}

	rows, err := u.appointmentRepo.UpdateStatus(ctx, appointmentID, entity.AppointmentStatusBooked, entity.AppointmentStatusCancelled)
	if err != nil {
		u.log.Warnf("Failed to cancel appointment %s: %+v", appointmentID, err)
		return err
	}
	if rows == 0 {
		// status changed since it was read
		return u.reconcileCancel(ctx, appointmentID)
	}

	if err := u.auditService.LogUpdate(ctx, &patientID, entity.AuditActionAppointmentCancel, "appointment", appointmentID.String(),
		map[string]string{"status": string(entity.AppointmentStatusBooked)},
		map[string]string{"status": string(entity.AppointmentStatusCancelled)}); err != nil {
		u.log.Warnf("Failed to audit cancel %s: %+v", appointmentID, err)
	}

	return nil
}

func (u *appointmentUsecase) reconcileCancel(ctx context.Context, appointmentID uuid.UUID) error {
	current, err := u.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	switch {
	case current == nil:
		return ErrAppointmentNotFound
	case current.IsCancelled():
		return nil
	default:
		return ErrAppointmentCompleted
	}
}

func (u *appointmentUsecase) ListForPatient(ctx context.Context, patientID uuid.UUID) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByPatientID(ctx, patientID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for patient %s: %+v", patientID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// Complete marks a booked appointment as attended.
func (u *appointmentUsecase) Complete(ctx context.Context, actorID uuid.UUID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !appointment.IsBooked() {
		return nil, ErrAppointmentNotBooked
	}

	rows, err := u.appointmentRepo.UpdateStatus(ctx, appointmentID, entity.AppointmentStatusBooked, entity.AppointmentStatusCompleted)
	if err != nil {
		u.log.Warnf("Failed to complete appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAppointmentNotBooked
	}
	appointment.Status = entity.AppointmentStatusCompleted

	if err := u.auditService.LogUpdate(ctx, &actorID, entity.AuditActionAppointmentComplete, "appointment", appointmentID.String(),
		map[string]string{"status": string(entity.AppointmentStatusBooked)},
		map[string]string{"status": string(entity.AppointmentStatusCompleted)}); err != nil {
		u.log.Warnf("Failed to audit completion %s: %+v", appointmentID, err)
	}

	return converter.AppointmentToResponse(appointment), nil
}

func slotAudit(a *entity.Appointment) map[string]string {
	return map[string]string{
		"doctor_id": a.DoctorID.String(),
		"date":      a.Date,
		"time_slot": a.TimeSlot,
	}
}

