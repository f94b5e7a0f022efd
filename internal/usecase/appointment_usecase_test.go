package usecase

import (
	"context"
	"sync"
	"testing"

	"find-my-doctor/internal/delivery/dto"
	"find-my-doctor/internal/domain/entity"
	"find-my-doctor/internal/mocks"
	"find-my-doctor/internal/service"
	"find-my-doctor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type appointmentFixture struct {
	usecase      AppointmentUsecase
	repo         *memoryAppointmentRepository
	doctorRepo   *mocks.DoctorRepository
	auditService *mocks.AuditService
	doctor       *entity.Doctor
}

func newAppointmentFixture(t *testing.T) *appointmentFixture {
	t.Helper()

	log := newTestLogger()
	locker := service.NewLocalSlotLocker(log)
	t.Cleanup(locker.Stop)

	doctor := &entity.Doctor{
		ID:             uuid.New(),
		Name:           "Dr. Rao",
		Specialization: "Cardiology",
		Location:       "Pune",
		Fees:           decimal.NewFromInt(150),
	}

	doctorRepo := new(mocks.DoctorRepository)
	doctorRepo.On("FindByID", mock.Anything, doctor.ID).Return(doctor, nil).Maybe()
	doctorRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	repo := newMemoryAppointmentRepository()
	audit := newQuietAuditService()

	return &appointmentFixture{
		usecase:      NewAppointmentUsecase(log, repo, doctorRepo, locker, audit),
		repo:         repo,
		doctorRepo:   doctorRepo,
		auditService: audit,
		doctor:       doctor,
	}
}

func (f *appointmentFixture) book(patientID uuid.UUID, date, slot string) (*dto.AppointmentResponse, error) {
	return f.usecase.BookSlot(context.Background(), patientID, &dto.BookAppointmentRequest{
		DoctorID: f.doctor.ID.String(),
		Date:     date,
		TimeSlot: slot,
	})
}

func TestBookSlot_Success(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID := uuid.New()

	resp, err := f.book(patientID, "2024-06-01", "10:00 AM")
	require.NoError(t, err)

	assert.Equal(t, "booked", resp.Status)
	assert.Equal(t, patientID, resp.PatientID)
	assert.Equal(t, f.doctor.ID, resp.DoctorID)
	require.NotNil(t, resp.Doctor)
	assert.Equal(t, "Dr. Rao", resp.Doctor.Name)
	f.auditService.AssertCalled(t, "LogCreate", mock.Anything, &patientID, entity.AuditActionAppointmentBook, "appointment", resp.ID.String(), mock.Anything)
}

func TestBookSlot_SecondBookingOfSameSlotConflicts(t *testing.T) {
	f := newAppointmentFixture(t)

	first, err := f.book(uuid.New(), "2024-06-01", "10:00 AM")
	require.NoError(t, err)

	_, err = f.book(uuid.New(), "2024-06-01", "10:00 AM")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.Equal(t, apperror.KindSlotConflict, apperror.KindOf(err))

	assert.Equal(t, entity.AppointmentStatusBooked, f.repo.status(first.ID))
	assert.Equal(t, 1, f.repo.count())
}

func TestBookSlot_UniqueIndexViolationIsSlotConflict(t *testing.T) {
	f := newAppointmentFixture(t)
	f.repo.skipSlotLookup = true

	_, err := f.book(uuid.New(), "2024-06-01", "10:00 AM")
	require.NoError(t, err)

	_, err = f.book(uuid.New(), "2024-06-01", "10:00 AM")
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestBookSlot_ConcurrentRequestsBookOnce(t *testing.T) {
	f := newAppointmentFixture(t)

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.book(uuid.New(), "2024-06-01", "10:00 AM")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperror.KindOf(err) == apperror.KindSlotConflict:
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, f.repo.count())
}

func TestBookSlot_DifferentSlotsDoNotConflict(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID := uuid.New()

	_, err := f.book(patientID, "2024-06-01", "10:00 AM")
	require.NoError(t, err)
	_, err = f.book(patientID, "2024-06-01", "11:00 AM")
	require.NoError(t, err)
	_, err = f.book(patientID, "2024-06-02", "10:00 AM")
	require.NoError(t, err)

	assert.Equal(t, 3, f.repo.count())
}

func TestBookSlot_Validation(t *testing.T) {
	f := newAppointmentFixture(t)

	tests := []struct {
		name string
		req  *dto.BookAppointmentRequest
		want error
	}{
		{"missing date", &dto.BookAppointmentRequest{DoctorID: f.doctor.ID.String(), TimeSlot: "10:00 AM"}, ErrMissingBookingFields},
		{"missing time slot", &dto.BookAppointmentRequest{DoctorID: f.doctor.ID.String(), Date: "2024-06-01"}, ErrMissingBookingFields},
		{"blank time slot", &dto.BookAppointmentRequest{DoctorID: f.doctor.ID.String(), Date: "2024-06-01", TimeSlot: "   "}, ErrMissingBookingFields},
		{"missing doctor", &dto.BookAppointmentRequest{Date: "2024-06-01", TimeSlot: "10:00 AM"}, ErrMissingBookingFields},
		{"bad date", &dto.BookAppointmentRequest{DoctorID: f.doctor.ID.String(), Date: "01/06/2024", TimeSlot: "10:00 AM"}, ErrInvalidDateFormat},
		{"impossible date", &dto.BookAppointmentRequest{DoctorID: f.doctor.ID.String(), Date: "2024-02-30", TimeSlot: "10:00 AM"}, ErrInvalidDateFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.usecase.BookSlot(context.Background(), uuid.New(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		})
	}
	assert.Equal(t, 0, f.repo.count())
}

func TestBookSlot_UnknownDoctor(t *testing.T) {
	f := newAppointmentFixture(t)

	_, err := f.usecase.BookSlot(context.Background(), uuid.New(), &dto.BookAppointmentRequest{
		DoctorID: uuid.New().String(),
		Date:     "2024-06-01",
		TimeSlot: "10:00 AM",
	})
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	assert.Equal(t, 0, f.repo.count())
}

func TestCancel_ReleasesSlotForRebooking(t *testing.T) {
	f := newAppointmentFixture(t)
	owner := uuid.New()

	first, err := f.book(owner, "2024-06-01", "10:00 AM")
	require.NoError(t, err)

	require.NoError(t, f.usecase.Cancel(context.Background(), owner, first.ID))
	assert.Equal(t, entity.AppointmentStatusCancelled, f.repo.status(first.ID))

	second, err := f.book(uuid.New(), "2024-06-01", "10:00 AM")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCancel_NonOwnerIsForbidden(t *testing.T) {
	f := newAppointmentFixture(t)

	appt, err := f.book(uuid.New(), "2024-06-01", "10:00 AM")
	require.NoError(t, err)

	err = f.usecase.Cancel(context.Background(), uuid.New(), appt.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotOwned)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	assert.Equal(t, entity.AppointmentStatusBooked, f.repo.status(appt.ID))
}

func TestCancel_NotFound(t *testing.T) {
	f := newAppointmentFixture(t)

	err := f.usecase.Cancel(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCancel_AlreadyCancelledIsNoop(t *testing.T) {
	f := newAppointmentFixture(t)
	owner := uuid.New()

	appt, err := f.book(owner, "2024-06-01", "10:00 AM")
	require.NoError(t, err)
	require.NoError(t, f.usecase.Cancel(context.Background(), owner, appt.ID))

	assert.NoError(t, f.usecase.Cancel(context.Background(), owner, appt.ID))
	assert.Equal(t, entity.AppointmentStatusCancelled, f.repo.status(appt.ID))
}

func TestCancel_CompletedAppointmentConflicts(t *testing.T) {
	f := newAppointmentFixture(t)
	owner := uuid.New()

	appt, err := f.book(owner, "2024-06-01", "10:00 AM")
	require.NoError(t, err)
	_, err = f.usecase.Complete(context.Background(), uuid.New(), appt.ID)
	require.NoError(t, err)

	err = f.usecase.Cancel(context.Background(), owner, appt.ID)
	assert.ErrorIs(t, err, ErrAppointmentCompleted)
	assert.Equal(t, entity.AppointmentStatusCompleted, f.repo.status(appt.ID))
}

func TestComplete_OnlyBookedAppointments(t *testing.T) {
	f := newAppointmentFixture(t)
	owner := uuid.New()

	appt, err := f.book(owner, "2024-06-01", "10:00 AM")
	require.NoError(t, err)

	resp, err := f.usecase.Complete(context.Background(), uuid.New(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)

	_, err = f.usecase.Complete(context.Background(), uuid.New(), appt.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotBooked)

	_, err = f.usecase.Complete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestListForPatient_OrderedByDateThenSlot(t *testing.T) {
	f := newAppointmentFixture(t)
	patientID := uuid.New()

	_, err := f.book(patientID, "2024-06-02", "09:00 AM")
	require.NoError(t, err)
	_, err = f.book(patientID, "2024-06-01", "11:00 AM")
	require.NoError(t, err)
	_, err = f.book(patientID, "2024-06-01", "10:00 AM")
	require.NoError(t, err)
	_, err = f.book(uuid.New(), "2024-06-03", "10:00 AM")
	require.NoError(t, err)

	resp, err := f.usecase.ListForPatient(context.Background(), patientID)
	require.NoError(t, err)
	require.Equal(t, 3, resp.Total)

	got := make([]string, len(resp.Appointments))
	for i, a := range resp.Appointments {
		got[i] = a.Date + " " + a.TimeSlot
	}
	assert.Equal(t, []string{"2024-06-01 10:00 AM", "2024-06-01 11:00 AM", "2024-06-02 09:00 AM"}, got)
}

func TestListForPatient_Empty(t *testing.T) {
	f := newAppointmentFixture(t)

	resp, err := f.usecase.ListForPatient(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Appointments)
}

// P1 books D1 at 10:00 AM, P2 is refused, P1 cancels, P2 books.
func TestBookingSequence_TwoPatientsOneSlot(t *testing.T) {
	f := newAppointmentFixture(t)
	p1, p2 := uuid.New(), uuid.New()

	a1, err := f.book(p1, "2024-06-01", "10:00 AM")
	require.NoError(t, err)

	_, err = f.book(p2, "2024-06-01", "10:00 AM")
	require.ErrorIs(t, err, ErrSlotConflict)

	err = f.usecase.Cancel(context.Background(), p2, a1.ID)
	require.ErrorIs(t, err, ErrAppointmentNotOwned)

	require.NoError(t, f.usecase.Cancel(context.Background(), p1, a1.ID))

	a2, err := f.book(p2, "2024-06-01", "10:00 AM")
	require.NoError(t, err)
	assert.Equal(t, p2, a2.PatientID)

	p1List, err := f.usecase.ListForPatient(context.Background(), p1)
	require.NoError(t, err)
	require.Len(t, p1List.Appointments, 1)
	assert.Equal(t, "cancelled", p1List.Appointments[0].Status)
}
