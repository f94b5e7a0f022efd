package usecase

import (
	"errors"
	"strings"

	"find-my-doctor/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// auth
	ErrEmailAlreadyExists = apperror.Conflict("Email is already registered")
	ErrInvalidCredentials = apperror.New(apperror.KindInvalidCredentials, "Invalid email or password")
	ErrInvalidToken       = apperror.Unauthenticated("Invalid or expired token")
	ErrUserNotFound       = apperror.NotFound("User not found")
	ErrPasswordTooLong    = apperror.Validation("password must be at most 72 bytes")

	// doctors
	ErrDoctorNotFound   = apperror.NotFound("Doctor not found")
	ErrInvalidFeeFilter = apperror.Validation("minFees and maxFees must be valid numbers")
	ErrInvalidFeeRange  = apperror.Validation("minFees cannot be greater than maxFees")
	ErrFeesRequired     = apperror.Validation("fees is required")
	ErrNegativeFees     = apperror.Validation("fees cannot be negative")
	ErrFeesTooLarge     = apperror.Validation("fees must be less than 100000000")
	ErrPageOutOfRange   = apperror.Validation("page is out of range")
	ErrInvalidRating    = apperror.Validation("ratingAverage must be between 1 and 5")

	// appointments
	ErrMissingBookingFields = apperror.Validation("doctorId, date and timeSlot are required")
	ErrInvalidDateFormat    = apperror.Validation("invalid date format, use YYYY-MM-DD")
	ErrSlotConflict         = apperror.New(apperror.KindSlotConflict, "This slot is already booked for this doctor. Please choose another slot.")
	ErrSlotBusy             = apperror.New(apperror.KindSlotConflict, "This slot is being booked by someone else. Please try again.")
	ErrAppointmentNotFound  = apperror.NotFound("Appointment not found")
	ErrAppointmentNotOwned  = apperror.Forbidden("You can only cancel your own appointments")
	ErrAppointmentCompleted = apperror.Conflict("Completed appointments cannot be cancelled")
	ErrAppointmentNotBooked = apperror.Conflict("Only booked appointments can be completed")
)

// Constraint names created by the schema migrations.
const (
	constraintUserEmail   = "users_email_key"
	constraintBookedSlot  = "appointments_booked_slot_key"
	constraintAppointment = "appointments_doctor_id_fkey"
)

// isDuplicateKeyError checks if the error is a PostgreSQL unique violation
// on the specified constraint
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}

// isForeignKeyError checks if the error is a PostgreSQL foreign key violation
// on the specified constraint
func isForeignKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23503 = foreign_key_violation
		if pgErr.Code == "23503" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}
