package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type BookAppointmentRequest struct {
	DoctorID string `json:"doctorId" validate:"required,uuid"`
	Date     string `json:"date" validate:"required,date_ymd"`
	TimeSlot string `json:"timeSlot" validate:"required,notblank,max=50"`
	Notes    string `json:"notes" validate:"max=1000"`
}

// LegacyBookingRequest is the body accepted by POST /bookings. Patient
// name and phone are taken from the authenticated account.
type LegacyBookingRequest struct {
	Doctor      string `json:"doctor" validate:"required,uuid"`
	PatientName string `json:"patientName"`
	Phone       string `json:"phone"`
	Date        string `json:"date" validate:"required,date_ymd"`
	Time        string `json:"time" validate:"required,notblank,max=50"`
	Notes       string `json:"notes" validate:"max=1000"`
}

// ToBookAppointmentRequest maps the legacy body onto the ledger request.
func (r *LegacyBookingRequest) ToBookAppointmentRequest() *BookAppointmentRequest {
	return &BookAppointmentRequest{
		DoctorID: r.Doctor,
		Date:     r.Date,
		TimeSlot: r.Time,
		Notes:    r.Notes,
	}
}

// Response DTOs

type AppointmentResponse struct {
	ID        uuid.UUID      `json:"id"`
	PatientID uuid.UUID      `json:"patientId"`
	DoctorID  uuid.UUID      `json:"doctorId"`
	Date      string         `json:"date"`
	TimeSlot  string         `json:"timeSlot"`
	Status    string         `json:"status"`
	Notes     string         `json:"notes"`
	Doctor    *DoctorSummary `json:"doctor,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
