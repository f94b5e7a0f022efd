package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Appointment is a patient's booking of one doctor slot. At most one
// booked appointment exists per (doctor, date, time slot).
type Appointment struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Date      string            `gorm:"type:varchar(10);not null" json:"date"`
	TimeSlot  string            `gorm:"type:varchar(50);not null" json:"time_slot"`
	Status    AppointmentStatus `gorm:"type:varchar(20);not null;default:'booked';index" json:"status"`
	Notes     string            `gorm:"type:text;not null;default:''" json:"notes"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor *Doctor `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// IsBooked checks if the appointment currently holds its slot
func (a *Appointment) IsBooked() bool {
	return a.Status == AppointmentStatusBooked
}

// IsCancelled checks if appointment is cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// IsOwnedBy checks if the patient created this appointment
func (a *Appointment) IsOwnedBy(patientID uuid.UUID) bool {
	return a.PatientID == patientID
}

// Slot is the (doctor, date, time label) tuple an appointment occupies.
type Slot struct {
	DoctorID uuid.UUID
	Date     string
	TimeSlot string
}

// Key identifies the slot in lock and cache namespaces.
func (s Slot) Key() string {
	return s.DoctorID.String() + ":" + s.Date + ":" + s.TimeSlot
}

func (a *Appointment) Slot() Slot {
	return Slot{DoctorID: a.DoctorID, Date: a.Date, TimeSlot: a.TimeSlot}
}
