package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

// DoctorSearchQuery mirrors the GET /doctors query string. Fee bounds stay
// strings so malformed numbers can be reported as validation errors.
type DoctorSearchQuery struct {
	Specialization string `json:"specialization" validate:"max=100"`
	Location       string `json:"location" validate:"max=255"`
	MinFees        string `json:"minFees"`
	MaxFees        string `json:"maxFees"`
	Search         string `json:"search" validate:"max=255"`
	Date           string `json:"date" validate:"omitempty,date_ymd"`
	Page           int    `json:"page" validate:"gte=0"`
	Limit          int    `json:"limit" validate:"gte=0,lte=100"`
}

type TimingsRequest struct {
	Start string `json:"start" validate:"required,max=20"`
	End   string `json:"end" validate:"required,max=20"`
}

type AvailabilityRequest struct {
	Date  string   `json:"date" validate:"required,date_ymd"`
	Slots []string `json:"slots" validate:"dive,notblank,max=50"`
}

type CreateDoctorRequest struct {
	Name           string                `json:"name" validate:"required,notblank,max=255"`
	Specialization string                `json:"specialization" validate:"required,notblank,max=100"`
	Location       string                `json:"location" validate:"required,notblank,max=255"`
	Fees           *decimal.Decimal      `json:"fees"`
	Experience     *int                  `json:"experience" validate:"omitempty,gte=0,lte=80"`
	About          string                `json:"about"`
	ImageURL       string                `json:"imageUrl" validate:"omitempty,url"`
	ContactNumber  string                `json:"contactNumber" validate:"max=20"`
	ClinicAddress  string                `json:"clinicAddress"`
	RatingAverage  *decimal.Decimal      `json:"ratingAverage"`
	RatingCount    *int                  `json:"ratingCount" validate:"omitempty,gte=0"`
	Timings        *TimingsRequest       `json:"timings"`
	AvailableSlots []AvailabilityRequest `json:"availableSlots" validate:"dive"`
}

// UpdateDoctorRequest changes only the fields that are present.
type UpdateDoctorRequest struct {
	Name           *string                `json:"name" validate:"omitempty,notblank,max=255"`
	Specialization *string                `json:"specialization" validate:"omitempty,notblank,max=100"`
	Location       *string                `json:"location" validate:"omitempty,notblank,max=255"`
	Fees           *decimal.Decimal       `json:"fees"`
	Experience     *int                   `json:"experience" validate:"omitempty,gte=0,lte=80"`
	About          *string                `json:"about"`
	ImageURL       *string                `json:"imageUrl" validate:"omitempty,url"`
	ContactNumber  *string                `json:"contactNumber" validate:"omitempty,max=20"`
	ClinicAddress  *string                `json:"clinicAddress"`
	RatingAverage  *decimal.Decimal       `json:"ratingAverage"`
	RatingCount    *int                   `json:"ratingCount" validate:"omitempty,gte=0"`
	Timings        *TimingsRequest        `json:"timings"`
	AvailableSlots *[]AvailabilityRequest `json:"availableSlots" validate:"omitempty,dive"`
}

// Response DTOs

type TimingsResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type DoctorResponse struct {
	ID             uuid.UUID              `json:"id"`
	Name           string                 `json:"name"`
	Specialization string                 `json:"specialization"`
	Location       string                 `json:"location"`
	Fees           decimal.Decimal        `json:"fees"`
	Experience     int                    `json:"experience"`
	About          string                 `json:"about"`
	ImageURL       string                 `json:"imageUrl"`
	ContactNumber  string                 `json:"contactNumber"`
	ClinicAddress  string                 `json:"clinicAddress"`
	RatingAverage  decimal.Decimal        `json:"ratingAverage"`
	RatingCount    int                    `json:"ratingCount"`
	Timings        TimingsResponse        `json:"timings"`
	AvailableSlots []AvailabilityResponse `json:"availableSlots"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int64            `json:"total"`
	Page    int              `json:"-"`
	Limit   int              `json:"-"`
}

// DoctorSummary is the doctor view embedded in appointment listings.
type DoctorSummary struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Specialization string          `json:"specialization"`
	Location       string          `json:"location"`
	Fees           decimal.Decimal `json:"fees"`
}
