package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Doctor is a directory entry. Availability is kept as a JSONB document.
type Doctor struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string           `gorm:"type:varchar(255);not null" json:"name"`
	Specialization string           `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Location       string           `gorm:"type:varchar(255);not null;index" json:"location"`
	Fees           decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"fees"`
	Experience     int              `gorm:"not null;default:1" json:"experience"`
	About          string           `gorm:"type:text" json:"about"`
	ImageURL       string           `gorm:"type:text" json:"image_url"`
	ContactNumber  string           `gorm:"type:varchar(20)" json:"contact_number"`
	ClinicAddress  string           `gorm:"type:text" json:"clinic_address"`
	RatingAverage  decimal.Decimal  `gorm:"type:decimal(2,1);not null;default:4.5" json:"rating_average"`
	RatingCount    int              `gorm:"not null;default:0" json:"rating_count"`
	Timings        Timings          `gorm:"embedded;embeddedPrefix:timing_" json:"timings"`
	AvailableSlots AvailabilityList `gorm:"type:jsonb;not null;default:'[]'" json:"available_slots"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Doctor) TableName() string {
	return "doctors"
}

func (d *Doctor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Default doctor attributes
const (
	DefaultExperience  = 1
	DefaultTimingStart = "10:00 AM"
	DefaultTimingEnd   = "06:00 PM"
)

var DefaultRatingAverage = decimal.NewFromFloat(4.5)

// Timings are the general clinic hours.
type Timings struct {
	Start string `gorm:"type:varchar(20)" json:"start"`
	End   string `gorm:"type:varchar(20)" json:"end"`
}

// Availability lists the bookable time labels of one calendar date.
type Availability struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type AvailabilityList []Availability

// Value implements driver.Valuer
func (a AvailabilityList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *AvailabilityList) Scan(value interface{}) error {
	if value == nil {
		*a = AvailabilityList{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	result := AvailabilityList{}
	err := json.Unmarshal(bytes, &result)
	*a = result
	return err
}

// HasDate reports whether any entry is for the given date.
func (a AvailabilityList) HasDate(date string) bool {
	for _, entry := range a {
		if entry.Date == date {
			return true
		}
	}
	return false
}
