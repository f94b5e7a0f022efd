package entity

import "github.com/shopspring/decimal"

// DoctorFilter is a domain-level filter for directory searches. Every set
// field narrows the result.
type DoctorFilter struct {
	Specialization  string           // ILIKE substring
	Location        string           // ILIKE substring
	Keyword         string           // ILIKE substring on name, specialization or location
	MinFee          *decimal.Decimal // inclusive
	MaxFee          *decimal.Decimal // inclusive
	AvailableOnDate string           // Format: YYYY-MM-DD
	Limit           int
	Offset          int
}
