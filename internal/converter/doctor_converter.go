package converter

import (
	"find-my-doctor/internal/delivery/dto"
	"find-my-doctor/internal/domain/entity"
)

// DoctorToResponse converts a Doctor entity to DoctorResponse DTO
func DoctorToResponse(doctor *entity.Doctor) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	slots := make([]dto.AvailabilityResponse, len(doctor.AvailableSlots))
	for i, entry := range doctor.AvailableSlots {
		slots[i] = dto.AvailabilityResponse{Date: entry.Date, Slots: entry.Slots}
	}

	return &dto.DoctorResponse{
		ID:             doctor.ID,
		Name:           doctor.Name,
		Specialization: doctor.Specialization,
		Location:       doctor.Location,
		Fees:           doctor.Fees,
		Experience:     doctor.Experience,
		About:          doctor.About,
		ImageURL:       doctor.ImageURL,
		ContactNumber:  doctor.ContactNumber,
		ClinicAddress:  doctor.ClinicAddress,
		RatingAverage:  doctor.RatingAverage,
		RatingCount:    doctor.RatingCount,
		Timings:        dto.TimingsResponse{Start: doctor.Timings.Start, End: doctor.Timings.End},
		AvailableSlots: slots,
		CreatedAt:      doctor.CreatedAt,
		UpdatedAt:      doctor.UpdatedAt,
	}
}

// DoctorsToResponses converts a slice of Doctor entities to slice of DoctorResponse DTOs
func DoctorsToResponses(doctors []entity.Doctor) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(doctors))
	for i := range doctors {
		responses[i] = *DoctorToResponse(&doctors[i])
	}
	return responses
}

// DoctorToSummary keeps the fields shown next to an appointment
func DoctorToSummary(doctor *entity.Doctor) *dto.DoctorSummary {
	if doctor == nil {
		return nil
	}

	return &dto.DoctorSummary{
		ID:             doctor.ID,
		Name:           doctor.Name,
		Specialization: doctor.Specialization,
		Location:       doctor.Location,
		Fees:           doctor.Fees,
	}
}

// AvailabilityFromRequest converts request availability entries to the
// stored document form.
func AvailabilityFromRequest(entries []dto.AvailabilityRequest) entity.AvailabilityList {
	list := make(entity.AvailabilityList, len(entries))
	for i, entry := range entries {
		slots := entry.Slots
		if slots == nil {
			slots = []string{}
		}
		list[i] = entity.Availability{Date: entry.Date, Slots: slots}
	}
	return list
}
