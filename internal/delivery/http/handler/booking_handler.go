package handler

import (
	"encoding/json"
	"net/http"

	"find-my-doctor/internal/delivery/dto"
	"find-my-doctor/internal/delivery/http/middleware"
	"find-my-doctor/internal/usecase"
	"find-my-doctor/pkg/response"
	"find-my-doctor/pkg/validator"
)

// BookingHandler serves the older /bookings routes on top of the
// appointment ledger, so both paths share the slot guarantees.
type BookingHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewBookingHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.LegacyBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.appointmentUsecase.BookSlot(r.Context(), patientID, req.ToBookAppointmentRequest())
	if err != nil {
		response.FromError(w, err, "Failed to create booking")
		return
	}

	response.Success(w, http.StatusCreated, "Booking created successfully", booking)
}

func (h *BookingHandler) GetBookings(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	bookings, err := h.appointmentUsecase.ListForPatient(r.Context(), patientID)
	if err != nil {
		response.FromError(w, err, "Failed to get bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}
