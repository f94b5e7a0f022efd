package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"find-my-doctor/internal/delivery/dto"
	"find-my-doctor/internal/delivery/http/middleware"
	"find-my-doctor/internal/mocks"
	"find-my-doctor/internal/usecase"
	"find-my-doctor/pkg/apperror"
	"find-my-doctor/pkg/jwt"
	"find-my-doctor/pkg/response"
	"find-my-doctor/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorBody `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func withUser(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

func serve(router *mux.Router, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func appointmentRouter(uc *mocks.AppointmentUsecase) *mux.Router {
	h := NewAppointmentHandler(uc, validator.NewValidator())
	legacy := NewBookingHandler(uc, validator.NewValidator())

	r := mux.NewRouter()
	r.HandleFunc("/appointments/book", h.BookAppointment).Methods(http.MethodPost)
	r.HandleFunc("/appointments/mine", h.GetMyAppointments).Methods(http.MethodGet)
	r.HandleFunc("/appointments/cancel/{id}", h.CancelAppointment).Methods(http.MethodDelete)
	r.HandleFunc("/appointments/{id}/complete", h.CompleteAppointment).Methods(http.MethodPatch)
	r.HandleFunc("/bookings", legacy.CreateBooking).Methods(http.MethodPost)
	r.HandleFunc("/bookings", legacy.GetBookings).Methods(http.MethodGet)
	return r
}

func TestBookAppointment(t *testing.T) {
	doctorID := uuid.New()
	patientID := uuid.New()
	body := `{"doctorId":"` + doctorID.String() + `","date":"2024-06-01","timeSlot":"10:00 AM"}`

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantKind   apperror.Kind
	}{
		{"created", body, nil, http.StatusCreated, ""},
		{"slot taken", body, usecase.ErrSlotConflict, http.StatusBadRequest, apperror.KindSlotConflict},
		{"unknown doctor", body, usecase.ErrDoctorNotFound, http.StatusNotFound, apperror.KindNotFound},
		{"missing fields", `{"doctorId":"` + doctorID.String() + `"}`, nil, http.StatusBadRequest, apperror.KindValidation},
		{"bad date", `{"doctorId":"` + doctorID.String() + `","date":"June 1","timeSlot":"10:00 AM"}`, nil, http.StatusBadRequest, apperror.KindValidation},
		{"malformed json", `{`, nil, http.StatusBadRequest, apperror.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := new(mocks.AppointmentUsecase)
			if tt.err != nil {
				uc.On("BookSlot", mock.Anything, patientID, mock.Anything).Return(nil, tt.err)
			} else {
				uc.On("BookSlot", mock.Anything, patientID, mock.MatchedBy(func(req *dto.BookAppointmentRequest) bool {
					return req.DoctorID == doctorID.String() && req.TimeSlot == "10:00 AM"
				})).Return(&dto.AppointmentResponse{ID: uuid.New(), Status: "booked"}, nil).Maybe()
			}

			req := withUser(httptest.NewRequest(http.MethodPost, "/appointments/book", strings.NewReader(tt.body)), patientID)
			rec := serve(appointmentRouter(uc), req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			got := decode(t, rec)
			if tt.wantKind == "" {
				assert.True(t, got.Success)
				return
			}
			require.NotNil(t, got.Error)
			assert.Equal(t, tt.wantKind, got.Error.Kind)
		})
	}
}

func TestBookAppointment_RequiresUser(t *testing.T) {
	uc := new(mocks.AppointmentUsecase)
	req := httptest.NewRequest(http.MethodPost, "/appointments/book", strings.NewReader(`{}`))

	rec := serve(appointmentRouter(uc), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	uc.AssertNotCalled(t, "BookSlot", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelAppointment(t *testing.T) {
	patientID := uuid.New()
	appointmentID := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"cancelled", nil, http.StatusOK},
		{"not owner", usecase.ErrAppointmentNotOwned, http.StatusForbidden},
		{"not found", usecase.ErrAppointmentNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := new(mocks.AppointmentUsecase)
			uc.On("Cancel", mock.Anything, patientID, appointmentID).Return(tt.err)

			req := withUser(httptest.NewRequest(http.MethodDelete, "/appointments/cancel/"+appointmentID.String(), nil), patientID)
			rec := serve(appointmentRouter(uc), req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			uc.AssertExpectations(t)
		})
	}
}

func TestCancelAppointment_InvalidID(t *testing.T) {
	uc := new(mocks.AppointmentUsecase)
	req := withUser(httptest.NewRequest(http.MethodDelete, "/appointments/cancel/not-a-uuid", nil), uuid.New())

	rec := serve(appointmentRouter(uc), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMyAppointments(t *testing.T) {
	patientID := uuid.New()
	uc := new(mocks.AppointmentUsecase)
	uc.On("ListForPatient", mock.Anything, patientID).Return(&dto.AppointmentListResponse{
		Appointments: []dto.AppointmentResponse{{ID: uuid.New(), Date: "2024-06-01", TimeSlot: "10:00 AM", Status: "booked"}},
		Total:        1,
	}, nil)

	req := withUser(httptest.NewRequest(http.MethodGet, "/appointments/mine", nil), patientID)
	rec := serve(appointmentRouter(uc), req)

	require.Equal(t, http.StatusOK, rec.Code)
	var data dto.AppointmentListResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, 1, data.Total)
	assert.Equal(t, "10:00 AM", data.Appointments[0].TimeSlot)
}

func TestCompleteAppointment_NotBooked(t *testing.T) {
	actorID := uuid.New()
	appointmentID := uuid.New()
	uc := new(mocks.AppointmentUsecase)
	uc.On("Complete", mock.Anything, actorID, appointmentID).Return(nil, usecase.ErrAppointmentNotBooked)

	req := withUser(httptest.NewRequest(http.MethodPatch, "/appointments/"+appointmentID.String()+"/complete", nil), actorID)
	rec := serve(appointmentRouter(uc), req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLegacyBooking_RoutesIntoLedger(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()
	uc := new(mocks.AppointmentUsecase)
	uc.On("BookSlot", mock.Anything, patientID, &dto.BookAppointmentRequest{
		DoctorID: doctorID.String(),
		Date:     "2024-06-01",
		TimeSlot: "10:00 AM",
	}).Return(&dto.AppointmentResponse{ID: uuid.New(), Status: "booked"}, nil)

	body := `{"doctor":"` + doctorID.String() + `","patientName":"Asha","phone":"98765","date":"2024-06-01","time":"10:00 AM"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body)), patientID)
	rec := serve(appointmentRouter(uc), req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	uc.AssertExpectations(t)
}

func doctorRouter(uc *mocks.DoctorUsecase) *mux.Router {
	h := NewDoctorHandler(uc, validator.NewValidator())

	r := mux.NewRouter()
	r.HandleFunc("/doctors", h.SearchDoctors).Methods(http.MethodGet)
	r.HandleFunc("/doctors", h.CreateDoctor).Methods(http.MethodPost)
	r.HandleFunc("/doctors/{id}", h.GetDoctor).Methods(http.MethodGet)
	r.HandleFunc("/doctors/{id}", h.UpdateDoctor).Methods(http.MethodPut)
	r.HandleFunc("/doctors/{id}", h.DeleteDoctor).Methods(http.MethodDelete)
	return r
}

func TestSearchDoctors_PassesQueryAndMeta(t *testing.T) {
	uc := new(mocks.DoctorUsecase)
	uc.On("Search", mock.Anything, &dto.DoctorSearchQuery{
		Specialization: "cardio",
		MinFees:        "100",
		MaxFees:        "200",
		Date:           "2024-06-01",
		Page:           2,
		Limit:          10,
	}).Return(&dto.DoctorListResponse{Doctors: []dto.DoctorResponse{}, Total: 25, Page: 2, Limit: 10}, nil)

	req := httptest.NewRequest(http.MethodGet, "/doctors?specialization=cardio&minFees=100&maxFees=200&date=2024-06-01&page=2&limit=10", nil)
	rec := serve(doctorRouter(uc), req)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	require.NotNil(t, got.Meta)
	assert.Equal(t, 3, got.Meta.TotalPages)
	assert.Equal(t, int64(25), got.Meta.Total)
}

func TestSearchDoctors_InvalidFees(t *testing.T) {
	uc := new(mocks.DoctorUsecase)
	uc.On("Search", mock.Anything, mock.Anything).Return(nil, usecase.ErrInvalidFeeFilter)

	rec := serve(doctorRouter(uc), httptest.NewRequest(http.MethodGet, "/doctors?minFees=abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.KindValidation, decode(t, rec).Error.Kind)
}

func TestSearchDoctors_BadQueryValues(t *testing.T) {
	uc := new(mocks.DoctorUsecase)

	for _, query := range []string{"page=x", "limit=500", "date=06-01-2024"} {
		rec := serve(doctorRouter(uc), httptest.NewRequest(http.MethodGet, "/doctors?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
	uc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestGetDoctor(t *testing.T) {
	id := uuid.New()
	missing := uuid.New()
	uc := new(mocks.DoctorUsecase)
	uc.On("GetDoctor", mock.Anything, id).Return(&dto.DoctorResponse{ID: id, Name: "Dr. Rao"}, nil)
	uc.On("GetDoctor", mock.Anything, missing).Return(nil, usecase.ErrDoctorNotFound)

	rec := serve(doctorRouter(uc), httptest.NewRequest(http.MethodGet, "/doctors/"+id.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(doctorRouter(uc), httptest.NewRequest(http.MethodGet, "/doctors/"+missing.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(doctorRouter(uc), httptest.NewRequest(http.MethodGet, "/doctors/123", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDoctor_ValidatesRequiredFields(t *testing.T) {
	uc := new(mocks.DoctorUsecase)
	req := withUser(httptest.NewRequest(http.MethodPost, "/doctors", strings.NewReader(`{"name":"Dr. Rao"}`)), uuid.New())

	rec := serve(doctorRouter(uc), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := decode(t, rec)
	details, ok := got.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, details, "specialization")
	assert.Contains(t, details, "location")
	uc.AssertNotCalled(t, "CreateDoctor", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteDoctor(t *testing.T) {
	actorID := uuid.New()
	id := uuid.New()
	uc := new(mocks.DoctorUsecase)
	uc.On("DeleteDoctor", mock.Anything, actorID, id).Return(nil)

	req := withUser(httptest.NewRequest(http.MethodDelete, "/doctors/"+id.String(), nil), actorID)
	rec := serve(doctorRouter(uc), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func authRouter(uc *mocks.AuthUsecase) *mux.Router {
	h := NewAuthHandler(uc, validator.NewValidator())

	r := mux.NewRouter()
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", h.GetCurrentUser).Methods(http.MethodGet)
	return r
}

func TestRegister(t *testing.T) {
	valid := `{"name":"Asha","email":"asha@example.com","password":"secret123","phoneNumber":"98765","gender":"female","age":34}`

	t.Run("created", func(t *testing.T) {
		uc := new(mocks.AuthUsecase)
		uc.On("Register", mock.Anything, mock.AnythingOfType("*dto.RegisterRequest")).Return(&dto.AuthResponse{Token: "t"}, nil)

		rec := serve(authRouter(uc), httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(valid)))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		uc := new(mocks.AuthUsecase)
		uc.On("Register", mock.Anything, mock.Anything).Return(nil, usecase.ErrEmailAlreadyExists)

		rec := serve(authRouter(uc), httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(valid)))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid fields", func(t *testing.T) {
		uc := new(mocks.AuthUsecase)
		body := `{"name":"Asha","email":"nope","password":"123","phoneNumber":"98765","gender":"robot","age":0}`

		rec := serve(authRouter(uc), httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		details, ok := decode(t, rec).Error.Details.(map[string]interface{})
		require.True(t, ok)
		for _, field := range []string{"email", "password", "gender", "age"} {
			assert.Contains(t, details, field)
		}
		uc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}

func TestLogin_InvalidCredentials(t *testing.T) {
	uc := new(mocks.AuthUsecase)
	uc.On("Login", mock.Anything, mock.Anything).Return(nil, usecase.ErrInvalidCredentials)

	rec := serve(authRouter(uc), httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.com","password":"x"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "Invalid email or password", got.Message)
	assert.Equal(t, apperror.KindInvalidCredentials, got.Error.Kind)
}

func TestLogout_UsesClaimsFromContext(t *testing.T) {
	claims := &jwt.Claims{UserID: uuid.New()}
	claims.ID = "token-1"
	uc := new(mocks.AuthUsecase)
	uc.On("Logout", mock.Anything, claims).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClaimsKey, claims))
	rec := serve(authRouter(uc), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestGetCurrentUser(t *testing.T) {
	userID := uuid.New()
	uc := new(mocks.AuthUsecase)
	uc.On("GetCurrentUser", mock.Anything, userID).Return(&dto.UserResponse{ID: userID, Email: "asha@example.com"}, nil)

	rec := serve(authRouter(uc), withUser(httptest.NewRequest(http.MethodGet, "/auth/me", nil), userID))

	require.Equal(t, http.StatusOK, rec.Code)
	var user dto.UserResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &user))
	assert.Equal(t, "asha@example.com", user.Email)
}
