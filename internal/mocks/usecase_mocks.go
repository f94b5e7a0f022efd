package mocks

import (
	"context"

	"find-my-doctor/internal/delivery/dto"
	"find-my-doctor/internal/domain/entity"
	"find-my-doctor/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type AuthUsecase struct {
	mock.Mock
}

func (m *AuthUsecase) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*dto.AuthResponse)
	return resp, args.Error(1)
}

func (m *AuthUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*dto.AuthResponse)
	return resp, args.Error(1)
}

func (m *AuthUsecase) Authenticate(ctx context.Context, token string) (*entity.User, *jwt.Claims, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*entity.User)
	claims, _ := args.Get(1).(*jwt.Claims)
	return user, claims, args.Error(2)
}

func (m *AuthUsecase) Logout(ctx context.Context, claims *jwt.Claims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

func (m *AuthUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	args := m.Called(ctx, userID)
	resp, _ := args.Get(0).(*dto.UserResponse)
	return resp, args.Error(1)
}

func (m *AuthUsecase) PromoteToAdmin(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type DoctorUsecase struct {
	mock.Mock
}

func (m *DoctorUsecase) Search(ctx context.Context, query *dto.DoctorSearchQuery) (*dto.DoctorListResponse, error) {
	args := m.Called(ctx, query)
	resp, _ := args.Get(0).(*dto.DoctorListResponse)
	return resp, args.Error(1)
}

func (m *DoctorUsecase) GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error) {
	args := m.Called(ctx, id)
	resp, _ := args.Get(0).(*dto.DoctorResponse)
	return resp, args.Error(1)
}

func (m *DoctorUsecase) CreateDoctor(ctx context.Context, actorID uuid.UUID, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	args := m.Called(ctx, actorID, req)
	resp, _ := args.Get(0).(*dto.DoctorResponse)
	return resp, args.Error(1)
}

func (m *DoctorUsecase) UpdateDoctor(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error) {
	args := m.Called(ctx, actorID, id, req)
	resp, _ := args.Get(0).(*dto.DoctorResponse)
	return resp, args.Error(1)
}

func (m *DoctorUsecase) DeleteDoctor(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	args := m.Called(ctx, actorID, id)
	return args.Error(0)
}

type AppointmentUsecase struct {
	mock.Mock
}

func (m *AppointmentUsecase) BookSlot(ctx context.Context, patientID uuid.UUID, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	args := m.Called(ctx, patientID, req)
	resp, _ := args.Get(0).(*dto.AppointmentResponse)
	return resp, args.Error(1)
}

func (m *AppointmentUsecase) Cancel(ctx context.Context, patientID uuid.UUID, appointmentID uuid.UUID) error {
	args := m.Called(ctx, patientID, appointmentID)
	return args.Error(0)
}

func (m *AppointmentUsecase) ListForPatient(ctx context.Context, patientID uuid.UUID) (*dto.AppointmentListResponse, error) {
	args := m.Called(ctx, patientID)
	resp, _ := args.Get(0).(*dto.AppointmentListResponse)
	return resp, args.Error(1)
}

func (m *AppointmentUsecase) Complete(ctx context.Context, actorID uuid.UUID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	args := m.Called(ctx, actorID, appointmentID)
	resp, _ := args.Get(0).(*dto.AppointmentResponse)
	return resp, args.Error(1)
}
