package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"find-my-doctor/internal/converter"
	"find-my-doctor/internal/delivery/dto"
	"find-my-doctor/internal/domain/entity"
	"find-my-doctor/internal/domain/repository"
	"find-my-doctor/internal/service"
	"find-my-doctor/pkg/apperror"
	"find-my-doctor/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type AuthUsecase interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	// Authenticate resolves a bearer token to the user it was issued for.
	Authenticate(ctx context.Context, token string) (*entity.User, *jwt.Claims, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	PromoteToAdmin(ctx context.Context, email string) error
}

type authUsecase struct {
	log          *logrus.Logger
	userRepo     repository.UserRepository
	jwtService   *jwt.JWTService
	tokenStore   service.TokenStore
	auditService service.AuditService
	now          func() time.Time

	comparePassword func(hash, password []byte) error
}

func NewAuthUsecase(
	log *logrus.Logger,
	userRepo repository.UserRepository,
	jwtService *jwt.JWTService,
	tokenStore service.TokenStore,
	auditService service.AuditService,
) AuthUsecase {
	return &authUsecase{
		log:          log,
		userRepo:     userRepo,
		jwtService:   jwtService,
		tokenStore:   tokenStore,
		auditService: auditService,
		now:          time.Now,

		comparePassword: bcrypt.CompareHashAndPassword,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// dummyPasswordHash is compared against when the email is unknown, so both
// login failures cost one bcrypt comparison.
func dummyPasswordHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("find-my-doctor:no-such-user"), bcrypt.DefaultCost)
	})
	return dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *authUsecase) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	existing, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		u.log.Warnf("Failed to look up user by email: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		Name:        strings.TrimSpace(req.Name),
		Email:       email,
		Password:    string(hashedPassword),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Gender:      req.Gender,
		Age:         req.Age,
		Role:        entity.RolePatient,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		// a concurrent registration can win between the lookup and the insert
		if isDuplicateKeyError(err, constraintUserEmail) {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}

	u.audit(ctx, &user.ID, entity.AuditActionUserRegister, user.ID.String())

	return u.issueToken(user)
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		u.log.Warnf("Failed to look up user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		_ = u.comparePassword(dummyPasswordHash(), []byte(req.Password))
		return nil, ErrInvalidCredentials
	}

	if err := u.comparePassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	u.audit(ctx, &user.ID, entity.AuditActionUserLogin, user.ID.String())

	return u.issueToken(user)
}

func (u *authUsecase) issueToken(user *entity.User) (*dto.AuthResponse, error) {
	token, _, err := u.jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		u.log.Warnf("Failed to generate token: %+v", err)
		return nil, err
	}

	return &dto.AuthResponse{
		Token:     token,
		ExpiresIn: int64(u.jwtService.GetExpiry().Seconds()),
		User:      converter.UserToResponse(user),
	}, nil
}

func (u *authUsecase) Authenticate(ctx context.Context, token string) (*entity.User, *jwt.Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil, ErrInvalidToken
	}

	claims, err := u.jwtService.ValidateToken(token)
	if err != nil {
		return nil, nil, apperror.Wrap(ErrInvalidToken, err)
	}

	if id := claims.TokenID(); id != "" {
		revoked, err := u.tokenStore.IsRevoked(ctx, id)
		if err != nil {
			u.log.Warnf("Failed to check token revocation: %+v", err)
			return nil, nil, err
		}
		if revoked {
			return nil, nil, ErrInvalidToken
		}
	}

	user, err := u.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user %s: %+v", claims.UserID, err)
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidToken
	}

	return user, claims, nil
}

// Logout revokes the token until it would have expired on its own.
func (u *authUsecase) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil || claims.TokenID() == "" {
		return ErrInvalidToken
	}

	ttl := u.jwtService.GetExpiry()
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(u.now())
	}

	if err := u.tokenStore.Revoke(ctx, claims.TokenID(), ttl); err != nil {
		u.log.Warnf("Failed to revoke token: %+v", err)
		return err
	}

	u.audit(ctx, &claims.UserID, entity.AuditActionUserLogout, claims.UserID.String())
	return nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user %s: %+v", userID, err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) PromoteToAdmin(ctx context.Context, email string) error {
	user, err := u.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsAdmin() {
		return nil
	}

	rows, err := u.userRepo.UpdateRole(ctx, user.ID, entity.RoleAdmin)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	if err := u.auditService.LogUpdate(ctx, nil, entity.AuditActionUserPromote, "user", user.ID.String(),
		map[string]string{"role": user.Role}, map[string]string{"role": entity.RoleAdmin}); err != nil {
		u.log.Warnf("Failed to audit promotion of %s: %+v", user.ID, err)
	}
	return nil
}

// audit records an identity event. Audit failures never fail the request.
func (u *authUsecase) audit(ctx context.Context, userID *uuid.UUID, action, entityID string) {
	if err := u.auditService.LogCreate(ctx, userID, action, "user", entityID, nil); err != nil && !errors.Is(err, context.Canceled) {
		u.log.Warnf("Failed to audit %s: %+v", action, err)
	}
}
