package usecase

import (
	"context"
	"math"
	"strings"

	"find-my-doctor/internal/converter"
	"find-my-doctor/internal/delivery/dto"
	"find-my-doctor/internal/domain/entity"
	"find-my-doctor/internal/domain/repository"
	"find-my-doctor/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	minRating = decimal.NewFromInt(1)
	maxRating = decimal.NewFromInt(5)

	// fees is stored as DECIMAL(10,2)
	feesLimit = decimal.New(1, 8)
)

// maxSearchOffset bounds (page-1)*limit so the offset cannot overflow.
const maxSearchOffset = math.MaxInt32

type DoctorUsecase interface {
	Search(ctx context.Context, query *dto.DoctorSearchQuery) (*dto.DoctorListResponse, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error)
	CreateDoctor(ctx context.Context, actorID uuid.UUID, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	UpdateDoctor(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error)
	DeleteDoctor(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error
}

type doctorUsecase struct {
	log          *logrus.Logger
	doctorRepo   repository.DoctorRepository
	doctorCache  service.DoctorCache
	auditService service.AuditService
}

func NewDoctorUsecase(
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	doctorCache service.DoctorCache,
	auditService service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		log:          log,
		doctorRepo:   doctorRepo,
		doctorCache:  doctorCache,
		auditService: auditService,
	}
}

// Search returns doctors matching every filter that is set.
func (u *doctorUsecase) Search(ctx context.Context, query *dto.DoctorSearchQuery) (*dto.DoctorListResponse, error) {
	filter, err := buildDoctorFilter(query)
	if err != nil {
		return nil, err
	}

	doctors, total, err := u.doctorRepo.Search(ctx, filter)
	if err != nil {
		u.log.Warnf("Failed to search doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   total,
		Page:    query.Page,
		Limit:   filter.Limit,
	}, nil
}

func buildDoctorFilter(query *dto.DoctorSearchQuery) (*entity.DoctorFilter, error) {
	filter := &entity.DoctorFilter{
		Specialization:  strings.TrimSpace(query.Specialization),
		Location:        strings.TrimSpace(query.Location),
		Keyword:         strings.TrimSpace(query.Search),
		AvailableOnDate: strings.TrimSpace(query.Date),
	}

	minFee, err := parseFee(query.MinFees)
	if err != nil {
		return nil, err
	}
	maxFee, err := parseFee(query.MaxFees)
	if err != nil {
		return nil, err
	}
	if minFee != nil && maxFee != nil && minFee.GreaterThan(*maxFee) {
		return nil, ErrInvalidFeeRange
	}
	filter.MinFee = minFee
	filter.MaxFee = maxFee

	if query.Limit > 0 {
		if query.Page < 1 {
			query.Page = 1
		}
		if query.Page-1 > maxSearchOffset/query.Limit {
			return nil, ErrPageOutOfRange
		}
		filter.Limit = query.Limit
		filter.Offset = (query.Page - 1) * query.Limit
	}

	return filter, nil
}

func parseFee(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, ErrInvalidFeeFilter
	}
	return &fee, nil
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorCache.Get(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", id, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) CreateDoctor(ctx context.Context, actorID uuid.UUID, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	if req.Fees == nil {
		return nil, ErrFeesRequired
	}
	if err := checkFees(*req.Fees); err != nil {
		return nil, err
	}

	doctor := &entity.Doctor{
		Name:           strings.TrimSpace(req.Name),
		Specialization: strings.TrimSpace(req.Specialization),
		Location:       strings.TrimSpace(req.Location),
		Fees:           *req.Fees,
		Experience:     entity.DefaultExperience,
		About:          req.About,
		ImageURL:       req.ImageURL,
		ContactNumber:  req.ContactNumber,
		ClinicAddress:  req.ClinicAddress,
		RatingAverage:  entity.DefaultRatingAverage,
		Timings:        entity.Timings{Start: entity.DefaultTimingStart, End: entity.DefaultTimingEnd},
		AvailableSlots: converter.AvailabilityFromRequest(req.AvailableSlots),
	}
	if req.Experience != nil {
		doctor.Experience = *req.Experience
	}
	if req.RatingAverage != nil {
		if !validRating(*req.RatingAverage) {
			return nil, ErrInvalidRating
		}
		doctor.RatingAverage = *req.RatingAverage
	}
	if req.RatingCount != nil {
		doctor.RatingCount = *req.RatingCount
	}
	if req.Timings != nil {
		doctor.Timings = entity.Timings{Start: req.Timings.Start, End: req.Timings.End}
	}

	if err := u.doctorRepo.Create(ctx, doctor); err != nil {
		u.log.Warnf("Failed to create doctor: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, &actorID, entity.AuditActionDoctorCreate, "doctor", doctor.ID.String(), doctor); err != nil {
		u.log.Warnf("Failed to audit doctor create %s: %+v", doctor.ID, err)
	}

	return converter.DoctorToResponse(doctor), nil
}

// UpdateDoctor applies only the fields present in the request.
func (u *doctorUsecase) UpdateDoctor(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", id, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	old := *doctor

	if req.Name != nil {
		doctor.Name = strings.TrimSpace(*req.Name)
	}
	if req.Specialization != nil {
		doctor.Specialization = strings.TrimSpace(*req.Specialization)
	}
	if req.Location != nil {
		doctor.Location = strings.TrimSpace(*req.Location)
	}
	if req.Fees != nil {
		if err := checkFees(*req.Fees); err != nil {
			return nil, err
		}
		doctor.Fees = *req.Fees
	}
	if req.Experience != nil {
		doctor.Experience = *req.Experience
	}
	if req.About != nil {
		doctor.About = *req.About
	}
	if req.ImageURL != nil {
		doctor.ImageURL = *req.ImageURL
	}
	if req.ContactNumber != nil {
		doctor.ContactNumber = *req.ContactNumber
	}
	if req.ClinicAddress != nil {
		doctor.ClinicAddress = *req.ClinicAddress
	}
	if req.RatingAverage != nil {
		if !validRating(*req.RatingAverage) {
			return nil, ErrInvalidRating
		}
		doctor.RatingAverage = *req.RatingAverage
	}
	if req.RatingCount != nil {
		doctor.RatingCount = *req.RatingCount
	}
	if req.Timings != nil {
		doctor.Timings = entity.Timings{Start: req.Timings.Start, End: req.Timings.End}
	}
	if req.AvailableSlots != nil {
		doctor.AvailableSlots = converter.AvailabilityFromRequest(*req.AvailableSlots)
	}

	if err := u.doctorRepo.Update(ctx, doctor); err != nil {
		u.log.Warnf("Failed to update doctor %s: %+v", id, err)
		return nil, err
	}
	u.doctorCache.Invalidate(ctx, id)

	if err := u.auditService.LogUpdate(ctx, &actorID, entity.AuditActionDoctorUpdate, "doctor", id.String(), old, doctor); err != nil {
		u.log.Warnf("Failed to audit doctor update %s: %+v", id, err)
	}

	return converter.DoctorToResponse(doctor), nil
}

// DeleteDoctor removes the doctor. Appointments for the doctor are removed
// by the database cascade.
func (u *doctorUsecase) DeleteDoctor(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	rows, err := u.doctorRepo.Delete(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to delete doctor %s: %+v", id, err)
		return err
	}
	if rows == 0 {
		return ErrDoctorNotFound
	}
	u.doctorCache.Invalidate(ctx, id)

	if err := u.auditService.LogDelete(ctx, &actorID, entity.AuditActionDoctorDelete, "doctor", id.String(), nil); err != nil {
		u.log.Warnf("Failed to audit doctor delete %s: %+v", id, err)
	}

	return nil
}

// checkFees rejects values the fees column cannot hold after rounding to
// cents.
func checkFees(fees decimal.Decimal) error {
	if fees.IsNegative() {
		return ErrNegativeFees
	}
	if !fees.Round(2).LessThan(feesLimit) {
		return ErrFeesTooLarge
	}
	return nil
}

func validRating(r decimal.Decimal) bool {
	return !r.LessThan(minRating) && !r.GreaterThan(maxRating)
}
