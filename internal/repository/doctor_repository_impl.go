package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"find-my-doctor/internal/domain/entity"
	domainRepo "find-my-doctor/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) domainRepo.DoctorRepository {
	return &doctorRepository{db: db}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *entity.Doctor) error {
	return r.db.WithContext(ctx).Create(doctor).Error
}

func (r *doctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	var doctor entity.Doctor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

// Search returns doctors matching every set filter field along with the
// total match count before pagination.
func (r *doctorRepository) Search(ctx context.Context, filter *entity.DoctorFilter) ([]entity.Doctor, int64, error) {
	query := applyDoctorFilter(r.db.WithContext(ctx).Model(&entity.Doctor{}), filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter != nil && filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var doctors []entity.Doctor
	if err := query.Find(&doctors).Error; err != nil {
		return nil, 0, err
	}
	return doctors, total, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *entity.Doctor) error {
	return r.db.WithContext(ctx).Save(doctor).Error
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Doctor{})
	return result.RowsAffected, result.Error
}

func applyDoctorFilter(query *gorm.DB, filter *entity.DoctorFilter) *gorm.DB {
	if filter == nil {
		return query
	}

	if filter.Specialization != "" {
		query = query.Where("specialization ILIKE ?", likePattern(filter.Specialization))
	}
	if filter.Location != "" {
		query = query.Where("location ILIKE ?", likePattern(filter.Location))
	}
	if filter.Keyword != "" {
		pattern := likePattern(filter.Keyword)
		query = query.Where("(name ILIKE ? OR specialization ILIKE ? OR location ILIKE ?)", pattern, pattern, pattern)
	}
	if filter.MinFee != nil {
		query = query.Where("fees >= ?", *filter.MinFee)
	}
	if filter.MaxFee != nil {
		query = query.Where("fees <= ?", *filter.MaxFee)
	}
	if filter.AvailableOnDate != "" {
		query = query.Where("available_slots @> ?::jsonb", availabilityContains(filter.AvailableOnDate))
	}
	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring pattern that treats the input literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func availabilityContains(date string) string {
	b, _ := json.Marshal([]map[string]string{{"date": date}})
	return string(b)
}
