package repository

import (
	"testing"

	"find-my-doctor/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRunDB builds statements without connecting to a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test password=test dbname=test port=5432 sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func buildSearch(t *testing.T, filter *entity.DoctorFilter) (string, []interface{}) {
	t.Helper()
	var doctors []entity.Doctor
	stmt := applyDoctorFilter(dryRunDB(t).Model(&entity.Doctor{}), filter).Find(&doctors).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestApplyDoctorFilterFeeRangeIsInclusive(t *testing.T) {
	minFee := decimal.NewFromInt(100)
	maxFee := decimal.NewFromInt(200)

	sql, vars := buildSearch(t, &entity.DoctorFilter{MinFee: &minFee, MaxFee: &maxFee})

	assert.Contains(t, sql, "fees >= $1")
	assert.Contains(t, sql, "fees <= $2")
	require.Len(t, vars, 2)
	assert.True(t, minFee.Equal(vars[0].(decimal.Decimal)))
	assert.True(t, maxFee.Equal(vars[1].(decimal.Decimal)))
}

func TestApplyDoctorFilterTextMatching(t *testing.T) {
	sql, vars := buildSearch(t, &entity.DoctorFilter{
		Specialization: "Cardio",
		Location:       "delhi",
		Keyword:        "50%_off",
	})

	assert.Contains(t, sql, "specialization ILIKE $1")
	assert.Contains(t, sql, "location ILIKE $2")
	assert.Contains(t, sql, "(name ILIKE $3 OR specialization ILIKE $4 OR location ILIKE $5)")
	assert.Equal(t, []interface{}{"%Cardio%", "%delhi%", `%50\%\_off%`, `%50\%\_off%`, `%50\%\_off%`}, vars)
}

func TestApplyDoctorFilterAvailableOnDate(t *testing.T) {
	sql, vars := buildSearch(t, &entity.DoctorFilter{AvailableOnDate: "2024-06-01"})

	assert.Contains(t, sql, "available_slots @> $1::jsonb")
	assert.Equal(t, []interface{}{`[{"date":"2024-06-01"}]`}, vars)
}

func TestApplyDoctorFilterEmptyFilterHasNoConditions(t *testing.T) {
	sql, vars := buildSearch(t, &entity.DoctorFilter{})

	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, vars)
}
