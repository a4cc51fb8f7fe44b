package seed

import (
	"testing"

	"estatelink_backend/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestDefaultPlansHaveOneFreePlan(t *testing.T) {
	free := 0
	for _, p := range DefaultPlans {
		assert.True(t, p.IsActive, p.Title)
		assert.Positive(t, p.MaxProperties, p.Title)
		if p.IsFree() {
			free++
		}
	}
	assert.Equal(t, 1, free)
}

func TestSeedSubscriptionPlansSkipsExisting(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "subscription_plans" WHERE "subscription_plans"."title" = \$1`).
		WithArgs("free", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(1, "free"))

	err = SeedSubscriptionPlans(db, []model.SubscriptionPlan{DefaultPlans[0]})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
