package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return NewGormStore(db), mock
}

func TestGormStoreFindUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.FindUser(context.Background(), 7)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreFindPlan(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "name", "title", "price_monthly", "price_quarterly", "price_yearly", "max_properties", "is_active"}).
		AddRow(3, "Pro", "pro", 999.0, 2499.0, 8999.0, 25, true)
	mock.ExpectQuery(`SELECT \* FROM "subscription_plans"`).WillReturnRows(rows)

	plan, err := store.FindPlan(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint(3), plan.ID)
	assert.Equal(t, 999.0, plan.Price.Monthly)
	assert.Equal(t, 25, plan.MaxProperties)
	assert.False(t, plan.IsFree())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreFindQuotaSourceEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "subscribed_plans" WHERE \(user_id = \$1 AND is_active = \$2 AND status = \$3`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	sub, err := store.FindQuotaSource(context.Background(), 1, time.Now())
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreTransactionLocksUser(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "subscribed_plans" SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	var superseded int64
	err := store.Transaction(context.Background(), func(tx Store) error {
		if err := tx.LockUser(context.Background(), 42); err != nil {
			return err
		}
		var err error
		superseded, err = tx.SupersedeSubscriptions(context.Background(), 42, 9)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), superseded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreTransactionRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.Transaction(context.Background(), func(tx Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreDeleteMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM "subscribed_plans"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteSubscription(context.Background(), 5)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreEmptyBatchesSkipQueries(t *testing.T) {
	store, mock := newMockStore(t)

	n, err := store.MarkExpired(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, store.SetUsersVerified(context.Background(), nil, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}
