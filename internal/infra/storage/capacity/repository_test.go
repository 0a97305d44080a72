package capacity

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/ptr"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*Repository, *dbmetrics.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	wrapped := dbmetrics.Wrap(db, nil)
	return NewRepository(wrapped), wrapped, mock
}

func recordRows(maxOrders, consumed int, disabled bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(capacityColumns).
		AddRow(int64(1), day, maxOrders, consumed, disabled, now, now)
}

func TestTryConsume_Success(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE slot_capacity SET consumed_orders = consumed_orders + $1, updated_at = NOW() "+
			"WHERE slot_id = $2 AND delivery_date = $3 AND consumed_orders + $4 <= max_orders AND is_manually_disabled = $5 RETURNING")).
		WithArgs(2, int64(1), "2025-03-10", 2, false).
		WillReturnRows(recordRows(10, 5, false))

	rec, err := repo.TryConsume(context.Background(), 1, day, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, rec.ConsumedOrders)
	assert.Equal(t, 5, rec.Available())
	assert.Equal(t, day, rec.DeliveryDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTryConsume_ConditionFailed(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE slot_capacity SET consumed_orders = consumed_orders + $1")).
		WithArgs(8, int64(1), "2025-03-10", 8, false).
		WillReturnRows(sqlmock.NewRows(capacityColumns))

	_, err := repo.TryConsume(context.Background(), 1, day, 8)
	assert.ErrorIs(t, err, ErrConditionFailed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTryConsume_DatabaseError(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery("UPDATE slot_capacity").WillReturnError(errors.New("connection reset"))

	_, err := repo.TryConsume(context.Background(), 1, day, 1)
	assert.ErrorIs(t, err, ErrExecQuery)
}

func TestRestore_ClampsAtZero(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE slot_capacity SET consumed_orders = GREATEST(consumed_orders - $1, 0), updated_at = NOW() WHERE slot_id = $2 AND delivery_date = $3 RETURNING")).
		WithArgs(3, int64(1), "2025-03-10").
		WillReturnRows(recordRows(10, 0, false))

	rec, err := repo.Restore(context.Background(), 1, day, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ConsumedOrders)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRestore_MissingRecord(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery("UPDATE slot_capacity").WillReturnRows(sqlmock.NewRows(capacityColumns))

	_, err := repo.Restore(context.Background(), 1, day, 3)
	assert.ErrorIs(t, err, ErrCapacityNotFound)
}

func TestEnsure_InsertsWithoutOverwriting(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO slot_capacity (slot_id,delivery_date,max_orders,consumed_orders,is_manually_disabled) VALUES ($1,$2,$3,$4,$5) ON CONFLICT (slot_id, delivery_date) DO NOTHING")).
		WithArgs(int64(1), "2025-03-10", 10, 0, false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Ensure(context.Background(), &domain.CapacityRecord{SlotID: 1, DeliveryDate: day, MaxOrders: 10})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUpdate_LocksInsideTransaction(t *testing.T) {
	repo, db, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM slot_capacity WHERE slot_id = $1 AND delivery_date = $2 FOR UPDATE")).
		WithArgs(int64(1), "2025-03-10").
		WillReturnRows(recordRows(10, 4, false))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	rec, err := repo.GetForUpdate(dbmetrics.WithTx(context.Background(), tx), 1, day)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.ConsumedOrders)

	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(`FROM slot_capacity WHERE slot_id = \$1 AND delivery_date = \$2$`).
		WithArgs(int64(1), "2025-03-10").
		WillReturnRows(sqlmock.NewRows(capacityColumns))

	_, err := repo.Get(context.Background(), 1, day)
	assert.ErrorIs(t, err, ErrCapacityNotFound)
}

func TestAdjust_RejectsMaxBelowConsumed(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE slot_capacity SET updated_at = NOW(), max_orders = $1 WHERE slot_id = $2 AND delivery_date = $3 AND consumed_orders <= $4 RETURNING")).
		WithArgs(3, int64(1), "2025-03-10", 3).
		WillReturnRows(sqlmock.NewRows(capacityColumns))

	_, err := repo.Adjust(context.Background(), 1, day, ptr.Ptr(3), nil)
	assert.ErrorIs(t, err, ErrConditionFailed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_DisableOnly(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE slot_capacity SET updated_at = NOW(), is_manually_disabled = $1 WHERE slot_id = $2 AND delivery_date = $3 RETURNING")).
		WithArgs(true, int64(1), "2025-03-10").
		WillReturnRows(recordRows(10, 4, true))

	rec, err := repo.Adjust(context.Background(), 1, day, nil, ptr.Ptr(true))
	require.NoError(t, err)
	assert.True(t, rec.IsManuallyDisabled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRange(t *testing.T) {
	repo, _, mock := newRepo(t)
	end := day.AddDate(0, 0, 2)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM slot_capacity WHERE delivery_date >= $1 AND delivery_date <= $2 ORDER BY delivery_date ASC, slot_id ASC")).
		WithArgs("2025-03-10", "2025-03-12").
		WillReturnRows(sqlmock.NewRows(capacityColumns).
			AddRow(int64(1), day, 10, 3, false, now, now).
			AddRow(int64(2), end, 5, 5, true, now, now))

	records, err := repo.GetRange(context.Background(), day, end)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[1].IsManuallyDisabled)
	assert.Equal(t, 0, records[1].Available())
	require.NoError(t, mock.ExpectationsWereMet())
}
