package slot

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, name, start_time, end_time, is_active, default_daily_capacity, created_at, updated_at FROM delivery_slots WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(slotColumns).
			AddRow(int64(2), "Afternoon", "14:00:00", "16:00:00", true, 15, now, now))

	def, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Afternoon", def.Name)
	assert.Equal(t, "14:00", def.StartTime.String())
	assert.Equal(t, "16:00", def.EndTime.String())
	assert.Equal(t, 15, def.DefaultDailyCapacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`FROM delivery_slots WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(slotColumns))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestGetActive(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM delivery_slots WHERE is_active = \$1 ORDER BY start_time ASC, id ASC`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(slotColumns).
			AddRow(int64(1), "Morning", "08:00:00", "10:00:00", true, 20, now, now).
			AddRow(int64(3), "Evening", "18:00:00", "20:00:00", true, 10, now, now))

	slots, err := repo.GetActive(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, int64(1), slots[0].ID)
	assert.Equal(t, "18:00", slots[1].StartTime.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
