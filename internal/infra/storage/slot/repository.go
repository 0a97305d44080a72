package slot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/psqlbuilder"
)

var slotColumns = []string{
	"id",
	"name",
	"start_time",
	"end_time",
	"is_active",
	"default_daily_capacity",
	"created_at",
	"updated_at",
}

// Repository доступ к шаблонам слотов (только чтение, записью владеет админка)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает определение слота по ID, включая неактивные
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.SlotDefinition, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("delivery_slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	def, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %v", ErrScanRow, err)
	}

	return def, nil
}

// GetActive возвращает активные слоты, отсортированные по времени начала
func (r *Repository) GetActive(ctx context.Context) ([]*domain.SlotDefinition, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("delivery_slots").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("start_time ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActive - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActive - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.SlotDefinition, 0)
	for rows.Next() {
		def, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetActive - scan slot: %v", ErrScanRow, err)
		}
		slots = append(slots, def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetActive - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.SlotDefinition, error) {
	var def domain.SlotDefinition
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&def.ID,
		&def.Name,
		&def.StartTime,
		&def.EndTime,
		&def.IsActive,
		&def.DefaultDailyCapacity,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	def.CreatedAt = createdAt.Time
	def.UpdatedAt = updatedAt.Time

	return &def, nil
}
