package capacity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/psqlbuilder"
)

const table = "slot_capacity"

var capacityColumns = []string{
	"slot_id",
	"delivery_date",
	"max_orders",
	"consumed_orders",
	"is_manually_disabled",
	"created_at",
	"updated_at",
}

var returningClause = "RETURNING " + strings.Join(capacityColumns, ", ")

// Repository репозиторий журнала емкости (slot, date)
// Все изменения выполняются одним условным UPDATE, инвариант
// 0 <= consumed_orders <= max_orders дополнительно держит CHECK в схеме
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория емкости
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get читает запись емкости на дату
func (r *Repository) Get(ctx context.Context, slotID int64, date time.Time) (*domain.CapacityRecord, error) {
	return r.get(ctx, "Get", slotID, date, false)
}

// GetForUpdate читает запись и блокирует строку до конца транзакции
// Вне транзакции работает как Get
func (r *Repository) GetForUpdate(ctx context.Context, slotID int64, date time.Time) (*domain.CapacityRecord, error) {
	return r.get(ctx, "GetForUpdate", slotID, date, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) get(ctx context.Context, op string, slotID int64, date time.Time, lock bool) (*domain.CapacityRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(capacityColumns...).
		From(table).
		Where(squirrel.Eq{"slot_id": slotID}).
		Where(squirrel.Eq{"delivery_date": formatDate(date)})

	if lock {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rec, err := scanRecord(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrCapacityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan record: %v", ErrScanRow, op, err)
	}

	return rec, nil
}

// GetRange читает все существующие записи на отрезок дат одним запросом
func (r *Repository) GetRange(ctx context.Context, start, end time.Time) ([]*domain.CapacityRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(capacityColumns...).
		From(table).
		Where(squirrel.GtOrEq{"delivery_date": formatDate(start)}).
		Where(squirrel.LtOrEq{"delivery_date": formatDate(end)}).
		OrderBy("delivery_date ASC", "slot_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetRange - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	records := make([]*domain.CapacityRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetRange - scan record: %v", ErrScanRow, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetRange - rows error: %v", ErrScanRow, err)
	}

	return records, nil
}

// Ensure создает запись с нулевым списанием, если её еще нет
// Существующая запись не меняется
func (r *Repository) Ensure(ctx context.Context, rec *domain.CapacityRecord) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("slot_id", "delivery_date", "max_orders", "consumed_orders", "is_manually_disabled").
		Values(rec.SlotID, formatDate(rec.DeliveryDate), rec.MaxOrders, 0, false).
		Suffix("ON CONFLICT (slot_id, delivery_date) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Ensure - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Ensure - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// TryConsume атомарно списывает quantity, только если после списания
// consumed_orders не превысит max_orders и слот не отключен вручную
// Возвращает ErrConditionFailed, если условие не выполнилось или строки нет
func (r *Repository) TryConsume(ctx context.Context, slotID int64, date time.Time, quantity int) (*domain.CapacityRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("consumed_orders", squirrel.Expr("consumed_orders + ?", quantity)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"slot_id": slotID}).
		Where(squirrel.Eq{"delivery_date": formatDate(date)}).
		Where("consumed_orders + ? <= max_orders", quantity).
		Where(squirrel.Eq{"is_manually_disabled": false}).
		Suffix(returningClause).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: TryConsume - build update query: %v", ErrBuildQuery, err)
	}

	rec, err := scanRecord(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrConditionFailed
	}
	if err != nil {
		return nil, fmt.Errorf("%w: TryConsume - execute update: %v", ErrExecQuery, err)
	}

	return rec, nil
}

// Restore возвращает quantity в емкость с ограничением снизу нулем
func (r *Repository) Restore(ctx context.Context, slotID int64, date time.Time, quantity int) (*domain.CapacityRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("consumed_orders", squirrel.Expr("GREATEST(consumed_orders - ?, 0)", quantity)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"slot_id": slotID}).
		Where(squirrel.Eq{"delivery_date": formatDate(date)}).
		Suffix(returningClause).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Restore - build update query: %v", ErrBuildQuery, err)
	}

	rec, err := scanRecord(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrCapacityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Restore - execute update: %v", ErrExecQuery, err)
	}

	return rec, nil
}

// Adjust меняет максимум и/или флаг ручного отключения
// Новый максимум применяется, только если он не меньше уже списанного
func (r *Repository) Adjust(ctx context.Context, slotID int64, date time.Time, maxOrders *int, disabled *bool) (*domain.CapacityRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update(table).
		Set("updated_at", squirrel.Expr("NOW()"))

	if maxOrders != nil {
		updateBuilder = updateBuilder.Set("max_orders", *maxOrders)
	}
	if disabled != nil {
		updateBuilder = updateBuilder.Set("is_manually_disabled", *disabled)
	}

	updateBuilder = updateBuilder.
		Where(squirrel.Eq{"slot_id": slotID}).
		Where(squirrel.Eq{"delivery_date": formatDate(date)})

	if maxOrders != nil {
		updateBuilder = updateBuilder.Where("consumed_orders <= ?", *maxOrders)
	}

	query, args, err := updateBuilder.Suffix(returningClause).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Adjust - build update query: %v", ErrBuildQuery, err)
	}

	rec, err := scanRecord(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrConditionFailed
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Adjust - execute update: %v", ErrExecQuery, err)
	}

	return rec, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*domain.CapacityRecord, error) {
	var rec domain.CapacityRecord
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&rec.SlotID,
		&rec.DeliveryDate,
		&rec.MaxOrders,
		&rec.ConsumedOrders,
		&rec.IsManuallyDisabled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.DeliveryDate = domain.DateOnly(rec.DeliveryDate)
	rec.CreatedAt = createdAt.Time
	rec.UpdatedAt = updatedAt.Time

	return &rec, nil
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateFormat)
}
