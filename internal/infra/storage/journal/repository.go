package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/psqlbuilder"
)

const table = "slot_capacity_events"

var eventColumns = []string{
	"id",
	"slot_id",
	"delivery_date",
	"reservation_id",
	"kind",
	"quantity",
	"consumed_after",
	"max_after",
	"occurred_at",
}

// Repository append-only журнал переходов емкости
// Пишется в той же транзакции, что и переход, который он фиксирует
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория журнала
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Append добавляет событие; пустые ID и OccurredAt заполняются
func (r *Repository) Append(ctx context.Context, event *domain.CapacityEvent) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	query, args, err := psqlbuilder.Insert(table).
		Columns(eventColumns...).
		Values(
			event.ID,
			event.SlotID,
			event.DeliveryDate.Format(domain.DateFormat),
			event.ReservationID,
			string(event.Kind),
			event.Quantity,
			event.ConsumedAfter,
			event.MaxAfter,
			event.OccurredAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Append - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Append - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// List возвращает последние события пары (слот, дата), новые первыми
// limit <= 0 означает без ограничения
func (r *Repository) List(ctx context.Context, slotID int64, date time.Time, limit int) ([]*domain.CapacityEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(eventColumns...).
		From(table).
		Where(squirrel.Eq{"slot_id": slotID}).
		Where(squirrel.Eq{"delivery_date": date.Format(domain.DateFormat)}).
		OrderBy("occurred_at DESC", "id DESC")

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(uint64(limit))
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	events := make([]*domain.CapacityEvent, 0)
	for rows.Next() {
		var event domain.CapacityEvent
		var kind string
		var reservationID sql.NullString

		if err := rows.Scan(
			&event.ID,
			&event.SlotID,
			&event.DeliveryDate,
			&reservationID,
			&kind,
			&event.Quantity,
			&event.ConsumedAfter,
			&event.MaxAfter,
			&event.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("%w: List - scan event: %v", ErrScanRow, err)
		}

		event.Kind = domain.EventKind(kind)
		event.DeliveryDate = domain.DateOnly(event.DeliveryDate)
		if reservationID.Valid {
			id := reservationID.String
			event.ReservationID = &id
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}

	return events, nil
}
