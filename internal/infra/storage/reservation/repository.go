package reservation

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

const table = "slot_reservations"

var reservationColumns = []string{
	"reservation_id",
	"slot_id",
	"delivery_date",
	"quantity",
	"state",
	"remaining_after",
	"created_at",
	"released_at",
}

// Repository репозиторий записей идемпотентности резервирований
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория резервирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get получает резервирование по id
func (r *Repository) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(reservationColumns...).
		From(table).
		Where(squirrel.Eq{"reservation_id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan reservation: %v", ErrScanRow, err)
	}

	return res, nil
}

// Create записывает резервирование в состоянии reserved
// Если запись с таким id уже есть (гонка дублей), возвращает ErrReservationExists
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("reservation_id", "slot_id", "delivery_date", "quantity", "state", "remaining_after").
		Values(res.ID, res.SlotID, res.DeliveryDate.Format(domain.DateFormat), res.Quantity, string(domain.ReservationReserved), res.RemainingAfter).
		Suffix("ON CONFLICT (reservation_id) DO NOTHING RETURNING created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt time.Time
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrReservationExists
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	created := *res
	created.State = domain.ReservationReserved
	created.DeliveryDate = domain.DateOnly(res.DeliveryDate)
	created.CreatedAt = createdAt

	return &created, nil
}

// MarkReleased переводит резервирование reserved -> released
// Условие на состояние гарантирует, что переход выполнится ровно один раз
// при конкурентных отменах. Если строка не изменилась, возвращает ErrReservationNotReserved
func (r *Repository) MarkReleased(ctx context.Context, id string) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("state", string(domain.ReservationReleased)).
		Set("released_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"reservation_id": id}).
		Where(squirrel.Eq{"state": string(domain.ReservationReserved)}).
		Suffix("RETURNING " + strings.Join(reservationColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: MarkReleased - build update query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotReserved
	}
	if err != nil {
		return nil, fmt.Errorf("%w: MarkReleased - execute update: %v", ErrExecQuery, err)
	}

	return res, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var state string
	var createdAt, releasedAt sql.NullTime

	err := row.Scan(
		&res.ID,
		&res.SlotID,
		&res.DeliveryDate,
		&res.Quantity,
		&state,
		&res.RemainingAfter,
		&createdAt,
		&releasedAt,
	)
	if err != nil {
		return nil, err
	}

	res.State = domain.ReservationState(state)
	res.DeliveryDate = domain.DateOnly(res.DeliveryDate)
	res.CreatedAt = createdAt.Time
	if releasedAt.Valid {
		t := releasedAt.Time
		res.ReleasedAt = &t
	}

	return &res, nil
}
