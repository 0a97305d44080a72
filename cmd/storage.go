package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers/health"
	"github.com/m04kA/SMC-DeliverySlotService/internal/config"
	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	capacityRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/capacity"
	journalRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/journal"
	"github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/memory"
	reservationRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-DeliverySlotService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/logger"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/metrics"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/txmanager"
)

type slotStore interface {
	GetByID(ctx context.Context, id int64) (*domain.SlotDefinition, error)
	GetActive(ctx context.Context) ([]*domain.SlotDefinition, error)
}

type capacityStore interface {
	Get(ctx context.Context, slotID int64, date time.Time) (*domain.CapacityRecord, error)
	GetForUpdate(ctx context.Context, slotID int64, date time.Time) (*domain.CapacityRecord, error)
	GetRange(ctx context.Context, start, end time.Time) ([]*domain.CapacityRecord, error)
	Ensure(ctx context.Context, rec *domain.CapacityRecord) error
	TryConsume(ctx context.Context, slotID int64, date time.Time, quantity int) (*domain.CapacityRecord, error)
	Restore(ctx context.Context, slotID int64, date time.Time, quantity int) (*domain.CapacityRecord, error)
	Adjust(ctx context.Context, slotID int64, date time.Time, maxOrders *int, disabled *bool) (*domain.CapacityRecord, error)
}

type reservationStore interface {
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	MarkReleased(ctx context.Context, id string) (*domain.Reservation, error)
}

type journalStore interface {
	Append(ctx context.Context, event *domain.CapacityEvent) error
	List(ctx context.Context, slotID int64, date time.Time, limit int) ([]*domain.CapacityEvent, error)
}

type txStore interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// storage репозитории и менеджер транзакций выбранного драйвера
type storage struct {
	slots        slotStore
	capacity     capacityStore
	reservations reservationStore
	journal      journalStore
	tx           txStore
	pinger       health.Pinger // nil для memory
	close        func()
}

// openStorage открывает хранилище по cfg.Storage.Driver
// recorder = nil, если метрики выключены
func openStorage(cfg *config.Config, recorder *metrics.Metrics, log *logger.Logger, stopCh <-chan struct{}) (*storage, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		store := memory.NewStore(cfg.Storage.SlotDefinitions())
		log.Info("Using in-memory storage with %d seeded slots", len(cfg.Storage.Seed))
		return &storage{
			slots:        store.Slots(),
			capacity:     store.Capacity(),
			reservations: store.Reservations(),
			journal:      store.Journal(),
			tx:           store,
			close:        func() {},
		}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	var wrapped *dbmetrics.DB
	if recorder != nil {
		wrapped = dbmetrics.WrapWithDefault(db, recorder, stopCh)
		log.Info("Database metrics collection started")
	} else {
		wrapped = dbmetrics.Wrap(db, nil)
	}

	return &storage{
		slots:        slotRepo.NewRepository(wrapped),
		capacity:     capacityRepo.NewRepository(wrapped),
		reservations: reservationRepo.NewRepository(wrapped),
		journal:      journalRepo.NewRepository(wrapped),
		tx:           txmanager.New(wrapped, log),
		pinger:       wrapped,
		close:        func() { db.Close() },
	}, nil
}
