package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adjustCapacityHandler "github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers/adjust_capacity"
	getAvailabilityRangeHandler "github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers/get_availability_range"
	getCapacityEventsHandler "github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers/get_capacity_events"
	healthHandler "github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers/health"
	listSlotsHandler "github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers/list_slots"
	releaseSlotHandler "github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers/release_slot"
	reserveSlotHandler "github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers/reserve_slot"
	"github.com/m04kA/SMC-DeliverySlotService/internal/api/middleware"
	"github.com/m04kA/SMC-DeliverySlotService/internal/config"
	"github.com/m04kA/SMC-DeliverySlotService/internal/infra/broker"
	"github.com/m04kA/SMC-DeliverySlotService/internal/infra/notifier"
	slotsService "github.com/m04kA/SMC-DeliverySlotService/internal/service/slots"
	adjustCapacityUC "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/adjust_capacity"
	getAvailabilityRangeUC "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/get_availability_range"
	releaseSlotUC "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/release_slot"
	reserveSlotUC "github.com/m04kA/SMC-DeliverySlotService/internal/usecase/reserve_slot"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/gencache"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/logger"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/metrics"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	instanceID := uuid.NewString()
	log.Info("Starting SMC-DeliverySlotService (instance=%s, storage=%s)...", instanceID, cfg.Storage.Driver)

	// Бизнес-часовой пояс (валидирован в config.Load)
	location, _ := cfg.Booking.Location()
	clock := &reserveSlotUC.RealTimeProvider{Location: location}
	log.Info("Business timezone: %s", location)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище
	store, err := openStorage(cfg, metricsCollector, log, stopMetricsCh)
	if err != nil {
		log.Fatal("Failed to open storage: %v", err)
	}
	defer store.close()

	// Кэш доступности и его поколение
	generation := &gencache.Generation{}
	availabilityCache := gencache.New[*getAvailabilityRangeUC.Snapshot](cfg.Cache.TTLDuration(), generation)
	log.Info("Availability cache ttl=%s", cfg.Cache.TTLDuration())

	// Брокер: рассылка изменений емкости другим экземплярам
	ctx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	var publisher notifier.Publisher
	if cfg.Broker.Enabled {
		brokerPublisher := broker.NewPublisher(cfg.Broker.URL, cfg.Broker.Exchange, nil, log)
		if err := brokerPublisher.Connect(); err != nil {
			// соединение восстановится при первой публикации
			log.Warn("Broker is not reachable yet: %v", err)
		}
		defer brokerPublisher.Close()
		publisher = brokerPublisher

		subscriber := broker.NewSubscriber(cfg.Broker.URL, cfg.Broker.Exchange, instanceID, nil, log)
		go subscriber.Run(ctx, func(msg broker.CapacityChangedMessage) {
			generation.Bump()
		})
		log.Info("Broker enabled (exchange=%s)", cfg.Broker.Exchange)
	}

	capacityNotifier := notifier.New(generation, publisher, instanceID, metricsCollector, log)

	// Инициализируем сервисы
	slotsSvc := slotsService.NewService(store.slots, store.journal, log)

	// Инициализируем use cases
	reserveSlotUseCase := reserveSlotUC.NewUseCase(
		store.slots,
		store.capacity,
		store.reservations,
		store.journal,
		store.tx,
		capacityNotifier,
		metricsCollector,
		clock,
		log,
		reserveSlotUC.Options{
			MaxQuantity:    cfg.Booking.MaxQuantity,
			MaxAdvanceDays: cfg.Booking.MaxAdvanceDays,
		},
	)

	releaseSlotUseCase := releaseSlotUC.NewUseCase(
		store.capacity,
		store.reservations,
		store.journal,
		store.tx,
		capacityNotifier,
		metricsCollector,
		clock,
		log,
	)

	adjustCapacityUseCase := adjustCapacityUC.NewUseCase(
		store.slots,
		store.capacity,
		store.journal,
		store.tx,
		capacityNotifier,
		metricsCollector,
		clock,
		log,
	)

	getAvailabilityRangeUseCase := getAvailabilityRangeUC.NewUseCase(
		store.slots,
		store.capacity,
		store.tx,
		availabilityCache,
		metricsCollector,
		clock,
		log,
		getAvailabilityRangeUC.Options{MaxRangeDays: cfg.Availability.MaxRangeDays},
	)

	// Инициализируем handlers
	listSlots := listSlotsHandler.NewHandler(slotsSvc, log)
	getAvailabilityRange := getAvailabilityRangeHandler.NewHandler(getAvailabilityRangeUseCase, log)
	reserveSlot := reserveSlotHandler.NewHandler(reserveSlotUseCase, log)
	releaseSlot := releaseSlotHandler.NewHandler(releaseSlotUseCase, log)
	adjustCapacity := adjustCapacityHandler.NewHandler(adjustCapacityUseCase, log)
	getCapacityEvents := getCapacityEventsHandler.NewHandler(slotsSvc, log)
	healthCheck := healthHandler.NewHandler(store.pinger, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", healthCheck.Handle).Methods(http.MethodGet)

	// Витрина ходит без префикса, остальные клиенты через /api/v1
	for _, prefix := range []string{"/api/v1", ""} {
		api := r.PathPrefix(prefix).Subrouter()

		// ============================================================
		// PUBLIC ROUTES
		// ============================================================

		api.HandleFunc("/delivery-slots", listSlots.Handle).Methods(http.MethodGet)
		api.HandleFunc("/delivery-slots/availability/range", getAvailabilityRange.Handle).Methods(http.MethodGet)
		api.HandleFunc("/delivery-slots/availability/decrement", reserveSlot.Handle).Methods(http.MethodPost)
		api.HandleFunc("/delivery-slots/availability/increment", releaseSlot.Handle).Methods(http.MethodPost)

		// ============================================================
		// ADMIN ROUTES (требуют X-Admin-Token header)
		// ============================================================

		admin := api.PathPrefix("/delivery-slots/{slotId}/capacity/{date}").Subrouter()
		admin.Use(middleware.AdminToken(cfg.Server.AdminToken))

		admin.HandleFunc("", adjustCapacity.Handle).Methods(http.MethodPut)
		admin.HandleFunc("/events", getCapacityEvents.Handle).Methods(http.MethodGet)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем подписчика брокера и сбор метрик connection pool
	stopBackground()
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
