package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/m04kA/SMC-DeliverySlotService/internal/domain"
	"github.com/m04kA/SMC-DeliverySlotService/pkg/types"
)

// ErrInvalidConfig возвращается, если конфигурация не прошла валидацию
var ErrInvalidConfig = errors.New("config: invalid configuration")

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config конфигурация сервиса
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Logs         LogsConfig         `toml:"logs"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Storage      StorageConfig      `toml:"storage"`
	Booking      BookingConfig      `toml:"booking"`
	Availability AvailabilityConfig `toml:"availability"`
	Cache        CacheConfig        `toml:"cache"`
	Broker       BrokerConfig       `toml:"broker"`
}

type ServerConfig struct {
	HTTPPort        int    `toml:"http_port"`
	ReadTimeout     int    `toml:"read_timeout"`     // секунды
	WriteTimeout    int    `toml:"write_timeout"`    // секунды
	IdleTimeout     int    `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int    `toml:"shutdown_timeout"` // секунды
	AdminToken      string `toml:"admin_token"`      // пустой токен закрывает админские ручки
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// StorageConfig выбор хранилища: postgres (по умолчанию) или memory для локальной разработки
type StorageConfig struct {
	Driver string     `toml:"driver"`
	Seed   []SeedSlot `toml:"seed"`
}

// SeedSlot определение слота, которым наполняется memory-хранилище при старте
type SeedSlot struct {
	ID                   int64  `toml:"id"`
	Name                 string `toml:"name"`
	StartTime            string `toml:"start_time"`
	EndTime              string `toml:"end_time"`
	IsActive             bool   `toml:"is_active"`
	DefaultDailyCapacity int    `toml:"default_daily_capacity"`
}

type BookingConfig struct {
	Timezone       string `toml:"timezone"`
	MaxQuantity    int    `toml:"max_quantity"`
	MaxAdvanceDays int    `toml:"max_advance_days"` // 0 = без ограничений
}

// Location бизнес-часовой пояс, в котором считаются календарные даты и отсечка
func (b BookingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(b.Timezone)
}

type AvailabilityConfig struct {
	MaxRangeDays int `toml:"max_range_days"`
}

type CacheConfig struct {
	TTL string `toml:"ttl"` // "2s", "500ms"; "0s" отключает кэш
}

// TTLDuration время жизни записи кэша доступности
func (c CacheConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0
	}
	return d
}

type BrokerConfig struct {
	Enabled  bool   `toml:"enabled"`
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
}

// Load читает TOML-файл, подмешивает .env и переменные окружения, проставляет
// значения по умолчанию и валидирует результат
func Load(path string) (*Config, error) {
	// .env необязателен, в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		path = envPath
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv секреты и адреса окружения перекрывают значения из файла
func applyEnv(cfg *Config) {
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		cfg.Broker.URL = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}
	if cfg.Logs.Level == "" {
		cfg.Logs.Level = "info"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.ServiceName == "" {
		cfg.Metrics.ServiceName = "delivery-slot-service"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverPostgres
	}
	if cfg.Booking.Timezone == "" {
		cfg.Booking.Timezone = domain.DefaultBusinessTimezone
	}
	if cfg.Booking.MaxQuantity == 0 {
		cfg.Booking.MaxQuantity = domain.DefaultMaxQuantity
	}
	if cfg.Availability.MaxRangeDays == 0 {
		cfg.Availability.MaxRangeDays = domain.DefaultMaxRangeDays
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "2s"
	}
	if cfg.Broker.Exchange == "" {
		cfg.Broker.Exchange = "delivery_slots"
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("%w: database host and dbname are required for postgres storage", ErrInvalidConfig)
		}
	case DriverMemory:
		for _, s := range c.Storage.Seed {
			if err := s.validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("%w: booking.timezone %q: %v", ErrInvalidConfig, c.Booking.Timezone, err)
	}
	if c.Booking.MaxQuantity < 1 {
		return fmt.Errorf("%w: booking.max_quantity must be positive", ErrInvalidConfig)
	}
	if c.Booking.MaxAdvanceDays < 0 {
		return fmt.Errorf("%w: booking.max_advance_days must not be negative", ErrInvalidConfig)
	}
	if c.Availability.MaxRangeDays < 1 || c.Availability.MaxRangeDays > domain.MaxRangeDaysLimit {
		return fmt.Errorf("%w: availability.max_range_days must be in [1, %d]", ErrInvalidConfig, domain.MaxRangeDaysLimit)
	}
	if d, err := time.ParseDuration(c.Cache.TTL); err != nil || d < 0 {
		return fmt.Errorf("%w: cache.ttl %q must be a non-negative duration", ErrInvalidConfig, c.Cache.TTL)
	}
	if c.Broker.Enabled && c.Broker.URL == "" {
		return fmt.Errorf("%w: broker.url (or RABBITMQ_URL) is required when broker is enabled", ErrInvalidConfig)
	}

	return nil
}

func (s SeedSlot) validate() error {
	if s.ID <= 0 {
		return fmt.Errorf("%w: seed slot id must be positive", ErrInvalidConfig)
	}
	if s.DefaultDailyCapacity < 1 {
		return fmt.Errorf("%w: seed slot %d: default_daily_capacity must be positive", ErrInvalidConfig, s.ID)
	}
	start, err := types.NewTimeStringFromString(s.StartTime)
	if err != nil {
		return fmt.Errorf("%w: seed slot %d: %v", ErrInvalidConfig, s.ID, err)
	}
	end, err := types.NewTimeStringFromString(s.EndTime)
	if err != nil {
		return fmt.Errorf("%w: seed slot %d: %v", ErrInvalidConfig, s.ID, err)
	}
	if !start.IsBefore(end) {
		return fmt.Errorf("%w: seed slot %d: start_time must be before end_time", ErrInvalidConfig, s.ID)
	}
	return nil
}

// SlotDefinitions seed-слоты в виде доменных моделей
func (s StorageConfig) SlotDefinitions() []domain.SlotDefinition {
	defs := make([]domain.SlotDefinition, 0, len(s.Seed))
	for _, seed := range s.Seed {
		start, _ := types.NewTimeStringFromString(seed.StartTime)
		end, _ := types.NewTimeStringFromString(seed.EndTime)
		defs = append(defs, domain.SlotDefinition{
			ID:                   seed.ID,
			Name:                 seed.Name,
			StartTime:            start,
			EndTime:              end,
			IsActive:             seed.IsActive,
			DefaultDailyCapacity: seed.DefaultDailyCapacity,
		})
	}
	return defs
}
