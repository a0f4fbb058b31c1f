package setup

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	publisher "github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config         *config.OrderConfig
	DB             *gorm.DB
	Logger         *slog.Logger
	Registry       *prometheus.Registry
	KafkaPublisher *publisher.DefaultKafkaPublisher
	EventPublisher domain.OrderEventPublisher
	Dispatcher     domain.MessageDispatcher
	DeliveryLog    logger.DeliveryLogger
	Repositories   *Repositories
}

type Repositories struct {
	OrderRepo    domain.OrderRepository
	HistoryRepo  domain.HistoryRepository
	SequenceRepo domain.SequenceRepository
	JobRepo      domain.NotificationJobRepository
}

func InitializeDependencies(cfg *config.OrderConfig) (*Dependencies, error) {
	appLogger, err := logger.New(cfg.LogConfig)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	slog.SetDefault(appLogger)

	db := postgres.MustInitDB(cfg)
	if cfg.OrderDB.MigrationsPath != "" && db.Dialector.Name() == "postgres" {
		if err := migrate.RunMigrations(db, cfg.OrderDB.MigrationsPath, appLogger); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := &Dependencies{
		Config:      cfg,
		DB:          db,
		Logger:      appLogger,
		Registry:    reg,
		DeliveryLog: logger.NewPGDeliveryLogger(db),
		Repositories: &Repositories{
			OrderRepo:    repository.NewDefaultOrderRepository(db),
			HistoryRepo:  repository.NewDefaultHistoryRepository(db),
			SequenceRepo: repository.NewDefaultSequenceRepository(db),
			JobRepo:      repository.NewDefaultNotificationJobRepository(db),
		},
	}

	if err := initPublishers(deps); err != nil {
		return nil, err
	}
	return deps, nil
}

// initPublishers wires Kafka when enabled; otherwise events are dropped and
// notification handoffs are only logged.
func initPublishers(deps *Dependencies) error {
	kcfg := deps.Config.KafkaService
	if !kcfg.Enabled {
		deps.EventPublisher = publisher.NopEventPublisher{}
		deps.Dispatcher = publisher.NewLogDispatcher(deps.Logger)
		deps.Logger.Warn("kafka disabled, notifications are logged only")
		return nil
	}

	pub, err := publisher.NewDefaultKafkaPublisher(publisher.KafkaConfig{
		Brokers:    kcfg.Brokers(),
		Username:   kcfg.Username,
		Password:   kcfg.Password,
		Mechanism:  kcfg.Mechanism,
		TLSEnabled: kcfg.TLSEnabled,
	})
	if err != nil {
		return fmt.Errorf("kafka publisher: %w", err)
	}
	deps.KafkaPublisher = pub
	deps.EventPublisher = publisher.NewOrderEventPublisher(pub, kcfg.OrderTopic)
	deps.Dispatcher = publisher.NewKafkaDispatcher(pub, kcfg.NotificationTopic)
	return nil
}

// Close releases the broker connection and the database pool.
func (d *Dependencies) Close() {
	if d.KafkaPublisher != nil {
		if err := d.KafkaPublisher.Close(); err != nil {
			d.Logger.Error("failed to close kafka publisher", "error", err)
		}
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
