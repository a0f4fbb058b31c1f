package postgres

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func dialectorFor(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "file:") || strings.HasSuffix(dsn, ".db") || dsn == ":memory:" {
		return sqlite.Open(dsn)
	}
	return postgres.Open(dsn)
}

// Open connects to the configured store. DSNs starting with "file:" or
// ending in ".db" select SQLite, anything else is a Postgres DSN.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(dialectorFor(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates every table from the models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func MustInitDB(cfg *config.OrderConfig) *gorm.DB {
	db, err := Open(cfg.OrderDB.Dsn)
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	if cfg.OrderDB.MigrationsPath == "" || db.Dialector.Name() != "postgres" {
		if err := AutoMigrate(db); err != nil {
			log.Fatalf("failed to migrate db: %v\n", err.Error())
		}
	}

	return db
}
