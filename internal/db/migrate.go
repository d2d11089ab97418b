package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/feedback-app/internal/config"
	"github.com/diewo77/feedback-app/internal/models"
	"github.com/sirupsen/logrus"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectAndMigrate opens the configured database and brings the schema up.
// Postgres gets a short retry loop (container startup); sqlite opens
// immediately. With MIGRATIONS=1 (postgres only) the SQL files under
// migrations/ run via golang-migrate, otherwise AutoMigrate covers dev use.
func ConnectAndMigrate(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN is empty, check the environment configuration")
	}

	logLevel := logger.Silent
	if config.ParseBool("DB_DEBUG", false) {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	switch cfg.Driver {
	case "postgres":
		dsn := NormalizeDSN(cfg.DatabaseDSN)
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), gormCfg)
			if err == nil {
				break
			}
			logrus.WithError(err).Warn("retrying DB connection")
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect database after retries: %w", err)
		}
		logrus.Infof("using postgres DSN %s", MaskDSN(dsn))
		if config.ParseBool("MIGRATIONS", false) {
			if err := runSQLMigrations(dsn); err != nil {
				return nil, fmt.Errorf("sql migrations failed: %w", err)
			}
		} else if err := autoMigrate(db); err != nil {
			return nil, err
		}
	default:
		db, err = gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := autoMigrate(db); err != nil {
			return nil, err
		}
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	if !db.Migrator().HasTable("users") {
		return nil, errors.New("missing table after migration: users")
	}

	// Seeding only when explicitly requested (development convenience).
	if config.ParseBool("DB_SEED", false) {
		seed(db)
	}
	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("automigrate users: %w", err)
	}
	return nil
}

func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", ToURLDSN(dsn))
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// seed inserts a couple of dev accounts, idempotently by username.
func seed(db *gorm.DB) {
	devUsers := []models.User{
		{Username: "alice", Email: "alice@example.com", FullName: "Alice Martin", Role: models.RoleAdmin, Enabled: true, Password: "pwd1234"},
		{Username: "bob", Email: "bob@example.com", FullName: "Bob Dupont", Role: models.RoleUser, Enabled: true, Password: "pwd1234"},
	}
	for _, u := range devUsers {
		var existing models.User
		if err := db.Where("username = ?", u.Username).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			db.Create(&u)
		}
	}
}
