package database

import (
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/totegamma/guardiansos/internal/infra/database/models"
)

func NewPostgres(dsn string) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             300 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,            // Log level
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,                   // Enable color
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(32)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

func MigratePostgres(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Connection{},
		&models.EmergencyContact{},
		&models.Incident{},
		&models.IncidentLocation{},
		&models.Evidence{},
	)
	if err != nil {
		return err
	}

	// at most one active incident per owner
	err = db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS incidents_owner_active ON incidents (owner) WHERE is_active").Error
	if err != nil {
		return errors.Wrap(err, "create incidents_owner_active")
	}
	return nil
}
