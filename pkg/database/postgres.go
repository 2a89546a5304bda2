package database

import (
	"fmt"
	"log"
	"time"

	"gebeya-market/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// gormConfig builds the gorm settings for the given app mode. TranslateError
// must stay on so the driver's unique-constraint violations surface as
// gorm.ErrDuplicatedKey, which the repositories map to ErrAlreadyExists.
func gormConfig(appMode string) *gorm.Config {
	logMode := logger.Warn
	if appMode != "release" {
		logMode = logger.Info
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
	}
}

func Connect(cfg *config.Config) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), gormConfig(cfg.AppMode))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("Failed to get generic database object: %v", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established")
}

func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
