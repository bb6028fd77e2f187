package client

import (
	"fmt"
	"time"

	"voyance-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitPostgresClient(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&model.Consultation{}); err != nil {
		return nil, fmt.Errorf("migrate consultations: %w", err)
	}

	return db, nil
}
