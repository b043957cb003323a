package store

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vidref-bot/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named in-memory database with a shared cache, unique per test, so
	// gorm's connection pool sees one database and tests stay isolated.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Video{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}
