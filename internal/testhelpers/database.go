// Package testhelpers provides shared fixtures for service and handler
// tests: an isolated sqlite database with the full schema and an in-process
// Redis server.
package testhelpers

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chefscript/backend/internal/models"
)

// SetupTestDatabase opens a fresh sqlite database with the schema migrated.
func SetupTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Style{},
		&models.Template{},
		&models.TokenPurchase{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// SetupTestRedis starts an in-process Redis server and returns a client
// bound to it. Both are torn down with the test.
func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// CreateTestUser inserts a user with the given token balance and returns it.
func CreateTestUser(t *testing.T, db *gorm.DB, tokens int) *models.User {
	t.Helper()

	tmp := t.TempDir()
	user := &models.User{
		Name:         "Test User",
		Email:        "test-" + filepath.Base(filepath.Dir(tmp)) + "-" + filepath.Base(tmp) + "@example.com",
		PasswordHash: "not-a-real-hash",
		Tokens:       tokens,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}
