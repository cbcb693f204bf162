// Package testing provides test utilities and database setup for LinkHub tests
package testing

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/amirphl/LinkHub/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// TestDB represents a test database instance
type TestDB struct {
	DB   *gorm.DB
	Name string
}

// SetupTestDB creates a fresh in-memory SQLite database with the LinkHub schema
func SetupTestDB() (*TestDB, error) {
	name := fmt.Sprintf("linkhub_test_%d_%d", time.Now().UnixNano(), dbCounter.Add(1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open test database %s: %w", name, err)
	}

	// One connection keeps the in-memory database alive and serializes transactions
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.AutoMigrate(&models.User{}, &models.Link{}, &models.Click{}, &models.AuditLog{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate test database %s: %w", name, err)
	}

	return &TestDB{DB: db, Name: name}, nil
}

// TeardownTestDB closes the connection, discarding the in-memory database
func (tdb *TestDB) TeardownTestDB() error {
	if tdb.DB == nil {
		return nil
	}
	sqlDB, err := tdb.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ClearAllTables removes all rows while preserving structure
func (tdb *TestDB) ClearAllTables() error {
	// Children first
	tables := []string{"clicks", "links", "audit_log", "users"}
	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	return nil
}

// TestWithDB runs fn against a fresh database and tears it down afterwards
func TestWithDB(fn func(*TestDB) error) error {
	testDB, err := SetupTestDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = testDB.TeardownTestDB()
	}()

	return fn(testDB)
}
