package utils

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CreateTempDB creates an in-memory sqlite database with the full schema
// migrated. Each call returns an isolated database, so tests never interfere
// with each other. The connection is closed with the test.
func CreateTempDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal("cannot open in-memory DB:", err)
	}
	// With cache=private every pooled connection would open its own empty
	// database, so keep the pool at a single connection.
	if conn, err := db.DB(); err == nil {
		conn.SetMaxOpenConns(1)
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		t.Fatal("fail to migrate in-memory DB:", err)
	}
	t.Cleanup(func() {
		conn, _ := db.DB()
		conn.Close()
	})
	return db
}
