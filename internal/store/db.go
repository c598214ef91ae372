// Package store owns the single injected GORM handle every component's
// repository implementation shares, replacing the teacher's process-wide
// client-singleton pattern (§9 REDESIGN FLAGS) with construction at startup
// and an explicit shutdown that drains the pool.
package store

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vendorops.io/vmp/internal/domain"
)

// PoolConfig mirrors the production pool settings the teacher establishes
// for its own Postgres-backed logger (db/postgres.go PGInfo).
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxIdleConns: 10, MaxOpenConns: 100, ConnMaxLifetime: time.Hour}
}

// Open establishes the GORM handle and migrates every entity in
// SPEC_FULL.md §3. Migration runs once at startup; no module-level global
// is retained beyond this call's return value.
func Open(dsn string, pool PoolConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrapping sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := db.AutoMigrate(
		&domain.Tenant{},
		&domain.Company{},
		&domain.Vendor{},
		&domain.VendorCompanyLink{},
		&domain.User{},
		&domain.Session{},
		&domain.Case{},
		&domain.Message{},
		&domain.ChecklistStep{},
		&domain.Evidence{},
		&domain.Invoice{},
		&domain.SOALine{},
		&domain.SOAMatch{},
		&domain.SOAIssue{},
		&domain.Notification{},
	); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// Close drains the pool on graceful shutdown (§9: "a defined shutdown that
// drains connections").
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
