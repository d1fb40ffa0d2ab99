package database

import (
	"strings"

	"papertrade-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Open opens a GORM DB. postgres:// and postgresql:// DSNs go to Postgres;
// anything else is a SQLite file path (local development fallback).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers.
func Open(dsn string) (*gorm.DB, error) {
	if isPostgres(dsn) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{})
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection keeps transactions from
	// failing with SQLITE_BUSY instead of queueing.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// AutoMigrate creates or updates every ledger table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// Models lists every persisted model, parents first.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Holding{},
		&domain.Competition{},
		&domain.CompetitionMember{},
		&domain.CompetitionHolding{},
		&domain.Team{},
		&domain.TeamMember{},
		&domain.TeamHolding{},
		&domain.CompetitionTeam{},
		&domain.CompetitionTeamHolding{},
		&domain.Trade{},
	}
}

// ForUpdate adds a row lock on dialects that support one. SQLite serializes
// writers on its own and rejects FOR UPDATE.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
