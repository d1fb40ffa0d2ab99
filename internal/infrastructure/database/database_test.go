package database

import (
	"testing"

	"papertrade-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMigrates(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{
		domain.TableUsers, domain.TableHoldings, domain.TableCompetitions,
		domain.TableCompetitionMembers, domain.TableCompetitionHoldings,
		domain.TableTeams, domain.TableTeamMembers, domain.TableTeamHoldings,
		domain.TableCompetitionTeams, domain.TableCompetitionTeamHoldings,
		domain.TableTrades,
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.Equal(t, "sqlite", db.Dialector.Name())
}

func TestMembershipUniqueness(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	u := domain.User{Username: "ann", PasswordHash: "x", CashBalance: decimal.NewFromInt(100000)}
	require.NoError(t, db.Create(&u).Error)
	c := domain.Competition{Code: "abc12345", CreatedBy: u.ID, IsOpen: true}
	require.NoError(t, db.Create(&c).Error)

	first := domain.CompetitionMember{CompetitionID: c.ID, UserID: u.ID, CashBalance: decimal.NewFromInt(100000)}
	require.NoError(t, db.Create(&first).Error)
	dup := domain.CompetitionMember{CompetitionID: c.ID, UserID: u.ID, CashBalance: decimal.NewFromInt(100000)}
	assert.Error(t, db.Create(&dup).Error)

	again := domain.Competition{Code: "abc12345", CreatedBy: u.ID, IsOpen: true}
	assert.Error(t, db.Create(&again).Error)
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, isPostgres("postgres://u@h/db"))
	assert.True(t, isPostgres("postgresql://u@h/db"))
	assert.False(t, isPostgres("local.db"))
	assert.False(t, isPostgres(":memory:"))
}
