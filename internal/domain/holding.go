package domain

import (
	"github.com/shopspring/decimal"
)

// Table names. The account package addresses ledgers by table so the four
// account kinds share one code path.
const (
	TableUsers                   = "users"
	TableHoldings                = "holdings"
	TableCompetitions            = "competitions"
	TableCompetitionMembers      = "competition_members"
	TableCompetitionHoldings     = "competition_holdings"
	TableTeams                   = "teams"
	TableTeamMembers             = "team_members"
	TableTeamHoldings            = "team_holdings"
	TableCompetitionTeams        = "competition_teams"
	TableCompetitionTeamHoldings = "competition_team_holdings"
	TableTrades                  = "trades"
)

// Position is the owner-agnostic shape shared by every holding table.
// Quantity is always > 0; a row that would reach zero is deleted.
//
// BuyPrice is the price of the first purchase that created the row. Later
// buys of the same symbol add quantity without touching it.
type Position struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	Symbol   string          `gorm:"column:symbol;type:varchar(10);not null" json:"symbol"`
	Quantity int64           `gorm:"column:quantity;not null" json:"quantity"`
	BuyPrice decimal.Decimal `gorm:"column:buy_price;type:numeric(20,4);not null" json:"buy_price"`
}

// Holding belongs to a user's global account.
type Holding struct {
	Position
	UserID uint `gorm:"column:user_id;not null;index" json:"user_id"`
}

func (Holding) TableName() string {
	return TableHoldings
}

// CompetitionHolding belongs to one competition member's ledger.
type CompetitionHolding struct {
	Position
	CompetitionMemberID uint `gorm:"column:competition_member_id;not null;index" json:"competition_member_id"`
}

func (CompetitionHolding) TableName() string {
	return TableCompetitionHoldings
}

// TeamHolding belongs to a team's un-scoped ledger.
type TeamHolding struct {
	Position
	TeamID uint `gorm:"column:team_id;not null;index" json:"team_id"`
}

func (TeamHolding) TableName() string {
	return TableTeamHoldings
}

// CompetitionTeamHolding belongs to a team's ledger inside one competition.
type CompetitionTeamHolding struct {
	Position
	CompetitionTeamID uint `gorm:"column:competition_team_id;not null;index" json:"competition_team_id"`
}

func (CompetitionTeamHolding) TableName() string {
	return TableCompetitionTeamHoldings
}
