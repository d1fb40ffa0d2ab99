package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuickPicsName is the name shared by every scheduler-generated competition.
const QuickPicsName = "Quick Pics"

// Competition is a trading contest. Nil StartDate/EndDate mean unbounded.
type Competition struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Code             string     `gorm:"column:code;type:varchar(16);not null;uniqueIndex" json:"code"`
	Name             *string    `gorm:"column:name;type:varchar(80)" json:"name"`
	CreatedBy        uint       `gorm:"column:created_by;not null;index" json:"created_by"`
	StartDate        *time.Time `gorm:"column:start_date" json:"start_date"`
	EndDate          *time.Time `gorm:"column:end_date" json:"end_date"`
	Featured         bool       `gorm:"column:featured;not null;default:false" json:"featured"`
	IsOpen           bool       `gorm:"column:is_open;not null" json:"is_open"`
	MaxPositionLimit string     `gorm:"column:max_position_limit;type:varchar(10)" json:"max_position_limit"` // advisory; empty means unbounded
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Members []CompetitionMember `gorm:"foreignKey:CompetitionID;constraint:OnDelete:CASCADE" json:"-"`
	Teams   []CompetitionTeam   `gorm:"foreignKey:CompetitionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Competition) TableName() string {
	return TableCompetitions
}

// CompetitionState is derived from the trading window, never stored.
type CompetitionState string

const (
	CompetitionScheduled CompetitionState = "scheduled"
	CompetitionActive    CompetitionState = "active"
	CompetitionClosed    CompetitionState = "closed"
)

// State reports where now falls relative to [StartDate, EndDate].
func (c *Competition) State(now time.Time) CompetitionState {
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return CompetitionScheduled
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return CompetitionClosed
	}
	return CompetitionActive
}

// DisplayName returns the name or an empty string.
func (c *Competition) DisplayName() string {
	if c.Name == nil {
		return ""
	}
	return *c.Name
}

// CompetitionMember is a user's entry in a competition, with its own ledger.
type CompetitionMember struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CompetitionID uint            `gorm:"column:competition_id;not null;uniqueIndex:idx_competition_user" json:"competition_id"`
	UserID        uint            `gorm:"column:user_id;not null;uniqueIndex:idx_competition_user" json:"user_id"`
	CashBalance   decimal.Decimal `gorm:"column:cash_balance;type:numeric(20,4);not null" json:"cash_balance"`
	CreatedAt     time.Time       `json:"created_at"`

	User     User                 `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Holdings []CompetitionHolding `gorm:"foreignKey:CompetitionMemberID;constraint:OnDelete:CASCADE" json:"-"`
}

func (CompetitionMember) TableName() string {
	return TableCompetitionMembers
}

// CompetitionTeam is a team's entry in a competition, with a ledger
// independent of the team's own.
type CompetitionTeam struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CompetitionID uint            `gorm:"column:competition_id;not null;uniqueIndex:idx_competition_team" json:"competition_id"`
	TeamID        uint            `gorm:"column:team_id;not null;uniqueIndex:idx_competition_team" json:"team_id"`
	CashBalance   decimal.Decimal `gorm:"column:cash_balance;type:numeric(20,4);not null" json:"cash_balance"`
	CreatedAt     time.Time       `json:"created_at"`

	Team     Team                     `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"-"`
	Holdings []CompetitionTeamHolding `gorm:"foreignKey:CompetitionTeamID;constraint:OnDelete:CASCADE" json:"-"`
}

func (CompetitionTeam) TableName() string {
	return TableCompetitionTeams
}
