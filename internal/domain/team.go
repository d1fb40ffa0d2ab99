package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Team owns one shared ledger that every member may trade.
type Team struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"column:name;type:varchar(80);not null" json:"name"`
	CreatedBy   uint            `gorm:"column:created_by;not null;index" json:"created_by"`
	CashBalance decimal.Decimal `gorm:"column:cash_balance;type:numeric(20,4);not null" json:"cash_balance"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Members  []TeamMember  `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"-"`
	Holdings []TeamHolding `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Team) TableName() string {
	return TableTeams
}

// TeamMember grants a user trading rights over the team's ledgers.
type TeamMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeamID    uint      `gorm:"column:team_id;not null;uniqueIndex:idx_team_user" json:"team_id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_team_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (TeamMember) TableName() string {
	return TableTeamMembers
}
