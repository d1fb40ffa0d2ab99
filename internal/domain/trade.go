package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AccountKind names one of the four ledger shapes.
type AccountKind string

const (
	AccountGlobal            AccountKind = "global"
	AccountCompetitionMember AccountKind = "competition"
	AccountTeam              AccountKind = "team"
	AccountCompetitionTeam   AccountKind = "competition_team"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade is an append-only journal row written in the same transaction as
// the ledger mutation it records.
type Trade struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	AccountKind AccountKind     `gorm:"column:account_kind;type:varchar(20);not null;index:idx_trades_account,priority:1" json:"account_kind"`
	AccountID   uint            `gorm:"column:account_id;not null;index:idx_trades_account,priority:2" json:"account_id"`
	ActorID     uint            `gorm:"column:actor_id;not null;index" json:"actor_id"`
	Symbol      string          `gorm:"column:symbol;type:varchar(10);not null" json:"symbol"`
	Side        Side            `gorm:"column:side;type:varchar(4);not null" json:"side"`
	Quantity    int64           `gorm:"column:quantity;not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(20,4);not null" json:"price"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(20,4);not null" json:"amount"`
	CashAfter   decimal.Decimal `gorm:"column:cash_after;type:numeric(20,4);not null" json:"cash_after"`
	Details     datatypes.JSON  `gorm:"column:details" json:"details"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Trade) TableName() string {
	return TableTrades
}
