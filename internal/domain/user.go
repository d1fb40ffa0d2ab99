package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// User is a registered trader. CashBalance is the global (personal) ledger.
type User struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Username     string          `gorm:"column:username;type:varchar(80);not null;uniqueIndex" json:"username"`
	Email        *string         `gorm:"column:email;type:varchar(120);uniqueIndex" json:"email"`
	PasswordHash string          `gorm:"column:password_hash;not null" json:"-"`
	CashBalance  decimal.Decimal `gorm:"column:cash_balance;type:numeric(20,4);not null" json:"cash_balance"`
	IsAdmin      bool            `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Holdings []Holding `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return TableUsers
}

// SystemPasswordPrefix marks a hash no password can match. Accounts owned by
// the server itself carry it.
const SystemPasswordPrefix = "!"

// IsSystem reports whether u is a server-owned account.
func (u *User) IsSystem() bool {
	return strings.HasPrefix(u.PasswordHash, SystemPasswordPrefix)
}
