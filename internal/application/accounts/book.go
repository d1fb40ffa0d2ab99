package accounts

import (
	"papertrade-backend/internal/domain"
	"papertrade-backend/internal/infrastructure/database"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Book locates one kind's ledger: the table holding cash, the table holding
// positions, and the column linking a position to its account row.
type Book struct {
	AccountTable string
	HoldingTable string
	OwnerColumn  string
}

var books = map[domain.AccountKind]Book{
	domain.AccountGlobal:            {domain.TableUsers, domain.TableHoldings, "user_id"},
	domain.AccountCompetitionMember: {domain.TableCompetitionMembers, domain.TableCompetitionHoldings, "competition_member_id"},
	domain.AccountTeam:              {domain.TableTeams, domain.TableTeamHoldings, "team_id"},
	domain.AccountCompetitionTeam:   {domain.TableCompetitionTeams, domain.TableCompetitionTeamHoldings, "competition_team_id"},
}

// BookFor returns the descriptor for kind.
func BookFor(kind domain.AccountKind) (Book, bool) {
	b, ok := books[kind]
	return b, ok
}

type cashRow struct {
	CashBalance decimal.Decimal
}

// Cash reads the account's cash without locking.
func (b Book) Cash(tx *gorm.DB, accountID uint) (decimal.Decimal, error) {
	return b.readCash(tx, accountID)
}

// LockCash reads the account's cash and holds a row lock on it until tx ends.
// Every ledger mutation goes through here first, which serializes trades on
// the same account.
func (b Book) LockCash(tx *gorm.DB, accountID uint) (decimal.Decimal, error) {
	return b.readCash(database.ForUpdate(tx), accountID)
}

func (b Book) readCash(tx *gorm.DB, accountID uint) (decimal.Decimal, error) {
	var row cashRow
	res := tx.Table(b.AccountTable).Select("cash_balance").Where("id = ?", accountID).Limit(1).Scan(&row)
	if res.Error != nil {
		return decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, gorm.ErrRecordNotFound
	}
	return row.CashBalance, nil
}

func (b Book) SetCash(tx *gorm.DB, accountID uint, cash decimal.Decimal) error {
	return tx.Table(b.AccountTable).Where("id = ?", accountID).Update("cash_balance", cash).Error
}

// Holding returns the owner's position in symbol, or nil if there is none.
func (b Book) Holding(tx *gorm.DB, ownerID uint, symbol string) (*domain.Position, error) {
	var pos domain.Position
	res := tx.Table(b.HoldingTable).Where(b.OwnerColumn+" = ? AND symbol = ?", ownerID, symbol).Order("id").Limit(1).Scan(&pos)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &pos, nil
}

// Holdings lists every position of the owner, oldest first.
func (b Book) Holdings(tx *gorm.DB, ownerID uint) ([]domain.Position, error) {
	var out []domain.Position
	if err := tx.Table(b.HoldingTable).Where(b.OwnerColumn+" = ?", ownerID).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (b Book) CreateHolding(tx *gorm.DB, ownerID uint, symbol string, quantity int64, buyPrice decimal.Decimal) error {
	return tx.Table(b.HoldingTable).Create(map[string]interface{}{
		b.OwnerColumn: ownerID,
		"symbol":      symbol,
		"quantity":    quantity,
		"buy_price":   buyPrice,
	}).Error
}

// SetQuantity stores a new quantity, deleting the row when it reaches zero.
func (b Book) SetQuantity(tx *gorm.DB, holdingID uint, quantity int64) error {
	if quantity <= 0 {
		return tx.Exec("DELETE FROM "+b.HoldingTable+" WHERE id = ?", holdingID).Error
	}
	return tx.Table(b.HoldingTable).Where("id = ?", holdingID).Update("quantity", quantity).Error
}

// DeleteOwned removes every position of the given owners.
func (b Book) DeleteOwned(tx *gorm.DB, ownerIDs []uint) error {
	if len(ownerIDs) == 0 {
		return nil
	}
	return tx.Exec("DELETE FROM "+b.HoldingTable+" WHERE "+b.OwnerColumn+" IN ?", ownerIDs).Error
}
