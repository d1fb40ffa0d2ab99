package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"papertrade-backend/internal/application/accounts"
	"papertrade-backend/internal/domain"
	"papertrade-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Prices are stored with four decimal places.
const pricePlaces = 4

type Service struct {
	DB           *gorm.DB
	Oracle       domain.PriceOracle
	Now          func() time.Time
	PriceTimeout time.Duration
	TxTimeout    time.Duration
}

type TradeRequest struct {
	Account  accounts.Ref
	Symbol   string
	Quantity int64
	Side     domain.Side
}

type TradeResult struct {
	AccountKind domain.AccountKind `json:"account_kind"`
	AccountID   uint               `json:"account_id"`
	Symbol      string             `json:"symbol"`
	Side        domain.Side        `json:"side"`
	Quantity    int64              `json:"quantity"`
	Price       decimal.Decimal    `json:"price"`
	Amount      decimal.Decimal    `json:"amount"`
	CashBalance decimal.Decimal    `json:"cash_balance"`
	Held        int64              `json:"held"`
}

// Trade buys or sells against one account. The quote is taken before the
// transaction opens; cash, holding and journal row then change together
// under a lock on the account row.
func (s *Service) Trade(ctx context.Context, req TradeRequest) (*TradeResult, error) {
	symbol, ok := validation.NormalizeSymbol(req.Symbol)
	if !ok {
		return nil, domain.ErrInvalidSymbol
	}
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return nil, domain.ErrInvalidSide
	}

	acct, err := accounts.Resolve(ctx, s.DB, req.Account)
	if err != nil {
		return nil, err
	}
	if err := s.checkWindow(acct); err != nil {
		return nil, err
	}
	book := acct.Book()

	// Reject hopeless sells before paying for a quote; rechecked under lock.
	if req.Side == domain.SideSell {
		pos, err := book.Holding(s.DB.WithContext(ctx), acct.ID, symbol)
		if err != nil {
			return nil, err
		}
		if pos == nil {
			return nil, domain.ErrNoSuchHolding
		}
		if req.Quantity > pos.Quantity {
			return nil, domain.ErrInsufficientShares
		}
	}

	price, err := s.quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	amount := price.Mul(decimal.NewFromInt(req.Quantity))

	result := &TradeResult{
		AccountKind: acct.Kind,
		AccountID:   acct.ID,
		Symbol:      symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Price:       price,
		Amount:      amount,
	}

	txCtx := ctx
	if s.TxTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.TxTimeout)
		defer cancel()
	}

	err = s.DB.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		// The quote may have taken until after the window closed.
		if err := s.checkWindow(acct); err != nil {
			return err
		}
		cash, err := book.LockCash(tx, acct.ID)
		if err != nil {
			return err
		}
		pos, err := book.Holding(tx, acct.ID, symbol)
		if err != nil {
			return err
		}

		switch req.Side {
		case domain.SideBuy:
			if amount.GreaterThan(cash) {
				return domain.ErrInsufficientFunds
			}
			cash = cash.Sub(amount)
			if pos == nil {
				if err := book.CreateHolding(tx, acct.ID, symbol, req.Quantity, price); err != nil {
					return err
				}
				result.Held = req.Quantity
			} else {
				result.Held = pos.Quantity + req.Quantity
				if err := book.SetQuantity(tx, pos.ID, result.Held); err != nil {
					return err
				}
			}
		case domain.SideSell:
			if pos == nil {
				return domain.ErrNoSuchHolding
			}
			if req.Quantity > pos.Quantity {
				return domain.ErrInsufficientShares
			}
			cash = cash.Add(amount)
			result.Held = pos.Quantity - req.Quantity
			if err := book.SetQuantity(tx, pos.ID, result.Held); err != nil {
				return err
			}
		}

		if err := book.SetCash(tx, acct.ID, cash); err != nil {
			return err
		}
		result.CashBalance = cash
		entry, err := journalEntry(acct, req, result)
		if err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("account_kind", string(acct.Kind)).
		Uint("account_id", acct.ID).
		Str("username", req.Account.Username).
		Str("side", string(req.Side)).
		Str("symbol", symbol).
		Int64("quantity", req.Quantity).
		Str("price", price.String()).
		Msg("trade executed")
	return result, nil
}

// Quote returns the oracle's current price for symbol, bounded by the
// configured timeout.
func (s *Service) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	sym, ok := validation.NormalizeSymbol(symbol)
	if !ok {
		return decimal.Zero, domain.ErrInvalidSymbol
	}
	return s.quote(ctx, sym)
}

func (s *Service) quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if s.PriceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.PriceTimeout)
		defer cancel()
	}
	p, err := s.Oracle.GetPrice(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("price lookup failed")
		return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}
	price := decimal.NewFromFloat(p).Round(pricePlaces)
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive price for %s", domain.ErrPriceUnavailable, symbol)
	}
	return price, nil
}

func (s *Service) checkWindow(acct *accounts.Account) error {
	if acct.Competition == nil {
		return nil
	}
	switch acct.Competition.State(s.now()) {
	case domain.CompetitionScheduled:
		return domain.ErrCompetitionNotStarted
	case domain.CompetitionClosed:
		return domain.ErrCompetitionEnded
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func journalEntry(acct *accounts.Account, req TradeRequest, res *TradeResult) (*domain.Trade, error) {
	details := map[string]interface{}{
		"username": req.Account.Username,
		"label":    acct.Label,
		"held":     res.Held,
	}
	if acct.Competition != nil {
		details["competition_code"] = acct.Competition.Code
	}
	if req.Account.TeamID != 0 {
		details["team_id"] = req.Account.TeamID
	}
	detailsBytes, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode trade details: %w", err)
	}
	return &domain.Trade{
		AccountKind: acct.Kind,
		AccountID:   acct.ID,
		ActorID:     acct.ActorID,
		Symbol:      res.Symbol,
		Side:        res.Side,
		Quantity:    res.Quantity,
		Price:       res.Price,
		Amount:      res.Amount,
		CashAfter:   res.CashBalance,
		Details:     datatypes.JSON(detailsBytes),
	}, nil
}
