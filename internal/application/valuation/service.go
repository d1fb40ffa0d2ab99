package valuation

import (
	"context"
	"sync"
	"time"

	"papertrade-backend/internal/application/accounts"
	"papertrade-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultConcurrency = 4

type Service struct {
	DB           *gorm.DB
	Oracle       domain.PriceOracle
	PriceTimeout time.Duration
	// Concurrency caps in-flight quote requests per valuation.
	Concurrency int
}

type HoldingValue struct {
	Symbol         string          `json:"symbol"`
	Quantity       int64           `json:"quantity"`
	BuyPrice       decimal.Decimal `json:"buy_price"`
	Price          decimal.Decimal `json:"current_price"`
	Value          decimal.Decimal `json:"value"`
	PnL            decimal.Decimal `json:"pnl"`
	PriceAvailable bool            `json:"price_available"`
}

type Valuation struct {
	AccountKind domain.AccountKind `json:"account_kind"`
	AccountID   uint               `json:"account_id"`
	Label       string             `json:"label"`
	Cash        decimal.Decimal    `json:"cash"`
	Holdings    []HoldingValue     `json:"holdings"`
	TotalValue  decimal.Decimal    `json:"total_value"`
	PnL         decimal.Decimal    `json:"pnl"`
}

// Valuate resolves ref, checks the acting user's access and values it.
func (s *Service) Valuate(ctx context.Context, ref accounts.Ref) (*Valuation, error) {
	acct, err := accounts.Resolve(ctx, s.DB, ref)
	if err != nil {
		return nil, err
	}
	return s.ValuateAccount(ctx, acct)
}

// ValuateAccount marks an already-resolved account to market. Cash and
// holdings are read in one transaction; quotes are fetched after it closes.
// A failed quote values that line at zero and the rest continue.
func (s *Service) ValuateAccount(ctx context.Context, acct *accounts.Account) (*Valuation, error) {
	book := acct.Book()
	var (
		cash      decimal.Decimal
		positions []domain.Position
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if cash, err = book.Cash(tx, acct.ID); err != nil {
			return err
		}
		positions, err = book.Holdings(tx, acct.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	prices := s.prices(ctx, positions)

	v := &Valuation{
		AccountKind: acct.Kind,
		AccountID:   acct.ID,
		Label:       acct.Label,
		Cash:        cash,
		Holdings:    make([]HoldingValue, 0, len(positions)),
		TotalValue:  cash,
		PnL:         decimal.Zero,
	}
	for _, p := range positions {
		price, ok := prices[p.Symbol]
		qty := decimal.NewFromInt(p.Quantity)
		hv := HoldingValue{
			Symbol:         p.Symbol,
			Quantity:       p.Quantity,
			BuyPrice:       p.BuyPrice,
			Price:          price,
			Value:          price.Mul(qty),
			PnL:            price.Sub(p.BuyPrice).Mul(qty),
			PriceAvailable: ok,
		}
		v.Holdings = append(v.Holdings, hv)
		v.TotalValue = v.TotalValue.Add(hv.Value)
		v.PnL = v.PnL.Add(hv.PnL)
	}
	return v, nil
}

// prices quotes each distinct symbol once. Symbols that fail are absent.
func (s *Service) prices(ctx context.Context, positions []domain.Position) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(positions))
	if len(positions) == 0 {
		return out
	}
	seen := make(map[string]bool, len(positions))
	var mu sync.Mutex

	limit := s.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, p := range positions {
		if seen[p.Symbol] {
			continue
		}
		seen[p.Symbol] = true
		symbol := p.Symbol
		g.Go(func() error {
			qctx := gctx
			if s.PriceTimeout > 0 {
				var cancel context.CancelFunc
				qctx, cancel = context.WithTimeout(gctx, s.PriceTimeout)
				defer cancel()
			}
			price, err := s.Oracle.GetPrice(qctx, symbol)
			if err != nil || price <= 0 {
				log.Warn().Err(err).Str("symbol", symbol).Msg("valuation price unavailable, using 0")
				return nil
			}
			mu.Lock()
			out[symbol] = decimal.NewFromFloat(price).Round(4)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
