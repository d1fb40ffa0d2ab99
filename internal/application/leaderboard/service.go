package leaderboard

import (
	"context"
	"errors"
	"sort"

	"papertrade-backend/internal/application/accounts"
	"papertrade-backend/internal/application/valuation"
	"papertrade-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Scope string

const (
	ScopeIndividual Scope = "individual"
	ScopeTeam       Scope = "team"
)

type Entry struct {
	Name       string          `json:"name"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type Service struct {
	DB        *gorm.DB
	Valuation *valuation.Service
}

// Build values every participant of the competition and ranks them by total
// value, highest first. Equal values keep membership order.
func (s *Service) Build(ctx context.Context, code string, scope Scope) ([]Entry, error) {
	db := s.DB.WithContext(ctx)
	var comp domain.Competition
	if err := db.Where("code = ?", code).First(&comp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCompetitionNotFound
		}
		return nil, err
	}

	var accts []*accounts.Account
	switch scope {
	case ScopeIndividual:
		var members []domain.CompetitionMember
		if err := db.Preload("User").Where("competition_id = ?", comp.ID).Order("id").Find(&members).Error; err != nil {
			return nil, err
		}
		for _, m := range members {
			accts = append(accts, &accounts.Account{Kind: domain.AccountCompetitionMember, ID: m.ID, Label: m.User.Username, Competition: &comp})
		}
	case ScopeTeam:
		var entries []domain.CompetitionTeam
		if err := db.Preload("Team").Where("competition_id = ?", comp.ID).Order("id").Find(&entries).Error; err != nil {
			return nil, err
		}
		for _, e := range entries {
			accts = append(accts, &accounts.Account{Kind: domain.AccountCompetitionTeam, ID: e.ID, Label: e.Team.Name, Competition: &comp})
		}
	default:
		return nil, domain.ErrInvalidAccount
	}

	board := make([]Entry, 0, len(accts))
	for _, a := range accts {
		v, err := s.Valuation.ValuateAccount(ctx, a)
		if err != nil {
			return nil, err
		}
		board = append(board, Entry{Name: a.Label, TotalValue: v.TotalValue})
	}
	sort.SliceStable(board, func(i, j int) bool {
		return board[i].TotalValue.GreaterThan(board[j].TotalValue)
	})
	return board, nil
}
