package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"papertrade-backend/internal/application/accounts"
	"papertrade-backend/internal/application/competitions"
	"papertrade-backend/internal/application/policies"
	"papertrade-backend/internal/application/teams"
	"papertrade-backend/internal/application/valuation"
	"papertrade-backend/internal/domain"
	"papertrade-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

type Service struct {
	DB           *gorm.DB
	Valuation    *valuation.Service
	StartingCash decimal.Decimal
	AdminSecret  string
	// Reserved usernames belong to server-owned accounts and cannot be registered.
	Reserved []string
}

type RegisterInput struct {
	Username string
	Password string
	Email    string
}

// Register creates a user with the starting global cash balance.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, domain.ErrMissingCredentials
	}
	if !validation.IsValidUsername(username) {
		return nil, domain.ErrInvalidUsername
	}
	for _, r := range s.Reserved {
		if strings.EqualFold(username, r) {
			return nil, domain.ErrUsernameReserved
		}
	}
	var email *string
	if e := strings.ToLower(strings.TrimSpace(in.Email)); e != "" {
		if !validation.IsValidEmail(e) {
			return nil, domain.ErrInvalidEmail
		}
		email = &e
	}

	db := s.DB.WithContext(ctx)
	var existing domain.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, domain.ErrUsernameTaken
	}
	if email != nil {
		if err := db.Where("email = ?", *email).First(&existing).Error; err == nil {
			return nil, domain.ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CashBalance:  s.StartingCash,
	}
	if err := db.Create(u).Error; err != nil {
		return nil, err
	}
	log.Info().Str("username", username).Msg("user registered")
	return u, nil
}

type CompetitionCash struct {
	Code      string          `json:"code"`
	Name      *string         `json:"name"`
	Cash      decimal.Decimal `json:"competition_cash"`
	StartDate *time.Time      `json:"start_date"`
	EndDate   *time.Time      `json:"end_date"`
}

type TeamCash struct {
	TeamID uint            `json:"team_id"`
	Name   string          `json:"team_name"`
	Cash   decimal.Decimal `json:"team_cash"`
}

// Session is what a successful login returns: balances only, no quotes.
type Session struct {
	Username     string            `json:"username"`
	IsAdmin      bool              `json:"is_admin"`
	CashBalance  decimal.Decimal   `json:"cash_balance"`
	Competitions []CompetitionCash `json:"competition_accounts"`
	Teams        []TeamCash        `json:"teams"`
}

// Login verifies the password and summarizes the user's ledgers.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, domain.ErrMissingCredentials
	}
	db := s.DB.WithContext(ctx)
	var u domain.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("username", username).Msg("failed login attempt")
		return nil, domain.ErrInvalidCredentials
	}

	out := &Session{Username: u.Username, IsAdmin: u.IsAdmin, CashBalance: u.CashBalance, Competitions: []CompetitionCash{}, Teams: []TeamCash{}}
	var members []domain.CompetitionMember
	if err := db.Where("user_id = ?", u.ID).Order("id").Find(&members).Error; err != nil {
		return nil, err
	}
	for _, m := range members {
		var c domain.Competition
		if err := db.First(&c, m.CompetitionID).Error; err != nil {
			continue
		}
		out.Competitions = append(out.Competitions, CompetitionCash{Code: c.Code, Name: c.Name, Cash: m.CashBalance, StartDate: c.StartDate, EndDate: c.EndDate})
	}
	teamList, err := (&teams.Service{DB: s.DB}).ForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range teamList {
		out.Teams = append(out.Teams, TeamCash{TeamID: t.ID, Name: t.Name, Cash: t.CashBalance})
	}
	log.Info().Str("username", username).Msg("user logged in")
	return out, nil
}

type CompetitionAccount struct {
	Code      string     `json:"code"`
	Name      *string    `json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	TeamID    uint       `json:"team_id,omitempty"`
	*valuation.Valuation
}

// Overview values every ledger the user can trade.
type Overview struct {
	Username         string                 `json:"username"`
	IsAdmin          bool                   `json:"is_admin"`
	Global           *valuation.Valuation   `json:"global_account"`
	Competitions     []CompetitionAccount   `json:"competition_accounts"`
	Teams            []*valuation.Valuation `json:"teams"`
	TeamCompetitions []CompetitionAccount   `json:"team_competitions"`
}

func (s *Service) Overview(ctx context.Context, username string) (*Overview, error) {
	db := s.DB.WithContext(ctx)
	var u domain.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	global, err := s.Valuation.ValuateAccount(ctx, &accounts.Account{Kind: domain.AccountGlobal, ID: u.ID, Label: u.Username})
	if err != nil {
		return nil, err
	}
	out := &Overview{
		Username:         u.Username,
		IsAdmin:          u.IsAdmin,
		Global:           global,
		Competitions:     []CompetitionAccount{},
		Teams:            []*valuation.Valuation{},
		TeamCompetitions: []CompetitionAccount{},
	}

	var members []domain.CompetitionMember
	if err := db.Where("user_id = ?", u.ID).Order("id").Find(&members).Error; err != nil {
		return nil, err
	}
	for _, m := range members {
		var c domain.Competition
		if err := db.First(&c, m.CompetitionID).Error; err != nil {
			continue
		}
		v, err := s.Valuation.ValuateAccount(ctx, &accounts.Account{Kind: domain.AccountCompetitionMember, ID: m.ID, Label: u.Username, Competition: &c})
		if err != nil {
			return nil, err
		}
		out.Competitions = append(out.Competitions, CompetitionAccount{Code: c.Code, Name: c.Name, StartDate: c.StartDate, EndDate: c.EndDate, Valuation: v})
	}

	teamList, err := (&teams.Service{DB: s.DB}).ForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range teamList {
		v, err := s.Valuation.ValuateAccount(ctx, &accounts.Account{Kind: domain.AccountTeam, ID: t.ID, Label: t.Name})
		if err != nil {
			return nil, err
		}
		out.Teams = append(out.Teams, v)

		var entries []domain.CompetitionTeam
		if err := db.Where("team_id = ?", t.ID).Order("id").Find(&entries).Error; err != nil {
			return nil, err
		}
		for _, e := range entries {
			var c domain.Competition
			if err := db.First(&c, e.CompetitionID).Error; err != nil {
				continue
			}
			v, err := s.Valuation.ValuateAccount(ctx, &accounts.Account{Kind: domain.AccountCompetitionTeam, ID: e.ID, Label: t.Name, Competition: &c})
			if err != nil {
				return nil, err
			}
			out.TeamCompetitions = append(out.TeamCompetitions, CompetitionAccount{Code: c.Code, Name: c.Name, StartDate: c.StartDate, EndDate: c.EndDate, TeamID: t.ID, Valuation: v})
		}
	}
	return out, nil
}

// Trades returns the most recent trades the user placed on any ledger.
func (s *Service) Trades(ctx context.Context, username string, limit int) ([]domain.Trade, error) {
	db := s.DB.WithContext(ctx)
	var u domain.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	var out []domain.Trade
	err := db.Where("actor_id = ?", u.ID).Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// List returns every user for an admin.
func (s *Service) List(ctx context.Context, adminUsername string) ([]domain.User, error) {
	if _, err := policies.RequireAdmin(ctx, s.DB, adminUsername); err != nil {
		return nil, err
	}
	var out []domain.User
	err := s.DB.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

// Delete removes a user with its global ledger and every membership. Teams
// the user created keep existing for their other members.
func (s *Service) Delete(ctx context.Context, adminUsername, targetUsername string) error {
	if _, err := policies.RequireAdmin(ctx, s.DB, adminUsername); err != nil {
		log.Warn().Str("admin_username", adminUsername).Msg("unauthorized user delete")
		return err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target domain.User
		if err := tx.Where("username = ?", targetUsername).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		book, _ := accounts.BookFor(domain.AccountGlobal)
		if err := book.DeleteOwned(tx, []uint{target.ID}); err != nil {
			return err
		}
		if err := competitions.DeleteByUser(tx, target.ID); err != nil {
			return err
		}
		if err := teams.DeleteByUser(tx, target.ID); err != nil {
			return err
		}
		return tx.Delete(&target).Error
	})
	if err != nil {
		return err
	}
	log.Info().Str("username", targetUsername).Str("admin_username", adminUsername).Msg("user deleted")
	return nil
}

// SetAdmin grants admin rights when secret matches the configured one. With
// no secret configured the operation is disabled.
func (s *Service) SetAdmin(ctx context.Context, secret, username string) error {
	if s.AdminSecret == "" || secret != s.AdminSecret {
		log.Warn().Str("username", username).Msg("invalid secret for set_admin")
		return domain.ErrNotAuthorized
	}
	res := s.DB.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Update("is_admin", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	log.Info().Str("username", username).Msg("user promoted to admin")
	return nil
}

type Stats struct {
	TotalUsers        int64 `json:"total_users"`
	TotalCompetitions int64 `json:"total_competitions"`
	TotalTeams        int64 `json:"total_teams"`
	TotalTrades       int64 `json:"total_trades"`
}

// Stats counts the main entities for the admin dashboard.
func (s *Service) Stats(ctx context.Context, adminUsername string) (*Stats, error) {
	if _, err := policies.RequireAdmin(ctx, s.DB, adminUsername); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	out := &Stats{}
	for _, c := range []struct {
		model interface{}
		dst   *int64
	}{
		{&domain.User{}, &out.TotalUsers},
		{&domain.Competition{}, &out.TotalCompetitions},
		{&domain.Team{}, &out.TotalTeams},
		{&domain.Trade{}, &out.TotalTrades},
	} {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return out, nil
}
