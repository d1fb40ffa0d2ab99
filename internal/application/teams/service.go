package teams

import (
	"context"
	"errors"
	"strings"

	"papertrade-backend/internal/application/policies"
	"papertrade-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	DB           *gorm.DB
	StartingCash decimal.Decimal
}

// Create makes a team with its own ledger and adds the creator as its first
// member.
func (s *Service) Create(ctx context.Context, username, name string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrTeamNameRequired
	}
	var team *domain.Team
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, username)
		if err != nil {
			return err
		}
		team = &domain.Team{Name: name, CreatedBy: user.ID, CashBalance: s.StartingCash}
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		return tx.Create(&domain.TeamMember{TeamID: team.ID, UserID: user.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("username", username).Uint("team_id", team.ID).Str("team_name", name).Msg("team created")
	return team, nil
}

// Join adds the user to the team. joined is false when already a member.
func (s *Service) Join(ctx context.Context, username string, teamID uint) (joined bool, err error) {
	db := s.DB.WithContext(ctx)
	user, err := findUser(db, username)
	if err != nil {
		return false, err
	}
	var team domain.Team
	if err := db.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, domain.ErrTeamNotFound
		}
		return false, err
	}
	exists := func() (bool, error) {
		var n int64
		err := db.Model(&domain.TeamMember{}).Where("team_id = ? AND user_id = ?", team.ID, user.ID).Count(&n).Error
		return n > 0, err
	}
	if ok, err := exists(); err != nil || ok {
		return false, err
	}
	if err := db.Create(&domain.TeamMember{TeamID: team.ID, UserID: user.ID}).Error; err != nil {
		if ok, checkErr := exists(); checkErr == nil && ok {
			return false, nil
		}
		return false, err
	}
	log.Info().Str("username", username).Uint("team_id", team.ID).Msg("user joined team")
	return true, nil
}

// ForUser lists the teams the user belongs to.
func (s *Service) ForUser(ctx context.Context, userID uint) ([]domain.Team, error) {
	var out []domain.Team
	err := s.DB.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Order("teams.id").
		Find(&out).Error
	return out, err
}

// RemoveMember drops the user from the team. The team ledger is untouched.
func (s *Service) RemoveMember(ctx context.Context, adminUsername, targetUsername string, teamID uint) error {
	if _, err := policies.RequireAdmin(ctx, s.DB, adminUsername); err != nil {
		return err
	}
	db := s.DB.WithContext(ctx)
	target, err := findUser(db, targetUsername)
	if err != nil {
		return err
	}
	res := db.Where("team_id = ? AND user_id = ?", teamID, target.ID).Delete(&domain.TeamMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTeamMembershipNotFound
	}
	log.Info().Str("username", targetUsername).Uint("team_id", teamID).Str("admin_username", adminUsername).Msg("user removed from team")
	return nil
}

// DeleteByUser drops the user's team memberships. Teams survive their members.
func DeleteByUser(tx *gorm.DB, userID uint) error {
	return tx.Where("user_id = ?", userID).Delete(&domain.TeamMember{}).Error
}

func findUser(db *gorm.DB, username string) (*domain.User, error) {
	if username == "" {
		return nil, domain.ErrUserNotFound
	}
	var user domain.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
