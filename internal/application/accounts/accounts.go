// Package accounts gives the four ledger shapes (global, competition member,
// team, competition team) one addressing scheme so trading and valuation
// share a single code path.
package accounts

import (
	"context"
	"errors"

	"papertrade-backend/internal/domain"

	"gorm.io/gorm"
)

// Ref names an account from the caller's side. Username is the acting user;
// CompetitionCode and TeamID are required by the kinds that scope on them.
type Ref struct {
	Kind            domain.AccountKind
	Username        string
	CompetitionCode string
	TeamID          uint
}

// Account is a resolved, authorized ledger.
type Account struct {
	Kind        domain.AccountKind
	ID          uint
	Label       string
	Competition *domain.Competition
	ActorID     uint
}

// Book returns the storage descriptor for the account's kind.
func (a *Account) Book() Book {
	return books[a.Kind]
}

// Resolve loads the account ref points at and checks that the acting user
// may trade it.
func Resolve(ctx context.Context, db *gorm.DB, ref Ref) (*Account, error) {
	if _, ok := books[ref.Kind]; !ok {
		return nil, domain.ErrInvalidAccount
	}
	db = db.WithContext(ctx)

	user, err := findUser(db, ref.Username)
	if err != nil {
		return nil, err
	}
	acct := &Account{Kind: ref.Kind, ActorID: user.ID}

	switch ref.Kind {
	case domain.AccountGlobal:
		acct.ID = user.ID
		acct.Label = user.Username

	case domain.AccountCompetitionMember:
		comp, err := findCompetition(db, ref.CompetitionCode)
		if err != nil {
			return nil, err
		}
		var member domain.CompetitionMember
		if err := db.Where("competition_id = ? AND user_id = ?", comp.ID, user.ID).First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrNotCompetitionMember
			}
			return nil, err
		}
		acct.ID = member.ID
		acct.Label = user.Username
		acct.Competition = comp

	case domain.AccountTeam:
		team, err := findTeamForMember(db, ref.TeamID, user.ID)
		if err != nil {
			return nil, err
		}
		acct.ID = team.ID
		acct.Label = team.Name

	case domain.AccountCompetitionTeam:
		comp, err := findCompetition(db, ref.CompetitionCode)
		if err != nil {
			return nil, err
		}
		team, err := findTeamForMember(db, ref.TeamID, user.ID)
		if err != nil {
			return nil, err
		}
		var entry domain.CompetitionTeam
		if err := db.Where("competition_id = ? AND team_id = ?", comp.ID, team.ID).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrTeamNotInCompetition
			}
			return nil, err
		}
		acct.ID = entry.ID
		acct.Label = team.Name
		acct.Competition = comp
	}
	return acct, nil
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

func findCompetition(db *gorm.DB, code string) (*domain.Competition, error) {
	if code == "" {
		return nil, domain.ErrCompetitionNotFound
	}
	var comp domain.Competition
	if err := db.Where("code = ?", code).First(&comp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCompetitionNotFound
		}
		return nil, err
	}
	return &comp, nil
}

func findTeamForMember(db *gorm.DB, teamID, userID uint) (*domain.Team, error) {
	if teamID == 0 {
		return nil, domain.ErrTeamNotFound
	}
	var team domain.Team
	if err := db.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}
	var n int64
	if err := db.Model(&domain.TeamMember{}).Where("team_id = ? AND user_id = ?", team.ID, userID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.ErrNotTeamMember
	}
	return &team, nil
}
