package competitions

import (
	"context"
	"errors"
	"time"

	"papertrade-backend/internal/application/accounts"
	"papertrade-backend/internal/application/policies"
	"papertrade-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Service struct {
	DB           *gorm.DB
	StartingCash decimal.Decimal
	NewCode      CodeGenerator
	Now          func() time.Time
}

type CreateInput struct {
	Username         string
	Name             string
	StartDate        string
	EndDate          string
	MaxPositionLimit string
	Featured         bool
	// IsOpen defaults to true when nil.
	IsOpen *bool
}

// Create registers a competition owned by the named user.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Competition, error) {
	db := s.DB.WithContext(ctx)
	user, err := findUser(db, in.Username)
	if err != nil {
		return nil, err
	}
	if err := policies.ValidateFeature(user, in.Featured); err != nil {
		log.Warn().Str("username", in.Username).Msg("non-admin attempted to feature competition")
		return nil, err
	}

	start, err := parseDate(in.StartDate, false)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(in.EndDate, true)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, domain.ErrInvalidDates
	}

	comp := &domain.Competition{
		CreatedBy:        user.ID,
		StartDate:        start,
		EndDate:          end,
		Featured:         in.Featured,
		IsOpen:           in.IsOpen == nil || *in.IsOpen,
		MaxPositionLimit: in.MaxPositionLimit,
	}
	if in.Name != "" {
		name := in.Name
		comp.Name = &name
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		code, err := AllocateCode(tx, s.NewCode)
		if err != nil {
			return err
		}
		comp.Code = code
		return tx.Create(comp).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("competition_code", comp.Code).Str("username", in.Username).Bool("featured", comp.Featured).Msg("competition created")
	return comp, nil
}

// Join adds the user to the competition with a fresh ledger. joined is false
// when the user was already a member.
func (s *Service) Join(ctx context.Context, username, code string) (joined bool, err error) {
	db := s.DB.WithContext(ctx)
	user, err := findUser(db, username)
	if err != nil {
		return false, err
	}
	comp, err := findCompetition(db, code)
	if err != nil {
		return false, err
	}
	if err := policies.ValidateJoin(comp); err != nil {
		return false, err
	}

	exists := func() (bool, error) {
		var n int64
		err := db.Model(&domain.CompetitionMember{}).Where("competition_id = ? AND user_id = ?", comp.ID, user.ID).Count(&n).Error
		return n > 0, err
	}
	if ok, err := exists(); err != nil || ok {
		return false, err
	}
	member := domain.CompetitionMember{CompetitionID: comp.ID, UserID: user.ID, CashBalance: s.StartingCash}
	if err := db.Create(&member).Error; err != nil {
		// Lost a race with a concurrent join of the same pair.
		if ok, checkErr := exists(); checkErr == nil && ok {
			return false, nil
		}
		return false, err
	}
	log.Info().Str("username", username).Str("competition_code", code).Msg("user joined competition")
	return true, nil
}

// JoinTeam enters a team into the competition with a fresh ledger, acting
// as one of its members. joined is false when the team was already entered.
func (s *Service) JoinTeam(ctx context.Context, username string, teamID uint, code string) (joined bool, err error) {
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
	var n int64
	if err := db.Model(&domain.TeamMember{}).Where("team_id = ? AND user_id = ?", team.ID, user.ID).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, domain.ErrNotTeamMember
	}
	comp, err := findCompetition(db, code)
	if err != nil {
		return false, err
	}
	if err := policies.ValidateJoin(comp); err != nil {
		return false, err
	}

	exists := func() (bool, error) {
		var n int64
		err := db.Model(&domain.CompetitionTeam{}).Where("competition_id = ? AND team_id = ?", comp.ID, team.ID).Count(&n).Error
		return n > 0, err
	}
	if ok, err := exists(); err != nil || ok {
		return false, err
	}
	entry := domain.CompetitionTeam{CompetitionID: comp.ID, TeamID: team.ID, CashBalance: s.StartingCash}
	if err := db.Create(&entry).Error; err != nil {
		if ok, checkErr := exists(); checkErr == nil && ok {
			return false, nil
		}
		return false, err
	}
	log.Info().Str("username", username).Uint("team_id", team.ID).Str("competition_code", code).Msg("team joined competition")
	return true, nil
}

// List returns every competition, oldest first.
func (s *Service) List(ctx context.Context) ([]domain.Competition, error) {
	var out []domain.Competition
	err := s.DB.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

// Featured returns featured competitions that have not ended.
func (s *Service) Featured(ctx context.Context) ([]domain.Competition, error) {
	var out []domain.Competition
	err := s.DB.WithContext(ctx).
		Where("featured = ? AND (end_date IS NULL OR end_date >= ?)", true, s.now().UTC()).
		Order("id").
		Find(&out).Error
	return out, err
}

type Upcoming struct {
	Competition domain.Competition
	Countdown   time.Duration
}

// UpcomingQuickPics returns the next limit Quick Pics that have not started.
func (s *Service) UpcomingQuickPics(ctx context.Context, limit int) ([]Upcoming, error) {
	now := s.now().UTC()
	var comps []domain.Competition
	err := s.DB.WithContext(ctx).
		Where("name = ? AND start_date > ?", domain.QuickPicsName, now).
		Order("start_date").
		Limit(limit).
		Find(&comps).Error
	if err != nil {
		return nil, err
	}
	out := make([]Upcoming, 0, len(comps))
	for _, c := range comps {
		out = append(out, Upcoming{Competition: c, Countdown: c.StartDate.Sub(now)})
	}
	return out, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// parseDate accepts YYYY-MM-DD (UTC) or RFC 3339. A date-only end bound
// covers the whole day.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Microsecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.ErrInvalidDateFormat
	}
	t = t.UTC()
	return &t, nil
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
	var comp domain.Competition
	if err := db.Where("code = ?", code).First(&comp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCompetitionNotFound
		}
		return nil, err
	}
	return &comp, nil
}

// deleteCompetitionTx removes a competition with every ledger scoped to it.
func deleteCompetitionTx(tx *gorm.DB, compID uint) error {
	var memberIDs []uint
	if err := tx.Model(&domain.CompetitionMember{}).Where("competition_id = ?", compID).Pluck("id", &memberIDs).Error; err != nil {
		return err
	}
	if err := deleteMembersTx(tx, memberIDs); err != nil {
		return err
	}

	var entryIDs []uint
	if err := tx.Model(&domain.CompetitionTeam{}).Where("competition_id = ?", compID).Pluck("id", &entryIDs).Error; err != nil {
		return err
	}
	book, _ := accounts.BookFor(domain.AccountCompetitionTeam)
	if err := book.DeleteOwned(tx, entryIDs); err != nil {
		return err
	}
	if len(entryIDs) > 0 {
		if err := tx.Delete(&domain.CompetitionTeam{}, entryIDs).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&domain.Competition{}, compID).Error
}

func deleteMembersTx(tx *gorm.DB, memberIDs []uint) error {
	if len(memberIDs) == 0 {
		return nil
	}
	book, _ := accounts.BookFor(domain.AccountCompetitionMember)
	if err := book.DeleteOwned(tx, memberIDs); err != nil {
		return err
	}
	return tx.Delete(&domain.CompetitionMember{}, memberIDs).Error
}
