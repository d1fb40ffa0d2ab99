package competitions

import (
	"context"
	"errors"

	"papertrade-backend/internal/application/policies"
	"papertrade-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AdminList returns every competition for an admin.
func (s *Service) AdminList(ctx context.Context, adminUsername string) ([]domain.Competition, error) {
	if _, err := policies.RequireAdmin(ctx, s.DB, adminUsername); err != nil {
		return nil, err
	}
	return s.List(ctx)
}

// Delete removes a competition together with its member and team ledgers.
func (s *Service) Delete(ctx context.Context, adminUsername, code string) error {
	if _, err := policies.RequireAdmin(ctx, s.DB, adminUsername); err != nil {
		log.Warn().Str("admin_username", adminUsername).Msg("unauthorized competition delete")
		return err
	}
	db := s.DB.WithContext(ctx)
	comp, err := findCompetition(db, code)
	if err != nil {
		return err
	}
	if err := db.Transaction(func(tx *gorm.DB) error {
		return deleteCompetitionTx(tx, comp.ID)
	}); err != nil {
		return err
	}
	log.Info().Str("competition_code", code).Str("admin_username", adminUsername).Msg("competition deleted")
	return nil
}

// SetOpen toggles whether the competition accepts joins.
func (s *Service) SetOpen(ctx context.Context, adminUsername, code string, open bool) error {
	return s.setFlag(ctx, adminUsername, code, "is_open", open)
}

// SetFeatured toggles the competition's featured flag.
func (s *Service) SetFeatured(ctx context.Context, adminUsername, code string, featured bool) error {
	return s.setFlag(ctx, adminUsername, code, "featured", featured)
}

func (s *Service) setFlag(ctx context.Context, adminUsername, code, column string, value bool) error {
	if _, err := policies.RequireAdmin(ctx, s.DB, adminUsername); err != nil {
		return err
	}
	db := s.DB.WithContext(ctx)
	comp, err := findCompetition(db, code)
	if err != nil {
		return err
	}
	if err := db.Model(comp).Update(column, value).Error; err != nil {
		return err
	}
	log.Info().Str("competition_code", code).Str("field", column).Bool("value", value).Str("admin_username", adminUsername).Msg("competition updated")
	return nil
}

// RemoveMember drops a user's membership and competition ledger.
func (s *Service) RemoveMember(ctx context.Context, adminUsername, targetUsername, code string) error {
	if _, err := policies.RequireAdmin(ctx, s.DB, adminUsername); err != nil {
		return err
	}
	db := s.DB.WithContext(ctx)
	target, err := findUser(db, targetUsername)
	if err != nil {
		return err
	}
	comp, err := findCompetition(db, code)
	if err != nil {
		return err
	}
	var member domain.CompetitionMember
	if err := db.Where("competition_id = ? AND user_id = ?", comp.ID, target.ID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotCompetitionMember
		}
		return err
	}
	if err := db.Transaction(func(tx *gorm.DB) error {
		return deleteMembersTx(tx, []uint{member.ID})
	}); err != nil {
		return err
	}
	log.Info().Str("username", targetUsername).Str("competition_code", code).Str("admin_username", adminUsername).Msg("user removed from competition")
	return nil
}

// DeleteByUser removes every competition-member ledger owned by the user.
// Used when deleting the user itself.
func DeleteByUser(tx *gorm.DB, userID uint) error {
	var memberIDs []uint
	if err := tx.Model(&domain.CompetitionMember{}).Where("user_id = ?", userID).Pluck("id", &memberIDs).Error; err != nil {
		return err
	}
	return deleteMembersTx(tx, memberIDs)
}
