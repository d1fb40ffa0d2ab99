package quickpics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"papertrade-backend/internal/application/competitions"
	"papertrade-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	_ "time/tzdata"
)

const runGuardTTL = 26 * time.Hour

type Service struct {
	DB *gorm.DB
	// Redis, when set, keeps two instances from generating the same day twice.
	Redis        *redis.Client
	Location     *time.Location
	StartHour    int
	Slots        int
	Creator      string
	StartingCash decimal.Decimal
	NewCode      competitions.CodeGenerator
}

// Generate materializes the day's Quick Pics for the local date of now.
// Weekends produce nothing. Each competition is created in its own
// transaction; a failed slot is logged and the next one is still attempted.
// Slots that already exist are skipped, so a rerun only fills the gaps.
func (s *Service) Generate(ctx context.Context, now time.Time) ([]domain.Competition, error) {
	local := now.In(s.location())
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		log.Info().Str("date", local.Format("2006-01-02")).Msg("weekend, skipping Quick Pics")
		return nil, nil
	}

	if !s.acquire(ctx, local) {
		log.Info().Str("date", local.Format("2006-01-02")).Msg("Quick Pics already generated")
		return nil, nil
	}

	creator, err := s.ensureCreator(ctx)
	if err != nil {
		s.release(ctx, local)
		return nil, fmt.Errorf("quick pics creator: %w", err)
	}

	name := domain.QuickPicsName
	y, m, d := local.Date()
	var (
		created []domain.Competition
		errs    []error
	)
	for i := 0; i < s.Slots; i++ {
		start := time.Date(y, m, d, s.StartHour+i, 0, 0, 0, s.location()).UTC()
		end := start.Add(time.Hour)
		comp := domain.Competition{
			Name:             &name,
			CreatedBy:        creator.ID,
			StartDate:        &start,
			EndDate:          &end,
			Featured:         true,
			IsOpen:           true,
			MaxPositionLimit: "",
		}
		exists := false
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var n int64
			if err := tx.Model(&domain.Competition{}).Where("name = ? AND start_date = ?", name, start).Count(&n).Error; err != nil {
				return err
			}
			if exists = n > 0; exists {
				return nil
			}
			code, err := competitions.AllocateCode(tx, s.NewCode)
			if err != nil {
				return err
			}
			comp.Code = code
			return tx.Create(&comp).Error
		})
		if err != nil {
			log.Error().Err(err).Int("slot", i).Time("start", start).Msg("failed to create Quick Pics competition")
			errs = append(errs, fmt.Errorf("slot %d: %w", i, err))
			continue
		}
		if exists {
			continue
		}
		log.Info().Str("competition_code", comp.Code).Time("start", start).Time("end", end).Msg("created Quick Pics competition")
		created = append(created, comp)
	}
	if len(errs) > 0 {
		// Leave the day unclaimed so the next run retries the failed slots.
		s.release(ctx, local)
	}
	return created, errors.Join(errs...)
}

func (s *Service) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// acquire claims the day in Redis. Without Redis, or when Redis is
// unreachable, generation proceeds.
func (s *Service) acquire(ctx context.Context, local time.Time) bool {
	if s.Redis == nil {
		return true
	}
	key := runGuardKey(local)
	ok, err := s.Redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), runGuardTTL).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("quick pics run guard unavailable, continuing")
		return true
	}
	return ok
}

func (s *Service) release(ctx context.Context, local time.Time) {
	if s.Redis == nil {
		return
	}
	key := runGuardKey(local)
	if err := s.Redis.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to release quick pics run guard")
	}
}

func runGuardKey(local time.Time) string {
	return "quickpics:run:" + local.Format("2006-01-02")
}

// ensureCreator returns the system user that owns generated competitions,
// creating it on first use. It has no usable password, which is how an
// account that someone registered under the same name is told apart.
func (s *Service) ensureCreator(ctx context.Context) (*domain.User, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).
		Where(domain.User{Username: s.Creator}).
		Attrs(domain.User{PasswordHash: domain.SystemPasswordPrefix + uuid.NewString(), CashBalance: s.StartingCash}).
		FirstOrCreate(&u).Error
	if err != nil {
		return nil, err
	}
	if !u.IsSystem() {
		return nil, fmt.Errorf("username %q belongs to a registered user", s.Creator)
	}
	return &u, nil
}
