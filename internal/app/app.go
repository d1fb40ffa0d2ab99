// Package app wires the services shared by the HTTP server and the operator CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"papertrade-backend/internal/application/competitions"
	"papertrade-backend/internal/application/leaderboard"
	"papertrade-backend/internal/application/ledger"
	"papertrade-backend/internal/application/quickpics"
	"papertrade-backend/internal/application/teams"
	"papertrade-backend/internal/application/user"
	"papertrade-backend/internal/application/valuation"
	"papertrade-backend/internal/config"
	"papertrade-backend/internal/domain"
	"papertrade-backend/internal/infrastructure/cache"
	"papertrade-backend/internal/infrastructure/database"
	"papertrade-backend/internal/infrastructure/quotes"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	valuationConcurrency = 8
	redisDialTimeout     = 5 * time.Second
)

type Services struct {
	DB    *gorm.DB
	Redis *redis.Client

	Ledger       *ledger.Service
	Valuation    *valuation.Service
	Leaderboard  *leaderboard.Service
	Competitions *competitions.Service
	Teams        *teams.Service
	Users        *user.Service
	QuickPics    *quickpics.Service
	Location     *time.Location
}

// Open connects the database (migrating it), Redis when configured, and the
// Alpha Vantage oracle, then builds the services on top of them.
func Open(ctx context.Context, cfg *config.Config) (*Services, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
		rdb, err = cache.Open(dialCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info().Msg("Redis connected")
	}

	if cfg.AlphaVantageAPIKey == "" {
		log.Warn().Msg("ALPHA_VANTAGE_API_KEY is empty; quotes will fail")
	}
	oracle := quotes.NewAlphaVantage(cfg.AlphaVantageBaseURL, cfg.AlphaVantageAPIKey, cfg.PriceTimeout)
	return New(cfg, db, rdb, oracle)
}

// New builds the services over already opened dependencies. rdb may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, oracle domain.PriceOracle) (*Services, error) {
	loc, err := time.LoadLocation(cfg.QuickPics.Timezone)
	if err != nil {
		return nil, fmt.Errorf("quick pics timezone: %w", err)
	}
	val := &valuation.Service{DB: db, Oracle: oracle, PriceTimeout: cfg.PriceTimeout, Concurrency: valuationConcurrency}
	return &Services{
		DB:    db,
		Redis: rdb,
		Ledger: &ledger.Service{
			DB:           db,
			Oracle:       oracle,
			PriceTimeout: cfg.PriceTimeout,
			TxTimeout:    cfg.TxTimeout,
		},
		Valuation:    val,
		Leaderboard:  &leaderboard.Service{DB: db, Valuation: val},
		Competitions: &competitions.Service{DB: db, StartingCash: cfg.StartingCash},
		Teams:        &teams.Service{DB: db, StartingCash: cfg.StartingCash},
		Users: &user.Service{
			DB:           db,
			Valuation:    val,
			StartingCash: cfg.StartingCash,
			AdminSecret:  cfg.AdminSecret,
			Reserved:     []string{cfg.QuickPics.Creator},
		},
		QuickPics: &quickpics.Service{
			DB:           db,
			Redis:        rdb,
			Location:     loc,
			StartHour:    cfg.QuickPics.StartHour,
			Slots:        cfg.QuickPics.Slots,
			Creator:      cfg.QuickPics.Creator,
			StartingCash: cfg.StartingCash,
		},
		Location: loc,
	}, nil
}

// Close releases the database and Redis connections.
func (s *Services) Close() error {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
