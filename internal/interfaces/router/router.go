package router

import (
	"time"

	"papertrade-backend/internal/app"
	"papertrade-backend/internal/config"
	"papertrade-backend/internal/domain"
	adminhandler "papertrade-backend/internal/interfaces/handlers/admin"
	comphandler "papertrade-backend/internal/interfaces/handlers/competitions"
	healthhandler "papertrade-backend/internal/interfaces/handlers/health"
	teamhandler "papertrade-backend/internal/interfaces/handlers/teams"
	tradehandler "papertrade-backend/internal/interfaces/handlers/trading"
	userhandler "papertrade-backend/internal/interfaces/handlers/user"
	"papertrade-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with global middleware and every route.
func CreateApp(cfg *config.Config, svc *app.Services) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	fiberApp.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowLocalhost: !cfg.IsProduction(),
	}))
	fiberApp.Use(middleware.Tracing())
	fiberApp.Use(middleware.HealthMarker(svc.Redis))
	fiberApp.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            svc.Redis,
		DB:             &gormDBPinger{db: svc.DB},
		HealthAdminKey: cfg.AdminSecret,
		Started:        time.Now(),
	}
	fiberApp.Get("/", hh.Root)
	fiberApp.Get("/reset", hh.Reset)
	fiberApp.Get("/health/json", hh.JSON)
	fiberApp.Get("/health/errors", hh.Errors)

	// Users
	uh := &userhandler.Handlers{Service: svc.Users}
	fiberApp.Post("/register", uh.Register)
	fiberApp.Post("/login", uh.Login)
	fiberApp.Get("/user", uh.Overview)
	fiberApp.Get("/user/trades", uh.Trades)

	// Trading, one route per account kind and side
	th := &tradehandler.Handlers{Ledger: svc.Ledger}
	fiberApp.Get("/stock/:symbol", th.Stock)
	for prefix, kind := range map[string]domain.AccountKind{
		"":                  domain.AccountGlobal,
		"/competition":      domain.AccountCompetitionMember,
		"/team":             domain.AccountTeam,
		"/competition/team": domain.AccountCompetitionTeam,
	} {
		fiberApp.Post(prefix+"/buy", th.Trade(kind, domain.SideBuy))
		fiberApp.Post(prefix+"/sell", th.Trade(kind, domain.SideSell))
	}

	// Competitions
	ch := &comphandler.Handlers{Service: svc.Competitions, Board: svc.Leaderboard}
	fiberApp.Post("/competition/create", ch.Create)
	fiberApp.Post("/competition/join", ch.Join)
	fiberApp.Post("/competition/team/join", ch.JoinTeam)
	fiberApp.Get("/competition/:code/leaderboard", ch.Leaderboard)
	fiberApp.Get("/competition/:code/team_leaderboard", ch.TeamLeaderboard)
	fiberApp.Get("/competitions", ch.List)
	fiberApp.Get("/featured_competitions", ch.Featured)
	fiberApp.Get("/quick_pics", ch.QuickPics)

	// Teams
	tmh := &teamhandler.Handlers{Service: svc.Teams}
	fiberApp.Post("/team/create", tmh.Create)
	fiberApp.Post("/team/join", tmh.Join)

	// Admin
	ah := &adminhandler.Handlers{Competitions: svc.Competitions, Teams: svc.Teams, Users: svc.Users}
	fiberApp.Get("/users", ah.ListUsers)
	ag := fiberApp.Group("/admin")
	ag.Get("/competitions", ah.ListCompetitions)
	ag.Get("/stats", ah.Stats)
	ag.Post("/delete_competition", ah.DeleteCompetition)
	ag.Post("/delete_user", ah.DeleteUser)
	ag.Post("/update_competition_open", ah.UpdateCompetitionOpen)
	ag.Post("/update_featured_status", ah.UpdateFeaturedStatus)
	ag.Post("/remove_user_from_competition", ah.RemoveFromCompetition)
	ag.Post("/remove_user_from_team", ah.RemoveFromTeam)
	ag.Post("/set_admin", ah.SetAdmin)

	return fiberApp
}
