package competitions

import (
	"math"

	compsvc "papertrade-backend/internal/application/competitions"
	"papertrade-backend/internal/application/leaderboard"
	"papertrade-backend/internal/domain"
	"papertrade-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const quickPicsShown = 2

type Handlers struct {
	Service *compsvc.Service
	Board   *leaderboard.Service
}

// BoardRow is one leaderboard line on the wire. Clients plot total_value,
// so it goes out as a JSON number.
type BoardRow struct {
	Name       string  `json:"name"`
	TotalValue float64 `json:"total_value"`
}

type CreateRequest struct {
	Username         string `json:"username"`
	Name             string `json:"competition_name"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	MaxPositionLimit string `json:"max_position_limit"`
	Featured         bool   `json:"featured"`
	IsOpen           *bool  `json:"is_open"`
}

// Create POST /competition/create
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Username == "" {
		return response.BadRequest(c, "Missing required fields")
	}
	comp, err := h.Service.Create(c.Context(), compsvc.CreateInput{
		Username:         req.Username,
		Name:             req.Name,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		MaxPositionLimit: req.MaxPositionLimit,
		Featured:         req.Featured,
		IsOpen:           req.IsOpen,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Competition created successfully", fiber.Map{
		"competition_code": comp.Code,
		"competition":      comp,
	}, nil)
}

type JoinRequest struct {
	Username        string `json:"username"`
	CompetitionCode string `json:"competition_code"`
	TeamID          uint   `json:"team_id"`
}

// Join POST /competition/join
func (h *Handlers) Join(c *fiber.Ctx) error {
	var req JoinRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Username == "" || req.CompetitionCode == "" {
		return response.BadRequest(c, "Missing required fields")
	}
	joined, err := h.Service.Join(c.Context(), req.Username, req.CompetitionCode)
	if err != nil {
		return response.FromError(c, err)
	}
	msg := "Joined competition successfully"
	if !joined {
		msg = "User already joined this competition"
	}
	return response.Success(c, msg, fiber.Map{"joined": joined}, nil)
}

// JoinTeam POST /competition/team/join
func (h *Handlers) JoinTeam(c *fiber.Ctx) error {
	var req JoinRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Username == "" || req.CompetitionCode == "" || req.TeamID == 0 {
		return response.BadRequest(c, "Missing required fields")
	}
	joined, err := h.Service.JoinTeam(c.Context(), req.Username, req.TeamID, req.CompetitionCode)
	if err != nil {
		return response.FromError(c, err)
	}
	msg := "Team joined competition successfully"
	if !joined {
		msg = "Team already joined this competition"
	}
	return response.Success(c, msg, fiber.Map{"joined": joined}, nil)
}

// List GET /competitions
func (h *Handlers) List(c *fiber.Ctx) error {
	comps, err := h.Service.List(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Competitions retrieved", comps, fiber.Map{"count": len(comps)})
}

// Featured GET /featured_competitions
func (h *Handlers) Featured(c *fiber.Ctx) error {
	comps, err := h.Service.Featured(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Featured competitions retrieved", comps, fiber.Map{"count": len(comps)})
}

// QuickPics GET /quick_pics lists the next Quick Pics with seconds until start.
func (h *Handlers) QuickPics(c *fiber.Ctx) error {
	upcoming, err := h.Service.UpcomingQuickPics(c.Context(), quickPicsShown)
	if err != nil {
		return response.FromError(c, err)
	}
	out := make([]fiber.Map, 0, len(upcoming))
	for _, u := range upcoming {
		out = append(out, fiber.Map{
			"code":              u.Competition.Code,
			"name":              u.Competition.DisplayName(),
			"start_date":        u.Competition.StartDate,
			"end_date":          u.Competition.EndDate,
			"countdown_seconds": int64(math.Ceil(u.Countdown.Seconds())),
		})
	}
	return response.Success(c, "Quick Pics retrieved", out, nil)
}

// Leaderboard GET /competition/:code/leaderboard
func (h *Handlers) Leaderboard(c *fiber.Ctx) error {
	return h.leaderboard(c, leaderboard.ScopeIndividual)
}

// TeamLeaderboard GET /competition/:code/team_leaderboard
func (h *Handlers) TeamLeaderboard(c *fiber.Ctx) error {
	return h.leaderboard(c, leaderboard.ScopeTeam)
}

func (h *Handlers) leaderboard(c *fiber.Ctx, scope leaderboard.Scope) error {
	code := c.Params("code")
	if code == "" {
		return response.FromError(c, domain.ErrCompetitionNotFound)
	}
	entries, err := h.Board.Build(c.Context(), code, scope)
	if err != nil {
		return response.FromError(c, err)
	}
	// The ranked array is the whole body, not an envelope.
	rows := make([]BoardRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, BoardRow{Name: e.Name, TotalValue: e.TotalValue.InexactFloat64()})
	}
	return c.Status(fiber.StatusOK).JSON(rows)
}
