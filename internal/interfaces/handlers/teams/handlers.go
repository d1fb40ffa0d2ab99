package teams

import (
	teamsvc "papertrade-backend/internal/application/teams"
	"papertrade-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *teamsvc.Service
}

type CreateRequest struct {
	Username string `json:"username"`
	TeamName string `json:"team_name"`
}

// Create POST /team/create
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Username == "" {
		return response.BadRequest(c, "Missing required fields")
	}
	team, err := h.Service.Create(c.Context(), req.Username, req.TeamName)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Team created successfully", fiber.Map{
		"team_id": team.ID,
		"team":    team,
	}, nil)
}

type JoinRequest struct {
	Username string `json:"username"`
	TeamID   uint   `json:"team_id"`
}

// Join POST /team/join
func (h *Handlers) Join(c *fiber.Ctx) error {
	var req JoinRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Username == "" || req.TeamID == 0 {
		return response.BadRequest(c, "Missing required fields")
	}
	joined, err := h.Service.Join(c.Context(), req.Username, req.TeamID)
	if err != nil {
		return response.FromError(c, err)
	}
	msg := "Joined team successfully"
	if !joined {
		msg = "User already a member of this team"
	}
	return response.Success(c, msg, fiber.Map{"joined": joined}, nil)
}
