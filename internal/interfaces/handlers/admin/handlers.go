package admin

import (
	compsvc "papertrade-backend/internal/application/competitions"
	teamsvc "papertrade-backend/internal/application/teams"
	usersvc "papertrade-backend/internal/application/user"
	"papertrade-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the admin routes. Every route names its acting admin via
// admin_username (query string for GET, body for POST); the services check
// the flag on that user.
type Handlers struct {
	Competitions *compsvc.Service
	Teams        *teamsvc.Service
	Users        *usersvc.Service
}

type Request struct {
	AdminUsername   string `json:"admin_username"`
	Username        string `json:"username"`
	CompetitionCode string `json:"competition_code"`
	TeamID          uint   `json:"team_id"`
	IsOpen          *bool  `json:"is_open"`
	Featured        *bool  `json:"featured"`
	Secret          string `json:"secret"`
}

// ListCompetitions GET /admin/competitions?admin_username=
func (h *Handlers) ListCompetitions(c *fiber.Ctx) error {
	comps, err := h.Competitions.AdminList(c.Context(), c.Query("admin_username"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Competitions retrieved", comps, fiber.Map{"count": len(comps)})
}

// ListUsers GET /users?admin_username=
func (h *Handlers) ListUsers(c *fiber.Ctx) error {
	users, err := h.Users.List(c.Context(), c.Query("admin_username"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Users retrieved", users, fiber.Map{"count": len(users)})
}

// Stats GET /admin/stats?admin_username=
func (h *Handlers) Stats(c *fiber.Ctx) error {
	stats, err := h.Users.Stats(c.Context(), c.Query("admin_username"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Stats retrieved", stats, nil)
}

// DeleteCompetition POST /admin/delete_competition
func (h *Handlers) DeleteCompetition(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CompetitionCode == "" {
		return response.BadRequest(c, "Missing required fields")
	}
	if err := h.Competitions.Delete(c.Context(), req.AdminUsername, req.CompetitionCode); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Competition deleted successfully", nil, nil)
}

// DeleteUser POST /admin/delete_user
func (h *Handlers) DeleteUser(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Username == "" {
		return response.BadRequest(c, "Missing required fields")
	}
	if err := h.Users.Delete(c.Context(), req.AdminUsername, req.Username); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "User deleted successfully", nil, nil)
}

// UpdateCompetitionOpen POST /admin/update_competition_open
func (h *Handlers) UpdateCompetitionOpen(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CompetitionCode == "" || req.IsOpen == nil {
		return response.BadRequest(c, "Missing required fields")
	}
	if err := h.Competitions.SetOpen(c.Context(), req.AdminUsername, req.CompetitionCode, *req.IsOpen); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Competition open status updated", fiber.Map{"is_open": *req.IsOpen}, nil)
}

// UpdateFeaturedStatus POST /admin/update_featured_status
func (h *Handlers) UpdateFeaturedStatus(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CompetitionCode == "" || req.Featured == nil {
		return response.BadRequest(c, "Missing required fields")
	}
	if err := h.Competitions.SetFeatured(c.Context(), req.AdminUsername, req.CompetitionCode, *req.Featured); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Competition featured status updated", fiber.Map{"featured": *req.Featured}, nil)
}

// RemoveFromCompetition POST /admin/remove_user_from_competition
func (h *Handlers) RemoveFromCompetition(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Username == "" || req.CompetitionCode == "" {
		return response.BadRequest(c, "Missing required fields")
	}
	if err := h.Competitions.RemoveMember(c.Context(), req.AdminUsername, req.Username, req.CompetitionCode); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "User removed from competition", nil, nil)
}

// RemoveFromTeam POST /admin/remove_user_from_team
func (h *Handlers) RemoveFromTeam(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Username == "" || req.TeamID == 0 {
		return response.BadRequest(c, "Missing required fields")
	}
	if err := h.Teams.RemoveMember(c.Context(), req.AdminUsername, req.Username, req.TeamID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "User removed from team", nil, nil)
}

// SetAdmin POST /admin/set_admin promotes a user when the secret matches.
func (h *Handlers) SetAdmin(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Username == "" || req.Secret == "" {
		return response.BadRequest(c, "Missing required fields")
	}
	if err := h.Users.SetAdmin(c.Context(), req.Secret, req.Username); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "User promoted to admin", nil, nil)
}
