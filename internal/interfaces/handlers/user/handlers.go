package user

import (
	usersvc "papertrade-backend/internal/application/user"
	"papertrade-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultTradeLimit = 50
	maxTradeLimit     = 200
)

type Handlers struct {
	Service *usersvc.Service
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Register POST /register
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	u, err := h.Service.Register(c.Context(), usersvc.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "User registered successfully", fiber.Map{"user": u}, nil)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login POST /login
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	session, err := h.Service.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Login successful", session, nil)
}

// Overview GET /user?username= values every ledger the user can trade.
func (h *Handlers) Overview(c *fiber.Ctx) error {
	username := c.Query("username")
	if username == "" {
		return response.BadRequest(c, "username is required")
	}
	out, err := h.Service.Overview(c.Context(), username)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "User retrieved", out, nil)
}

// Trades GET /user/trades?username=&limit=
func (h *Handlers) Trades(c *fiber.Ctx) error {
	username := c.Query("username")
	if username == "" {
		return response.BadRequest(c, "username is required")
	}
	limit := c.QueryInt("limit", defaultTradeLimit)
	if limit <= 0 || limit > maxTradeLimit {
		limit = defaultTradeLimit
	}
	trades, err := h.Service.Trades(c.Context(), username, limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Trades retrieved", trades, fiber.Map{"count": len(trades), "limit": limit})
}
