package trading

import (
	"fmt"
	"strings"

	"papertrade-backend/internal/application/accounts"
	"papertrade-backend/internal/application/ledger"
	"papertrade-backend/internal/domain"
	"papertrade-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Ledger *ledger.Service
}

// TradeRequest is the body of every buy/sell route. CompetitionCode and
// TeamID are read only by the routes whose account kind needs them.
type TradeRequest struct {
	Username        string `json:"username"`
	Symbol          string `json:"symbol"`
	Quantity        int64  `json:"quantity"`
	CompetitionCode string `json:"competition_code"`
	TeamID          uint   `json:"team_id"`
}

// Trade returns the handler for one account kind and side, e.g.
// POST /competition/team/sell is Trade(domain.AccountCompetitionTeam, domain.SideSell).
func (h *Handlers) Trade(kind domain.AccountKind, side domain.Side) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TradeRequest
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
		if body.Username == "" || body.Symbol == "" {
			return response.BadRequest(c, "Missing required fields")
		}
		ref := accounts.Ref{Kind: kind, Username: body.Username}
		switch kind {
		case domain.AccountCompetitionMember:
			ref.CompetitionCode = body.CompetitionCode
		case domain.AccountTeam:
			ref.TeamID = body.TeamID
		case domain.AccountCompetitionTeam:
			ref.CompetitionCode = body.CompetitionCode
			ref.TeamID = body.TeamID
		}

		res, err := h.Ledger.Trade(c.Context(), ledger.TradeRequest{
			Account:  ref,
			Symbol:   body.Symbol,
			Quantity: body.Quantity,
			Side:     side,
		})
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, tradeMessage(res), fiber.Map{
			"cash_balance": res.CashBalance,
			"trade":        res,
		}, nil)
	}
}

// Stock GET /stock/:symbol returns the oracle's current price.
func (h *Handlers) Stock(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	price, err := h.Ledger.Quote(c.Context(), symbol)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Quote retrieved", fiber.Map{"symbol": strings.ToUpper(symbol), "price": price}, nil)
}

func tradeMessage(res *ledger.TradeResult) string {
	verb := "Bought"
	if res.Side == domain.SideSell {
		verb = "Sold"
	}
	return fmt.Sprintf("%s %d shares of %s at %s", verb, res.Quantity, res.Symbol, res.Price.StringFixed(2))
}
