package trading

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"papertrade-backend/internal/application/ledger"
	"papertrade-backend/internal/domain"
	"papertrade-backend/internal/infrastructure/database"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeOracle struct {
	prices map[string]float64
}

func (f *fakeOracle) GetPrice(ctx context.Context, symbol string) (float64, error) {
	p, ok := f.prices[symbol]
	if !ok {
		return 0, errors.New("unknown symbol")
	}
	return p, nil
}

var now = time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC)

func setupTradingTest(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	cash := decimal.NewFromInt(10000)
	ann := domain.User{Username: "ann", PasswordHash: "x", CashBalance: cash}
	require.NoError(t, db.Create(&ann).Error)
	start := now.Add(-time.Hour)
	comp := domain.Competition{Code: "c0ffee00", CreatedBy: ann.ID, IsOpen: true, StartDate: &start}
	require.NoError(t, db.Create(&comp).Error)
	require.NoError(t, db.Create(&domain.CompetitionMember{CompetitionID: comp.ID, UserID: ann.ID, CashBalance: cash}).Error)
	team := domain.Team{Name: "alpha", CreatedBy: ann.ID, CashBalance: cash}
	require.NoError(t, db.Create(&team).Error)
	require.NoError(t, db.Create(&domain.TeamMember{TeamID: team.ID, UserID: ann.ID}).Error)
	require.NoError(t, db.Create(&domain.CompetitionTeam{CompetitionID: comp.ID, TeamID: team.ID, CashBalance: cash}).Error)

	h := &Handlers{Ledger: &ledger.Service{
		DB:           db,
		Oracle:       &fakeOracle{prices: map[string]float64{"AAPL": 100}},
		Now:          func() time.Time { return now },
		PriceTimeout: time.Second,
		TxTimeout:    time.Second,
	}}
	app := fiber.New()
	app.Post("/buy", h.Trade(domain.AccountGlobal, domain.SideBuy))
	app.Post("/sell", h.Trade(domain.AccountGlobal, domain.SideSell))
	app.Post("/competition/buy", h.Trade(domain.AccountCompetitionMember, domain.SideBuy))
	app.Post("/team/buy", h.Trade(domain.AccountTeam, domain.SideBuy))
	app.Post("/competition/team/buy", h.Trade(domain.AccountCompetitionTeam, domain.SideBuy))
	app.Get("/stock/:symbol", h.Stock)
	return app, db
}

func post(t *testing.T, app *fiber.App, path string, body map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp.StatusCode, result
}

func TestBuy_Global(t *testing.T) {
	app, _ := setupTradingTest(t)
	status, result := post(t, app, "/buy", map[string]interface{}{"username": "ann", "symbol": "aapl", "quantity": 5})
	assert.Equal(t, 200, status)
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "Bought 5 shares of AAPL at 100.00", result["message"])
	data, _ := result["data"].(map[string]interface{})
	assert.Equal(t, "9500", data["cash_balance"])
}

func TestBuy_EveryAccountKind(t *testing.T) {
	app, _ := setupTradingTest(t)
	for _, tc := range []struct {
		path string
		body map[string]interface{}
	}{
		{"/competition/buy", map[string]interface{}{"competition_code": "c0ffee00"}},
		{"/team/buy", map[string]interface{}{"team_id": 1}},
		{"/competition/team/buy", map[string]interface{}{"competition_code": "c0ffee00", "team_id": 1}},
	} {
		tc.body["username"] = "ann"
		tc.body["symbol"] = "AAPL"
		tc.body["quantity"] = 2
		status, result := post(t, app, tc.path, tc.body)
		assert.Equal(t, 200, status, tc.path)
		data, _ := result["data"].(map[string]interface{})
		assert.Equal(t, "9800", data["cash_balance"], tc.path)
	}
}

func TestSell_WithoutHoldingIs404(t *testing.T) {
	app, _ := setupTradingTest(t)
	status, result := post(t, app, "/sell", map[string]interface{}{"username": "ann", "symbol": "AAPL", "quantity": 1})
	assert.Equal(t, 404, status)
	assert.Equal(t, "error", result["status"])
}

func TestBuy_InsufficientFundsIs400(t *testing.T) {
	app, db := setupTradingTest(t)
	status, result := post(t, app, "/buy", map[string]interface{}{"username": "ann", "symbol": "AAPL", "quantity": 101})
	assert.Equal(t, 400, status)
	errBody, _ := result["error"].(map[string]interface{})
	assert.Equal(t, "Insufficient funds", errBody["message"])

	var ann domain.User
	require.NoError(t, db.Where("username = ?", "ann").First(&ann).Error)
	assert.True(t, ann.CashBalance.Equal(decimal.NewFromInt(10000)))
}

func TestBuy_UnknownSymbolIs502(t *testing.T) {
	app, _ := setupTradingTest(t)
	status, _ := post(t, app, "/buy", map[string]interface{}{"username": "ann", "symbol": "ZZZZ", "quantity": 1})
	assert.Equal(t, 502, status)
}

func TestBuy_MissingFields(t *testing.T) {
	app, _ := setupTradingTest(t)
	status, _ := post(t, app, "/buy", map[string]interface{}{"symbol": "AAPL"})
	assert.Equal(t, 400, status)
}

func TestBuy_NotCompetitionMember(t *testing.T) {
	app, db := setupTradingTest(t)
	require.NoError(t, db.Create(&domain.User{Username: "bob", PasswordHash: "x", CashBalance: decimal.NewFromInt(1)}).Error)
	status, _ := post(t, app, "/competition/buy", map[string]interface{}{"username": "bob", "symbol": "AAPL", "quantity": 1, "competition_code": "c0ffee00"})
	assert.Equal(t, 404, status)
}

func TestStock(t *testing.T) {
	app, _ := setupTradingTest(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/stock/aapl", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	data, _ := result["data"].(map[string]interface{})
	assert.Equal(t, "AAPL", data["symbol"])
	assert.Equal(t, "100", data["price"])
}
