package competitions

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	compsvc "papertrade-backend/internal/application/competitions"
	"papertrade-backend/internal/application/leaderboard"
	"papertrade-backend/internal/application/valuation"
	"papertrade-backend/internal/domain"
	"papertrade-backend/internal/infrastructure/database"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type flatOracle float64

func (f flatOracle) GetPrice(ctx context.Context, symbol string) (float64, error) {
	return float64(f), nil
}

var now = time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC)

func setupCompetitionsTest(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	for _, u := range []domain.User{
		{Username: "root", PasswordHash: "x", IsAdmin: true, CashBalance: decimal.NewFromInt(100000)},
		{Username: "ann", PasswordHash: "x", CashBalance: decimal.NewFromInt(100000)},
	} {
		u := u
		require.NoError(t, db.Create(&u).Error)
	}

	cash := decimal.NewFromInt(100000)
	val := &valuation.Service{DB: db, Oracle: flatOracle(10)}
	h := &Handlers{
		Service: &compsvc.Service{DB: db, StartingCash: cash, Now: func() time.Time { return now }},
		Board:   &leaderboard.Service{DB: db, Valuation: val},
	}
	app := fiber.New()
	app.Post("/competition/create", h.Create)
	app.Post("/competition/join", h.Join)
	app.Post("/competition/team/join", h.JoinTeam)
	app.Get("/competitions", h.List)
	app.Get("/featured_competitions", h.Featured)
	app.Get("/quick_pics", h.QuickPics)
	app.Get("/competition/:code/leaderboard", h.Leaderboard)
	app.Get("/competition/:code/team_leaderboard", h.TeamLeaderboard)
	return app, db
}

func do(t *testing.T, app *fiber.App, method, path string, body map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()
	var req = httptest.NewRequest(method, path, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp.StatusCode, result
}

func createCompetition(t *testing.T, app *fiber.App, body map[string]interface{}) string {
	t.Helper()
	status, result := do(t, app, "POST", "/competition/create", body)
	require.Equal(t, 201, status)
	data, _ := result["data"].(map[string]interface{})
	code, _ := data["competition_code"].(string)
	require.Len(t, code, 8)
	return code
}

func TestCreate_ReturnsCode(t *testing.T) {
	app, _ := setupCompetitionsTest(t)
	createCompetition(t, app, map[string]interface{}{"username": "ann", "competition_name": "Spring Cup", "start_date": "2024-03-01", "end_date": "2024-03-31"})
}

func TestCreate_NonAdminCannotFeature(t *testing.T) {
	app, _ := setupCompetitionsTest(t)
	status, result := do(t, app, "POST", "/competition/create", map[string]interface{}{"username": "ann", "featured": true})
	assert.Equal(t, 403, status)
	assert.Equal(t, "error", result["status"])
}

func TestCreate_BadDates(t *testing.T) {
	app, _ := setupCompetitionsTest(t)
	status, _ := do(t, app, "POST", "/competition/create", map[string]interface{}{"username": "ann", "start_date": "2024-04-01", "end_date": "2024-03-01"})
	assert.Equal(t, 400, status)
	status, _ = do(t, app, "POST", "/competition/create", map[string]interface{}{"username": "ann", "start_date": "April"})
	assert.Equal(t, 400, status)
}

func TestJoin_Idempotent(t *testing.T) {
	app, _ := setupCompetitionsTest(t)
	code := createCompetition(t, app, map[string]interface{}{"username": "root"})

	status, result := do(t, app, "POST", "/competition/join", map[string]interface{}{"username": "ann", "competition_code": code})
	assert.Equal(t, 200, status)
	assert.Equal(t, "Joined competition successfully", result["message"])

	status, result = do(t, app, "POST", "/competition/join", map[string]interface{}{"username": "ann", "competition_code": code})
	assert.Equal(t, 200, status)
	assert.Equal(t, "User already joined this competition", result["message"])
}

func TestJoin_UnknownCode(t *testing.T) {
	app, _ := setupCompetitionsTest(t)
	status, _ := do(t, app, "POST", "/competition/join", map[string]interface{}{"username": "ann", "competition_code": "nope0000"})
	assert.Equal(t, 404, status)
}

func TestJoinTeam_RequiresMembership(t *testing.T) {
	app, db := setupCompetitionsTest(t)
	code := createCompetition(t, app, map[string]interface{}{"username": "root"})
	team := domain.Team{Name: "alpha", CreatedBy: 1, CashBalance: decimal.NewFromInt(100000)}
	require.NoError(t, db.Create(&team).Error)

	status, _ := do(t, app, "POST", "/competition/team/join", map[string]interface{}{"username": "ann", "competition_code": code, "team_id": team.ID})
	assert.Equal(t, 403, status)

	var ann domain.User
	require.NoError(t, db.Where("username = ?", "ann").First(&ann).Error)
	require.NoError(t, db.Create(&domain.TeamMember{TeamID: team.ID, UserID: ann.ID}).Error)
	status, result := do(t, app, "POST", "/competition/team/join", map[string]interface{}{"username": "ann", "competition_code": code, "team_id": team.ID})
	assert.Equal(t, 200, status)
	assert.Equal(t, "Team joined competition successfully", result["message"])
}

func TestListings(t *testing.T) {
	app, db := setupCompetitionsTest(t)
	createCompetition(t, app, map[string]interface{}{"username": "root", "featured": true})
	createCompetition(t, app, map[string]interface{}{"username": "ann"})

	start := now.Add(90 * time.Second)
	name := domain.QuickPicsName
	require.NoError(t, db.Create(&domain.Competition{Code: "qp000001", Name: &name, CreatedBy: 1, IsOpen: true, Featured: true, StartDate: &start}).Error)

	status, result := do(t, app, "GET", "/competitions", nil)
	assert.Equal(t, 200, status)
	assert.Len(t, result["data"], 3)

	_, result = do(t, app, "GET", "/featured_competitions", nil)
	assert.Len(t, result["data"], 2)

	_, result = do(t, app, "GET", "/quick_pics", nil)
	picks, _ := result["data"].([]interface{})
	require.Len(t, picks, 1)
	pick, _ := picks[0].(map[string]interface{})
	assert.Equal(t, "qp000001", pick["code"])
	assert.Equal(t, float64(90), pick["countdown_seconds"])
}

func getBoard(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestLeaderboard(t *testing.T) {
	app, db := setupCompetitionsTest(t)
	code := createCompetition(t, app, map[string]interface{}{"username": "root"})
	do(t, app, "POST", "/competition/join", map[string]interface{}{"username": "ann", "competition_code": code})
	do(t, app, "POST", "/competition/join", map[string]interface{}{"username": "root", "competition_code": code})
	require.NoError(t, db.Model(&domain.CompetitionMember{}).Where("user_id = ?", 1).Update("cash_balance", decimal.NewFromInt(50000)).Error)

	status, body := getBoard(t, app, "/competition/"+code+"/leaderboard")
	assert.Equal(t, 200, status)
	var board []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &board))
	require.Len(t, board, 2)
	assert.Equal(t, "ann", board[0]["name"])
	assert.Equal(t, float64(100000), board[0]["total_value"])
	assert.Equal(t, "root", board[1]["name"])
	assert.Equal(t, float64(50000), board[1]["total_value"])

	status, body = getBoard(t, app, "/competition/"+code+"/team_leaderboard")
	assert.Equal(t, 200, status)
	assert.JSONEq(t, "[]", string(body))

	status, result := do(t, app, "GET", "/competition/missing0/leaderboard", nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "error", result["status"])
}

func TestLeaderboard_FractionalValuesAreNumbers(t *testing.T) {
	app, db := setupCompetitionsTest(t)
	code := createCompetition(t, app, map[string]interface{}{"username": "root"})
	do(t, app, "POST", "/competition/join", map[string]interface{}{"username": "ann", "competition_code": code})
	require.NoError(t, db.Model(&domain.CompetitionMember{}).Where("user_id = ?", 2).Update("cash_balance", decimal.RequireFromString("99012.5")).Error)

	_, body := getBoard(t, app, "/competition/"+code+"/leaderboard")
	assert.JSONEq(t, `[{"name":"ann","total_value":99012.5}]`, string(body))
}
