package teams

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	teamsvc "papertrade-backend/internal/application/teams"
	"papertrade-backend/internal/domain"
	"papertrade-backend/internal/infrastructure/database"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTeamsTest(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	for _, name := range []string{"ann", "bob"} {
		require.NoError(t, db.Create(&domain.User{Username: name, PasswordHash: "x", CashBalance: decimal.NewFromInt(100000)}).Error)
	}
	h := &Handlers{Service: &teamsvc.Service{DB: db, StartingCash: decimal.NewFromInt(100000)}}
	app := fiber.New()
	app.Post("/team/create", h.Create)
	app.Post("/team/join", h.Join)
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

func TestCreateAndJoin(t *testing.T) {
	app, db := setupTeamsTest(t)
	status, result := post(t, app, "/team/create", map[string]interface{}{"username": "ann", "team_name": "  Bulls "})
	require.Equal(t, 201, status)
	data, _ := result["data"].(map[string]interface{})
	teamID := data["team_id"]
	assert.Equal(t, float64(1), teamID)

	status, result = post(t, app, "/team/join", map[string]interface{}{"username": "bob", "team_id": teamID})
	assert.Equal(t, 200, status)
	assert.Equal(t, "Joined team successfully", result["message"])

	status, result = post(t, app, "/team/join", map[string]interface{}{"username": "bob", "team_id": teamID})
	assert.Equal(t, 200, status)
	assert.Equal(t, "User already a member of this team", result["message"])

	var n int64
	require.NoError(t, db.Model(&domain.TeamMember{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestCreate_BlankName(t *testing.T) {
	app, _ := setupTeamsTest(t)
	status, result := post(t, app, "/team/create", map[string]interface{}{"username": "ann", "team_name": " "})
	assert.Equal(t, 400, status)
	errBody, _ := result["error"].(map[string]interface{})
	assert.Equal(t, "Team name is required", errBody["message"])
}

func TestJoin_Errors(t *testing.T) {
	app, _ := setupTeamsTest(t)
	status, _ := post(t, app, "/team/join", map[string]interface{}{"username": "bob", "team_id": 42})
	assert.Equal(t, 404, status)
	status, _ = post(t, app, "/team/join", map[string]interface{}{"username": "nobody", "team_id": 1})
	assert.Equal(t, 404, status)
	status, _ = post(t, app, "/team/join", map[string]interface{}{"username": "bob"})
	assert.Equal(t, 400, status)
}
