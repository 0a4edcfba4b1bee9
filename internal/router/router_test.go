package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seat-desk-api/internal/app"
	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/pkg/config"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
)

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:       "test",
		APIPrefix: "/api/v1",
		JWT:       config.JWTConfig{Secret: "router-test", Expiration: time.Hour},
		Admin:     config.AdminConfig{Username: "admin", Password: "desk-admin"},
		Seats:     config.SeatsConfig{Total: 10, LockerPricePerMonth: 100},
		Roster:    config.RosterConfig{Backend: config.RosterBackendMemory},
		Storage: config.StorageConfig{
			Dir:             t.TempDir(),
			SignedURLSecret: "attachments",
			SignedURLTTL:    time.Minute,
			MaxImageWidth:   1024,
		},
		Dashboard: config.DashboardConfig{CacheTTL: time.Minute},
		RateLimit: config.RateLimitConfig{LoginCapacity: 5, LoginRefill: time.Second},
		SendGrid:  config.SendGridConfig{FromName: "Seat Desk"},
		Jobs:      config.JobsConfig{Workers: 1, Buffer: 8, Retries: 1},
	}
}

type client struct {
	t      *testing.T
	engine *gin.Engine
}

func (c client) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (c client) login(mobile, password string) string {
	c.t.Helper()
	rec, env := c.do(http.MethodPost, "/auth/login", "", map[string]string{"mobile": mobile, "password": password})
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.LoginResponse
	require.NoError(c.t, json.Unmarshal(env.Data, &resp))
	return resp.AccessToken
}

func (c client) admit(token, name, mobile string, seat int, slot string) (*httptest.ResponseRecorder, envelope) {
	return c.do(http.MethodPost, "/students", token, map[string]interface{}{
		"full_name":      name,
		"mobile":         mobile,
		"password":       "secret123",
		"seat_number":    seat,
		"plan_type":      "6H",
		"duration":       1,
		"start_date":     "2025-01-01",
		"assigned_slots": []string{slot},
	})
}

func newClient(t *testing.T) client {
	gin.SetMode(gin.TestMode)
	a, err := app.New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return client{t: t, engine: New(a)}
}

func TestDeskRoutesEndToEnd(t *testing.T) {
	c := newClient(t)

	rec, _ := c.do(http.MethodGet, "/seats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	admin := c.login("admin", "desk-admin")

	rec, env := c.admit(admin, "Asha", "9000000001", 3, "S1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var asha models.Student
	require.NoError(t, json.Unmarshal(env.Data, &asha))
	assert.Equal(t, int64(799), asha.AmountPaid)

	rec, env = c.admit(admin, "Ravi", "9000000002", 3, "S1")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(models.ConflictSlotOverlap), env.Error.Details["reason"])

	rec, env = c.admit(admin, "Ravi", "9000000002", 3, "S2")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ravi models.Student
	require.NoError(t, json.Unmarshal(env.Data, &ravi))

	rec, env = c.do(http.MethodGet, "/seats", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var seats []models.Seat
	require.NoError(t, json.Unmarshal(env.Data, &seats))
	require.Len(t, seats, 10)
	assert.Len(t, seats[2].Occupants, 2)

	rec, _ = c.do(http.MethodDelete, "/students/does-not-exist", admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = c.do(http.MethodGet, "/transactions", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMemberRoutesAreScoped(t *testing.T) {
	c := newClient(t)
	admin := c.login("admin", "desk-admin")

	rec, env := c.admit(admin, "Asha", "9000000001", 1, "S1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var asha models.Student
	require.NoError(t, json.Unmarshal(env.Data, &asha))
	rec, env = c.admit(admin, "Ravi", "9000000002", 2, "S1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ravi models.Student
	require.NoError(t, json.Unmarshal(env.Data, &ravi))

	member := c.login("9000000001", "secret123")

	rec, _ = c.do(http.MethodGet, "/me", member, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = c.do(http.MethodGet, "/students", member, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = c.do(http.MethodGet, "/students/"+asha.ID, member, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = c.do(http.MethodGet, "/students/"+ravi.ID, member, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = c.do(http.MethodPost, "/wifi", member, map[string]string{"ssid": "Annex"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublicRoutes(t *testing.T) {
	c := newClient(t)

	rec, _ := c.do(http.MethodGet, "/pricing", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = c.do(http.MethodPost, "/admissions", "", map[string]interface{}{
		"full_name":       "Meera",
		"mobile":          "9000000003",
		"plan_type":       "8H",
		"preferred_slots": []string{"S1", "S2"},
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = c.do(http.MethodPost, "/auth/login", "", map[string]string{"mobile": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
