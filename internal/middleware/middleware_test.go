package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seat-desk-api/internal/models"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/:id", append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })...)
	return r
}

func perform(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAndRBAC(t *testing.T) {
	student := stubValidator{claims: &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}}
	r := newRouter(JWT(student), RBAC(string(models.RoleAdmin), "SELF"))

	assert.Equal(t, http.StatusUnauthorized, perform(r, "/students/stu-1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "/students/stu-1", "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "/students/stu-1", "Bearer bad").Code)
	assert.Equal(t, http.StatusOK, perform(r, "/students/stu-1", "Bearer good").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, "/students/stu-2", "Bearer good").Code)

	admin := stubValidator{claims: &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}}
	r = newRouter(JWT(admin), RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusOK, perform(r, "/students/stu-2", "Bearer good").Code)
}

type countingLimiter struct {
	budget int
	err    error
}

func (l *countingLimiter) Allow(context.Context, string) (bool, int64, time.Duration, error) {
	if l.err != nil {
		return false, 0, 0, l.err
	}
	if l.budget == 0 {
		return false, 0, 1500 * time.Millisecond, nil
	}
	l.budget--
	return true, int64(l.budget), 0, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{budget: 1}
	r := newRouter(RateLimit(limiter, 1, nil))

	first := perform(r, "/students/x", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := perform(r, "/students/x", "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "2", second.Header().Get("Retry-After"))

	limiter.err = errors.New("redis down")
	assert.Equal(t, http.StatusOK, perform(r, "/students/x", "").Code)

	open := newRouter(RateLimit(nil, 1, nil))
	assert.Equal(t, http.StatusOK, perform(open, "/students/x", "").Code)
	assert.Nil(t, NewTokenBucket(nil, "login:", 5, time.Second))
}
