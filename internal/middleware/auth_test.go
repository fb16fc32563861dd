package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/apperr"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
)

type fakeAuth struct {
	user models.User
	err  error
}

func (f fakeAuth) Authenticate(ctx context.Context, token string) (models.User, error) {
	return f.user, f.err
}

func setupRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthMiddleware(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt("userID")})
	})
	router.GET("/admin", AuthMiddleware(auth), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func get(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	router := setupRouter(fakeAuth{user: models.User{ID: 1}})
	rec := get(router, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	router := setupRouter(fakeAuth{user: models.User{ID: 1}})
	rec := get(router, "/protected", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	router := setupRouter(fakeAuth{err: apperr.ErrUnauthenticated})
	rec := get(router, "/protected", "Bearer bad-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareBannedUser(t *testing.T) {
	router := setupRouter(fakeAuth{err: apperr.ErrForbidden})
	rec := get(router, "/protected", "Bearer token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	router := setupRouter(fakeAuth{user: models.User{ID: 7}})
	rec := get(router, "/protected", "Bearer token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
}

func TestRequireAdminBlocksRegularUser(t *testing.T) {
	router := setupRouter(fakeAuth{user: models.User{ID: 7}})
	rec := get(router, "/admin", "Bearer token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	router := setupRouter(fakeAuth{user: models.User{ID: 7, IsAdmin: true}})
	rec := get(router, "/admin", "Bearer token")
	assert.Equal(t, http.StatusOK, rec.Code)
}
