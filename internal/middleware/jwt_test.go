package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/todo-list-api/internal/models"
	"github.com/noah-isme/todo-list-api/internal/service"
)

const testSecret = "test-secret"

func testAuthService() *service.AuthService {
	return service.NewAuthService(nil, nil, nil, nil, service.AuthConfig{
		AccessTokenSecret: testSecret,
		AccessTokenExpiry: 15 * time.Minute,
		Issuer:            "todo-list-api",
	})
}

func signToken(t *testing.T, claims *models.JWTClaims, secret string, method jwt.SigningMethod) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedRouter(svc *service.AuthService, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(svc)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.JSON(http.StatusOK, gin.H{"userId": claims.UserID})
	})
	router.GET("/protected", handlers...)
	return router
}

func validClaims(role models.UserRole) *models.JWTClaims {
	now := time.Now()
	return &models.JWTClaims{
		UserID:   4,
		Username: "alice",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func TestJWTAcceptsValidToken(t *testing.T) {
	router := protectedRouter(testAuthService())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(models.RoleUser), testSecret, jwt.SigningMethodHS256))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":4`)
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	router := protectedRouter(testAuthService())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	router := protectedRouter(testAuthService())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	router := protectedRouter(testAuthService())

	claims := validClaims(models.RoleUser)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims, testSecret, jwt.SigningMethodHS256))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	router := protectedRouter(testAuthService())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(models.RoleUser), "other-secret", jwt.SigningMethodHS256))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolesAllowsMember(t *testing.T) {
	router := protectedRouter(testAuthService(), RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(models.RoleAdmin), testSecret, jwt.SigningMethodHS256))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesRejectsNonMember(t *testing.T) {
	router := protectedRouter(testAuthService(), RequireRoles(models.RoleSuperAdmin))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(models.RoleUser), testSecret, jwt.SigningMethodHS256))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

// A token carrying a role outside the closed set is forbidden even when the
// route would otherwise be reachable.
func TestRequireRolesRejectsUnknownRole(t *testing.T) {
	router := protectedRouter(testAuthService(), RequireRoles(models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(models.UserRole("OVERLORD")), testSecret, jwt.SigningMethodHS256))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}
