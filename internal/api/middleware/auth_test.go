package middleware_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swagly/proof-validator/internal/api/middleware"
	"github.com/swagly/proof-validator/internal/logger"
)

func generateKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	key, publicPEM := generateKey(t)
	otherKey, _ := generateKey(t)

	auth := middleware.NewAuthenticator(middleware.AuthConfig{
		JWTPublicKey: publicPEM,
		APIKeys:      []string{"", "admin-key"},
	})

	valid := signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	notYetValid := signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		NotBefore: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	noSubject := signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	wrongKey := signToken(t, otherKey, jwt.SigningMethodRS256, jwt.RegisteredClaims{Subject: "user-1"})

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		success  bool
		authType string
		subject  string
	}{
		{"valid jwt", "Bearer " + valid, true, middleware.AUTH_TYPE_JWT, "user-1"},
		{"case insensitive scheme", "bearer " + valid, true, middleware.AUTH_TYPE_JWT, "user-1"},
		{"expired jwt", "Bearer " + expired, false, "", ""},
		{"jwt not yet valid", "Bearer " + notYetValid, false, "", ""},
		{"jwt without subject", "Bearer " + noSubject, false, "", ""},
		{"jwt signed by another key", "Bearer " + wrongKey, false, "", ""},
		{"hmac jwt", "Bearer " + hmacToken, false, "", ""},
		{"valid api key", "ApiKey admin-key", true, middleware.AUTH_TYPE_APIKEY, ""},
		{"invalid api key", "ApiKey nope", false, "", ""},
		{"empty api key never matches", "ApiKey ", false, "", ""},
		{"missing header", "", false, "", ""},
		{"malformed header", "Bearer", false, "", ""},
		{"unsupported scheme", "Basic dXNlcjpwYXNz", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auth.Authenticate(tt.header)
			assert.Equal(t, tt.success, result.Success)
			assert.Equal(t, tt.authType, result.AuthType)
			assert.Equal(t, tt.subject, result.AuthSubject)
			if !tt.success {
				assert.Error(t, result.Error)
			}
		})
	}
}

func TestAuthenticate_WithoutPublicKey(t *testing.T) {
	key, _ := generateKey(t)
	auth := middleware.NewAuthenticator(middleware.AuthConfig{APIKeys: []string{"admin-key"}})

	result := auth.Authenticate("Bearer " + signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{Subject: "user-1"}))
	assert.False(t, result.Success)
	assert.ErrorContains(t, result.Error, "not configured")

	assert.True(t, auth.Authenticate("ApiKey admin-key").Success)

	broken := middleware.NewAuthenticator(middleware.AuthConfig{JWTPublicKey: "not a pem"})
	result = broken.Authenticate("Bearer token")
	assert.ErrorContains(t, result.Error, "failed to parse RSA public key")
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	key, publicPEM := generateKey(t)

	router := gin.New()
	router.GET("/whoami", middleware.Auth(middleware.AuthConfig{JWTPublicKey: publicPEM, APIKeys: []string{"admin-key"}}), func(c *gin.Context) {
		subject, _ := middleware.AuthSubject(c)
		c.JSON(http.StatusOK, gin.H{"type": middleware.AuthType(c), "subject": subject})
	})

	t.Run("rejects unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
	})

	t.Run("exposes jwt subject", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{Subject: "user-7"}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"type":"jwt","subject":"user-7"}`, w.Body.String())
	})

	t.Run("api key has no subject", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "ApiKey admin-key")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"type":"apikey","subject":""}`, w.Body.String())
	})
}

func TestRequestIDAndRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery(), middleware.Logger())
	router.GET("/panic", func(c *gin.Context) { panic("boom") })
	var loggedID string
	router.GET("/ok", func(c *gin.Context) {
		loggedID = logger.RequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"internal_error"`)
	assert.NotEmpty(t, w.Header().Get(middleware.REQUEST_ID_HEADER))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(middleware.REQUEST_ID_HEADER, "req-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(middleware.REQUEST_ID_HEADER))
	assert.Equal(t, "req-123", loggedID)
}
