package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(validate TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(validate), func(c *gin.Context) {
		userID := c.MustGet(ContextUserID).(uuid.UUID)
		email := c.MustGet(ContextUserEmail).(string)
		c.JSON(http.StatusOK, gin.H{"user_id": userID.String(), "email": email})
	})
	return r
}

func get(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTSetsIdentityInContext(t *testing.T) {
	userID := uuid.New()
	var gotToken string
	r := newAuthRouter(func(token string) (uuid.UUID, string, error) {
		gotToken = token
		return userID, "ana@example.com", nil
	})

	w := get(r, "Bearer tok-123")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok-123", gotToken)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), "ana@example.com")
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	r := newAuthRouter(func(string) (uuid.UUID, string, error) {
		t.Fatal("validator must not run without a header")
		return uuid.Nil, "", nil
	})
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
}

func TestJWTRejectsNonBearerScheme(t *testing.T) {
	r := newAuthRouter(func(string) (uuid.UUID, string, error) {
		t.Fatal("validator must not run for a non-bearer scheme")
		return uuid.Nil, "", nil
	})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Basic dXNlcjpwYXNz").Code)
}

func TestJWTRejectsInvalidToken(t *testing.T) {
	r := newAuthRouter(func(string) (uuid.UUID, string, error) {
		return uuid.Nil, "", errors.New("expired")
	})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer bad").Code)
}
