package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(auth gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", auth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "username": GetUsername(c)})
	})
	return r
}

func call(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("u-1", "alice", "secret", time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateToken("u-1", "alice", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, "secret")
	assert.Error(t, err)
}

func TestJWTAuthRequiresToken(t *testing.T) {
	r := newRouter(NewJWTAuth(&JWTConfig{Secret: "secret"}))

	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "garbage").Code)

	token, err := GenerateToken("u-1", "alice", "secret", time.Minute)
	require.NoError(t, err)
	w := call(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u-1"`)
}

func TestOptionalJWTAuthAllowsAnonymous(t *testing.T) {
	r := newRouter(OptionalJWTAuth(&JWTConfig{Secret: "secret"}))

	w := call(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)

	w = call(r, "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)
}
