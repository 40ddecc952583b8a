package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voucher-backend/internal/shared/response"
	"voucher-backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type caller struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Admin  bool   `json:"admin"`
}

func newRouter(tokens *jwt.Manager) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery())

	whoami := func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, caller{
			UserID: id.String(),
			Email:  c.GetString(ContextKeyEmail),
			Role:   c.GetString(ContextKeyRole),
			Admin:  IsAdmin(c),
		})
	}

	auth := r.Group("/", AuthMiddleware(tokens))
	auth.GET("/me", whoami)
	auth.GET("/admin", AdminMiddleware(), whoami)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.False(t, body.Success)
	return body.Error.Code
}

func TestAuthMiddleware(t *testing.T) {
	tokens := jwt.NewManager("test-secret", time.Hour)
	r := newRouter(tokens)
	userID := uuid.New()

	valid, err := tokens.GenerateAccessToken(userID.String(), "alice@example.com", "customer")
	require.NoError(t, err)
	foreign, err := jwt.NewManager("other", time.Hour).GenerateAccessToken(userID.String(), "alice@example.com", "customer")
	require.NoError(t, err)
	badID, err := tokens.GenerateAccessToken("not-a-uuid", "alice@example.com", "customer")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		w := do(r, "/me", "Bearer "+valid)
		require.Equal(t, http.StatusOK, w.Code)

		var got caller
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, caller{UserID: userID.String(), Email: "alice@example.com", Role: "customer"}, got)
	})

	rejected := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic " + valid,
		"no token":       "Bearer ",
		"wrong secret":   "Bearer " + foreign,
		"garbage":        "Bearer not.a.jwt",
		"non-uuid user":  "Bearer " + badID,
	}
	for name, header := range rejected {
		t.Run(name, func(t *testing.T) {
			w := do(r, "/me", header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
		})
	}
}

func TestAdminMiddleware(t *testing.T) {
	tokens := jwt.NewManager("test-secret", time.Hour)
	r := newRouter(tokens)

	customer, err := tokens.GenerateAccessToken(uuid.NewString(), "bob@example.com", "customer")
	require.NoError(t, err)
	admin, err := tokens.GenerateAccessToken(uuid.NewString(), "root@example.com", "admin")
	require.NoError(t, err)

	w := do(r, "/admin", "Bearer "+customer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))

	w = do(r, "/admin", "Bearer "+admin)
	require.Equal(t, http.StatusOK, w.Code)
	var got caller
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Admin)
}

func TestRequestID(t *testing.T) {
	r := newRouter(jwt.NewManager("s", time.Hour))

	w := do(r, "/me", "")
	generated := w.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
}

func TestRecovery(t *testing.T) {
	r := newRouter(jwt.NewManager("s", time.Hour))

	w := do(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "SYS_001", errorCode(t, w))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://shop.example"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
