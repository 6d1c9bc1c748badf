package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/auth-space/core/internal/middleware"
	"github.com/auth-space/core/internal/models"
	"github.com/auth-space/core/internal/modules/auth"
	"github.com/auth-space/core/internal/modules/user"
	"github.com/auth-space/core/internal/pkg/session"
	"github.com/auth-space/core/internal/pkg/signer"
	"github.com/auth-space/core/internal/pkg/tokenstore"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryUserStore struct {
	users map[string]*models.UserModel
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[string]*models.UserModel{}}
}

func (m *memoryUserStore) FindByEmail(_ context.Context, email string) (*models.UserModel, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *memoryUserStore) RecordLogin(context.Context, string, string) error { return nil }

func (m *memoryUserStore) Insert(_ context.Context, u *models.UserModel) error {
	if _, exists := m.users[u.Email]; exists {
		return user.ErrDuplicateEmail
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	m.users[u.Email] = u
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sg, err := signer.New(signer.Config{Secret: "test-secret", Algorithm: "HS256"})
	require.NoError(t, err)

	users := newMemoryUserStore()
	manager := session.NewManager(users, sg, tokenstore.New(rdb), time.Hour, zap.NewNop())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	handler := auth.NewHandler(auth.NewService(users), manager)
	handler.RegisterRoutes(api, middleware.Auth(manager))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, mr
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func registerAndLogin(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()

	resp := postJSON(t, srv.URL+"/api/v1/users/register", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/v1/users/token", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, "bearer", body["token_type"])
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func getProtected(t *testing.T, srv *httptest.Server, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/users/protected", nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/users/register", gin.H{"email": "a@x.com", "password": "p1secret"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode(t, resp)
	require.Equal(t, "a@x.com", first["email"])
	require.NotEmpty(t, first["id"])

	resp = postJSON(t, srv.URL+"/api/v1/users/register", gin.H{"email": "a@x.com", "password": "p2secret"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, "duplicate_email", body["error"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/users/register", gin.H{"email": "a@x.com", "password": "p1secret"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/v1/users/token", gin.H{"email": "a@x.com", "password": "wrongpw"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, "invalid_credentials", body["error"])
}

func TestProtectedRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv, "a@x.com", "p1secret")

	resp := getProtected(t, srv, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, "a@x.com", body["identity"])
}

func TestProtectedWithoutTokenUnauthorized(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := getProtected(t, srv, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, "missing_token", body["error"])
}

func TestLogoutInvalidatesToken(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv, "a@x.com", "p1secret")

	resp := postJSON(t, srv.URL+"/api/v1/users/logout", gin.H{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = getProtected(t, srv, token)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, "revoked", body["error"])

	// Logging out again still succeeds.
	resp = postJSON(t, srv.URL+"/api/v1/users/logout", gin.H{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestSecondLoginSupersedesFirstToken(t *testing.T) {
	srv, _ := newTestServer(t)
	first := registerAndLogin(t, srv, "a@x.com", "p1secret")

	resp := postJSON(t, srv.URL+"/api/v1/users/token", gin.H{"email": "a@x.com", "password": "p1secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second, _ := decode(t, resp)["access_token"].(string)
	require.NotEqual(t, first, second)

	resp = getProtected(t, srv, first)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "superseded", decode(t, resp)["error"])

	resp = getProtected(t, srv, second)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestStoreOutageIsServiceUnavailableNotRevoked(t *testing.T) {
	srv, mr := newTestServer(t)
	token := registerAndLogin(t, srv, "a@x.com", "p1secret")

	mr.Close()

	resp := getProtected(t, srv, token)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, "store_unavailable", body["error"])
}
