package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfsync/shelfsync/src/internal/adapters/memory"
	"github.com/shelfsync/shelfsync/src/internal/config"
	"github.com/shelfsync/shelfsync/src/internal/domain"
	"github.com/shelfsync/shelfsync/src/internal/services"
)

type testServer struct {
	engine *gin.Engine
	sync   *services.SyncService
	users  *memory.InMemoryUserRepo
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := memory.NewUserRepo()
	require.NoError(t, users.Create(t.Context(), &domain.User{
		ID:           "user-alice",
		Username:     "alice",
		PasswordHash: services.StringMD5("secret"),
	}))

	syncSvc := services.NewSyncService(memory.NewProgressStore(), memory.NewLibraryRepo(), memory.NewUserDataRepo())
	auth := NewAuthenticator(users, config.OIDCConfig{})
	api := NewAPI(syncSvc, users)

	engine := gin.New()
	registerRoutes(engine, api, auth)

	return &testServer{engine: engine, sync: syncSvc, users: users}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("x-auth-user", "alice")
		req.Header.Set("x-auth-key", services.StringMD5("secret"))
	}

	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthcheck(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthcheck", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", decode(t, rec)["state"])
}

func TestAuthCheck(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/users/auth", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", decode(t, rec)["authorized"])
}

func TestAuthRejectsMissingHeaders(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/users/auth", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsWrongKey(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/users/auth", nil)
	req.Header.Set("x-auth-user", "alice")
	req.Header.Set("x-auth-key", services.StringMD5("wrong"))
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAcceptsBasicCredentials(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/users/auth", nil)
	req.Header.Set("x-auth-user", "alice")
	req.Header.Set("x-auth-key", services.StringMD5("secret"))
	req.SetBasicAuth("alice", "secret")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsBasicUsernameMismatch(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/users/auth", nil)
	req.Header.Set("x-auth-user", "alice")
	req.Header.Set("x-auth-key", services.StringMD5("secret"))
	req.SetBasicAuth("bob", "secret")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateUser(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/users/create", map[string]string{
		"username": "bob",
		"password": services.StringMD5("hunter2"),
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "bob", decode(t, rec)["username"])

	// Re-registering the same name follows the protocol's 402 convention.
	rec = ts.do(t, http.MethodPost, "/users/create", map[string]string{
		"username": "bob",
		"password": services.StringMD5("other"),
	}, false)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestCreateUserValidation(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/users/create", map[string]string{"username": "eve"}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProgressValidation(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPut, "/syncs/progress", map[string]any{
		"document": "abc123", "percentage": 0.5,
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgressEndToEnd(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPut, "/syncs/progress", map[string]any{
		"document": "abc123", "percentage": 0.30, "progress": "/body/p[1]", "device": "Kobo",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "abc123", body["document"])
	t1 := body["timestamp"].(float64)

	// A lower update from another device is acknowledged with the
	// retained record's timestamp and does not change stored state.
	rec = ts.do(t, http.MethodPut, "/syncs/progress", map[string]any{
		"document": "abc123", "percentage": 0.10, "progress": "/body/p[9]", "device": "Kindle",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, t1, decode(t, rec)["timestamp"].(float64))

	rec = ts.do(t, http.MethodGet, "/syncs/progress/abc123", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, 0.30, body["percentage"])
	assert.Equal(t, "Kobo", body["device"])
	assert.Equal(t, "/body/p[1]", body["progress"])

	// A further-along update wins.
	rec = ts.do(t, http.MethodPut, "/syncs/progress", map[string]any{
		"document": "abc123", "percentage": 0.55, "progress": "/body/p[30]", "device": "Kindle",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	t2 := decode(t, rec)["timestamp"].(float64)
	assert.GreaterOrEqual(t, t2, t1)

	rec = ts.do(t, http.MethodGet, "/syncs/progress/abc123", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.55, decode(t, rec)["percentage"])

	ts.sync.WaitProjections()
}

func TestGetUnknownDocumentReturnsEmptyObject(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/syncs/progress/never-synced", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{}, decode(t, rec))
}
