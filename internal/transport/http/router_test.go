package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/christianlm/todolist/internal/auth"
	"github.com/christianlm/todolist/internal/handlers"
	"github.com/christianlm/todolist/internal/models"
	"github.com/christianlm/todolist/internal/token"
)

type apiEnv struct {
	t      *testing.T
	e      *echo.Echo
	db     *gorm.DB
	tokens *token.Service
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Todo{}))

	tokens, err := token.NewService([]byte("test-secret"), "HS256", 30*time.Minute)
	require.NoError(t, err)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	Register(e, &Deps{
		DB:       db,
		Resolver: &auth.Resolver{DB: db, Tokens: tokens},
		Auth:     &handlers.AuthHandler{DB: db, Tokens: tokens},
		Users:    &handlers.UserHandler{DB: db},
		Todos:    &handlers.TodoHandler{DB: db},
	})

	return &apiEnv{t: t, e: e, db: db, tokens: tokens}
}

func (env *apiEnv) do(method, target, bearer string, body interface{}) *httptest.ResponseRecorder {
	env.t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(env.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *apiEnv) register(name, email, password string) {
	env.t.Helper()

	rec := env.do(http.MethodPost, "/users/", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(env.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (env *apiEnv) login(email, password string) string {
	env.t.Helper()

	rec := env.do(http.MethodPost, "/auth/login", "", map[string]string{
		"username": email, "password": password,
	})
	require.Equal(env.t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]string
	require.NoError(env.t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(env.t, "Bearer", body["token_type"])
	return body["access_token"]
}

func TestRoot(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Hello, World!"}`, rec.Body.String())
}

func TestRegisterLoginAndForbiddenUpdate(t *testing.T) {
	env := newAPIEnv(t)
	env.register("E1", "e1@example.com", "pw123456")
	env.register("E2", "e2@example.com", "pw123456")

	access := env.login("e1@example.com", "pw123456")

	subject, err := env.tokens.Validate(access)
	require.NoError(t, err)
	assert.Equal(t, "e1@example.com", subject)

	// Updating another account is blocked but not hidden.
	rec := env.do(http.MethodPut, "/users/2", access, map[string]string{
		"name": "E1", "email": "stolen@example.com", "password": "pw123456",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"detail":"Not enough permissions."}`, rec.Body.String())
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	env := newAPIEnv(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/auth/refresh_token"},
		{http.MethodGet, "/users/"},
		{http.MethodGet, "/todos/"},
		{http.MethodPost, "/todos/"},
	} {
		rec := env.do(route.method, route.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
		assert.JSONEq(t, `{"detail":"Could not validate credentials."}`, rec.Body.String())
	}
}

func TestStaleTokenIsRejected(t *testing.T) {
	env := newAPIEnv(t)
	env.register("E1", "e1@example.com", "pw123456")

	env.tokens.Now = func() time.Time { return time.Now().Add(-31 * time.Minute) }
	stale := env.login("e1@example.com", "pw123456")
	env.tokens.Now = nil

	rec := env.do(http.MethodGet, "/todos/", stale, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Could not validate credentials."}`, rec.Body.String())
}

func TestRefreshFlow(t *testing.T) {
	env := newAPIEnv(t)
	env.register("E1", "e1@example.com", "pw123456")
	access := env.login("e1@example.com", "pw123456")

	rec := env.do(http.MethodPost, "/auth/refresh_token", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	subject, err := env.tokens.Validate(body["access_token"])
	require.NoError(t, err)
	assert.Equal(t, "e1@example.com", subject)
}

func TestTodoPaginationOverAPI(t *testing.T) {
	env := newAPIEnv(t)
	env.register("U", "u@example.com", "pw123456")
	access := env.login("u@example.com", "pw123456")

	for i := 1; i <= 5; i++ {
		rec := env.do(http.MethodPost, "/todos/", access, map[string]string{
			"title":       fmt.Sprintf("todo %d", i),
			"description": "d",
			"state":       "todo",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(http.MethodGet, "/todos/?limit=2&offset=1", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Todos []models.Todo `json:"todos"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Todos, 2)
	assert.Equal(t, "todo 2", body.Todos[0].Title)
	assert.Equal(t, "todo 3", body.Todos[1].Title)
}
