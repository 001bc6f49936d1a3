package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/christianlm/todolist/internal/hash"
	"github.com/christianlm/todolist/internal/models"
	"github.com/christianlm/todolist/internal/token"
)

type testEnv struct {
	t      *testing.T
	e      *echo.Echo
	db     *gorm.DB
	tokens *token.Service
	auth   *AuthHandler
	users  *UserHandler
	todos  *TodoHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Todo{}))

	tokens, err := token.NewService([]byte("test-secret"), "HS256", 30*time.Minute)
	require.NoError(t, err)

	return &testEnv{
		t:      t,
		e:      echo.New(),
		db:     db,
		tokens: tokens,
		auth:   &AuthHandler{DB: db, Tokens: tokens},
		users:  &UserHandler{DB: db},
		todos:  &TodoHandler{DB: db},
	}
}

func (env *testEnv) doJSON(method, target string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
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
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	return rec, c
}

// createUser seeds an account directly; the plaintext stays with the test,
// never on the model.
func (env *testEnv) createUser(name, email, password string) *models.User {
	env.t.Helper()

	digest, err := hash.HashPassword(password)
	require.NoError(env.t, err)

	user := &models.User{Name: name, Email: email, Password: digest}
	require.NoError(env.t, env.db.Create(user).Error)
	return user
}

func (env *testEnv) createTodo(owner *models.User, title, description string, state models.TodoState) *models.Todo {
	env.t.Helper()

	todo := &models.Todo{
		UserID:      owner.ID,
		Title:       title,
		Description: description,
		State:       state,
	}
	require.NoError(env.t, env.db.Create(todo).Error)
	return todo
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
