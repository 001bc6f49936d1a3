package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/christianlm/todolist/internal/auth"
	"github.com/christianlm/todolist/internal/events"
	"github.com/christianlm/todolist/internal/hash"
	"github.com/christianlm/todolist/internal/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *events.Producer
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login checks the submitted credentials and mints a fresh access token.
// The username field carries the account email, matching the OAuth2
// password-flow form the API always spoke.
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusUnprocessableEntity, "Invalid request body.")
	}

	user, err := findUserByEmail(h.DB, c, req.Username)
	if err != nil || !hash.CheckPassword(user.Password, req.Password) {
		// Absent account and wrong password share one body.
		return detail(c, http.StatusUnauthorized, "Incorret email or password")
	}

	access, err := h.Tokens.Issue(user.Email)
	if err != nil {
		return detail(c, http.StatusInternalServerError, "Could not create access token.")
	}

	publish(c, h.Producer, events.TopicUserEvents, user.ID, map[string]interface{}{
		"type":    "user_logged_in",
		"user_id": user.ID,
		"email":   user.Email,
	})

	return c.JSON(http.StatusOK, tokenResponse{AccessToken: access, TokenType: "Bearer"})
}

// RefreshToken re-issues a token for an already-authenticated subject. The
// old token is not revoked; it dies on its own expiry.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	user := auth.CurrentUser(c)

	access, err := h.Tokens.Issue(user.Email)
	if err != nil {
		return detail(c, http.StatusInternalServerError, "Could not create access token.")
	}

	return c.JSON(http.StatusOK, tokenResponse{AccessToken: access, TokenType: "Bearer"})
}
