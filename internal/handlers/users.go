package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/christianlm/todolist/internal/auth"
	"github.com/christianlm/todolist/internal/events"
	"github.com/christianlm/todolist/internal/hash"
	"github.com/christianlm/todolist/internal/models"
	"github.com/christianlm/todolist/internal/util"
)

type UserHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

type userRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type userPublic struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func publicUser(u *models.User) userPublic {
	return userPublic{ID: u.ID, Name: u.Name, Email: u.Email}
}

func findUserByEmail(db *gorm.DB, c echo.Context, email string) (*models.User, error) {
	var user models.User
	if err := db.WithContext(c.Request().Context()).
		Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (h *UserHandler) CreateUser(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusUnprocessableEntity, "Invalid request body.")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return detail(c, http.StatusUnprocessableEntity, "name, email and password are required.")
	}

	if _, err := findUserByEmail(h.DB, c, req.Email); err == nil {
		return detail(c, http.StatusConflict, "Already exists a user with this email.")
	}

	digest, err := hash.HashPassword(req.Password)
	if err != nil {
		return detail(c, http.StatusInternalServerError, "Could not hash password.")
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: digest,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&user).Error; err != nil {
		// The unique index still closes the pre-check race.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return detail(c, http.StatusConflict, "Already exists a user with this email.")
		}
		return detail(c, http.StatusInternalServerError, "Could not create user.")
	}

	publish(c, h.Producer, events.TopicUserEvents, user.ID, map[string]interface{}{
		"type":    "user_created",
		"user_id": user.ID,
		"email":   user.Email,
	})

	return c.JSON(http.StatusCreated, publicUser(&user))
}

func (h *UserHandler) GetAllUsers(c echo.Context) error {
	limit, offset := util.Clamp(
		parseIntDefault(c.QueryParam("limit"), util.DefaultLimit),
		parseIntDefault(c.QueryParam("offset"), 0),
	)

	var users []models.User
	if err := h.DB.WithContext(c.Request().Context()).
		Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return detail(c, http.StatusInternalServerError, "Could not list users.")
	}

	out := make([]userPublic, 0, len(users))
	for i := range users {
		out = append(out, publicUser(&users[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return detail(c, http.StatusUnprocessableEntity, "Invalid user id.")
	}

	var user models.User
	if err := h.DB.WithContext(c.Request().Context()).First(&user, id).Error; err != nil {
		return detail(c, http.StatusNotFound, "User not found.")
	}

	return c.JSON(http.StatusOK, publicUser(&user))
}

func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return detail(c, http.StatusUnprocessableEntity, "Invalid user id.")
	}

	actor := auth.CurrentUser(c)
	if err := auth.Authorize(actor, id); err != nil {
		// Account ids are public, so a mismatch is reported as forbidden
		// rather than hidden behind a 404.
		return detail(c, http.StatusForbidden, "Not enough permissions.")
	}

	var req userRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusUnprocessableEntity, "Invalid request body.")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return detail(c, http.StatusUnprocessableEntity, "name, email and password are required.")
	}

	if other, err := findUserByEmail(h.DB, c, req.Email); err == nil && other.ID != actor.ID {
		return detail(c, http.StatusConflict, "Already exists a user with this email.")
	}

	digest, err := hash.HashPassword(req.Password)
	if err != nil {
		return detail(c, http.StatusInternalServerError, "Could not hash password.")
	}

	actor.Name = req.Name
	actor.Email = req.Email
	actor.Password = digest

	if err := h.DB.WithContext(c.Request().Context()).Save(actor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return detail(c, http.StatusConflict, "Already exists a user with this email.")
		}
		return detail(c, http.StatusInternalServerError, "Could not update user.")
	}

	return c.JSON(http.StatusOK, publicUser(actor))
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return detail(c, http.StatusUnprocessableEntity, "Invalid user id.")
	}

	actor := auth.CurrentUser(c)
	if err := auth.Authorize(actor, id); err != nil {
		return detail(c, http.StatusForbidden, "Not enough permissions.")
	}

	if err := h.DB.WithContext(c.Request().Context()).Delete(&models.User{}, actor.ID).Error; err != nil {
		return detail(c, http.StatusInternalServerError, "Could not delete user.")
	}

	publish(c, h.Producer, events.TopicUserEvents, actor.ID, map[string]interface{}{
		"type":    "user_deleted",
		"user_id": actor.ID,
		"email":   actor.Email,
	})

	return message(c, "User deleted.")
}
