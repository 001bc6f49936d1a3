package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/christianlm/todolist/internal/auth"
	"github.com/christianlm/todolist/internal/events"
	"github.com/christianlm/todolist/internal/models"
	"github.com/christianlm/todolist/internal/util"
)

type TodoHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

// ownedTodo fetches a todo scoped to its owner. Foreign todos and missing
// todos are the same not-found outcome: the query never reveals whether
// another account's todo exists.
func (h *TodoHandler) ownedTodo(c echo.Context, ownerID, todoID uint) (*models.Todo, error) {
	var todo models.Todo
	err := h.DB.WithContext(c.Request().Context()).
		Where("id = ? AND user_id = ?", todoID, ownerID).First(&todo).Error
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (h *TodoHandler) CreateTodo(c echo.Context) error {
	actor := auth.CurrentUser(c)

	var req struct {
		Title       string           `json:"title"`
		Description string           `json:"description"`
		State       models.TodoState `json:"state"`
	}
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusUnprocessableEntity, "Invalid request body.")
	}
	if req.Title == "" {
		return detail(c, http.StatusUnprocessableEntity, "title is required.")
	}
	if !req.State.Valid() {
		return detail(c, http.StatusUnprocessableEntity, "Invalid todo state.")
	}

	todo := models.Todo{
		UserID:      actor.ID,
		Title:       req.Title,
		Description: req.Description,
		State:       req.State,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&todo).Error; err != nil {
		return detail(c, http.StatusInternalServerError, "Could not create task.")
	}

	publish(c, h.Producer, events.TopicTodoEvents, todo.ID, map[string]interface{}{
		"type":    "todo_created",
		"todo_id": todo.ID,
		"user_id": actor.ID,
	})

	return c.JSON(http.StatusCreated, todo)
}

func (h *TodoHandler) GetAllTodos(c echo.Context) error {
	actor := auth.CurrentUser(c)

	limit, offset := util.Clamp(
		parseIntDefault(c.QueryParam("limit"), util.DefaultLimit),
		parseIntDefault(c.QueryParam("offset"), 0),
	)

	q := h.DB.WithContext(c.Request().Context()).
		Model(&models.Todo{}).
		Where("user_id = ?", actor.ID)

	if title := c.QueryParam("title"); title != "" {
		q = q.Where("title LIKE ?", "%"+title+"%")
	}
	if description := c.QueryParam("description"); description != "" {
		q = q.Where("description LIKE ?", "%"+description+"%")
	}
	if state := c.QueryParam("state"); state != "" {
		q = q.Where("state LIKE ?", "%"+state+"%")
	}

	todos := []models.Todo{}
	if err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&todos).Error; err != nil {
		return detail(c, http.StatusInternalServerError, "Could not list tasks.")
	}

	return c.JSON(http.StatusOK, echo.Map{"todos": todos})
}

func (h *TodoHandler) PatchTodo(c echo.Context) error {
	actor := auth.CurrentUser(c)

	id, err := pathID(c)
	if err != nil {
		return detail(c, http.StatusUnprocessableEntity, "Invalid task id.")
	}

	var req struct {
		Title       *string           `json:"title"`
		Description *string           `json:"description"`
		State       *models.TodoState `json:"state"`
	}
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusUnprocessableEntity, "Invalid request body.")
	}
	if req.State != nil && !req.State.Valid() {
		return detail(c, http.StatusUnprocessableEntity, "Invalid todo state.")
	}

	todo, err := h.ownedTodo(c, actor.ID, id)
	if err != nil {
		return detail(c, http.StatusNotFound, "Task not found.")
	}

	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.State != nil {
		todo.State = *req.State
	}

	if err := h.DB.WithContext(c.Request().Context()).Save(todo).Error; err != nil {
		return detail(c, http.StatusInternalServerError, "Could not update task.")
	}

	publish(c, h.Producer, events.TopicTodoEvents, todo.ID, map[string]interface{}{
		"type":    "todo_updated",
		"todo_id": todo.ID,
		"user_id": actor.ID,
	})

	return c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) DeleteTodo(c echo.Context) error {
	actor := auth.CurrentUser(c)

	id, err := pathID(c)
	if err != nil {
		return detail(c, http.StatusUnprocessableEntity, "Invalid task id.")
	}

	todo, err := h.ownedTodo(c, actor.ID, id)
	if err != nil {
		return detail(c, http.StatusNotFound, "Task not found.")
	}

	if err := h.DB.WithContext(c.Request().Context()).Delete(todo).Error; err != nil {
		return detail(c, http.StatusInternalServerError, "Could not delete task.")
	}

	publish(c, h.Producer, events.TopicTodoEvents, todo.ID, map[string]interface{}{
		"type":    "todo_deleted",
		"todo_id": todo.ID,
		"user_id": actor.ID,
	})

	return message(c, "Task has been deleted successfully.")
}
