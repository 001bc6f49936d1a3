package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/christianlm/todolist/internal/auth"
	"github.com/christianlm/todolist/internal/handlers"
)

type Deps struct {
	DB       *gorm.DB
	Resolver *auth.Resolver
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Todos    *handlers.TodoHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "Hello, World!"})
	})

	ag := e.Group("/auth")
	ag.POST("/login", d.Auth.Login)
	ag.POST("/refresh_token", d.Auth.RefreshToken, d.Resolver.RequireUser)

	users := e.Group("/users")
	users.POST("", d.Users.CreateUser)
	users.GET("", d.Users.GetAllUsers, d.Resolver.RequireUser)
	users.GET("/:id", d.Users.GetUser)
	users.PUT("/:id", d.Users.UpdateUser, d.Resolver.RequireUser)
	users.DELETE("/:id", d.Users.DeleteUser, d.Resolver.RequireUser)

	todos := e.Group("/todos", d.Resolver.RequireUser)
	todos.POST("", d.Todos.CreateTodo)
	todos.GET("", d.Todos.GetAllTodos)
	todos.PATCH("/:id", d.Todos.PatchTodo)
	todos.DELETE("/:id", d.Todos.DeleteTodo)
}
