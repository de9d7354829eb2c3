package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"collabtodo/internal/auth"
	"collabtodo/internal/service"
)

// Server wires the services to the HTTP surface.
type Server struct {
	echo       *echo.Echo
	log        zerolog.Logger
	users      *service.UserService
	groups     *service.GroupService
	tasks      *service.TaskService
	visibility *service.VisibilityService
	tokens     *auth.TokenIssuer

	// now is swappable so handler tests can pin the clock.
	now func() time.Time
}

func New(log zerolog.Logger, users *service.UserService, groups *service.GroupService, tasks *service.TaskService, visibility *service.VisibilityService, tokens *auth.TokenIssuer) *Server {
	s := &Server{
		echo:       echo.New(),
		log:        log,
		users:      users,
		groups:     groups,
		tasks:      tasks,
		visibility: visibility,
		tokens:     tokens,
		now:        time.Now,
	}
	s.echo.HideBanner = true
	s.registerMiddlewares()
	s.registerRoutes()
	return s
}

func (s *Server) registerMiddlewares() {
	s.echo.Use(s.requestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())
}

func (s *Server) registerRoutes() {
	authGroup := s.echo.Group("/api/auth")
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)
	authGroup.POST("/recovery/question", s.handleRecoveryQuestion)
	authGroup.POST("/recovery/reset", s.handleRecoveryReset)

	api := s.echo.Group("/api", s.tokens.Middleware())
	api.GET("/data", s.handleData)
	api.GET("/users/search", s.handleUserSearch)
	api.PUT("/profile", s.handleProfileUpdate)
	api.DELETE("/profile", s.handleProfileDelete)

	api.POST("/groups", s.handleGroupCreate)
	api.PUT("/groups/:id", s.handleGroupUpdate)
	api.DELETE("/groups/:id", s.handleGroupDelete)
	api.POST("/groups/:id/collaborators", s.handleCollaboratorAdd)
	api.DELETE("/groups/:id/collaborators/:userId", s.handleCollaboratorRemove)

	api.POST("/tasks", s.handleTaskCreate)
	// Static segment, so "completed" is never parsed as a task id.
	api.DELETE("/tasks/completed", s.handleClearCompleted)
	api.PUT("/tasks/:id", s.handleTaskUpdate)
	api.DELETE("/tasks/:id", s.handleTaskDelete)
	api.POST("/tasks/:id/undo", s.handleTaskUndo)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			s.log.Info().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Msg("http request")
			return err
		}
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(port string) error {
	return s.echo.Start(":" + port)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for httptest-based tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// userID pulls the authenticated user id the middleware stored.
func (s *Server) userID(c echo.Context) (uuid.UUID, error) {
	id, ok := auth.UserID(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	return id, nil
}
