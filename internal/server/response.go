package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"collabtodo/internal/service"
)

// GenericResponse is the JSON envelope every endpoint answers with.
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondSuccess(c echo.Context, code int, msg string, data interface{}) error {
	return c.JSON(code, GenericResponse{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func respondError(c echo.Context, code int, msg string) error {
	return c.JSON(code, GenericResponse{
		Success: false,
		Error:   msg,
	})
}

// serviceError maps the service error taxonomy onto HTTP statuses in one
// place. ErrExpired deliberately answers 404: past the undo window the
// task is as good as gone, and "it existed until a moment ago" is not
// something we leak.
func (s *Server) serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrExpired):
		return respondError(c, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		return respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrConflict):
		return respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		return respondError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("request failed")
		return respondError(c, http.StatusInternalServerError, "internal error")
	}
}
