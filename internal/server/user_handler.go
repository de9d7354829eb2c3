package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"collabtodo/internal/model"
	"collabtodo/internal/service"
)

type profileUpdateRequest struct {
	Name             *string `json:"name"`
	Email            *string `json:"email"`
	Password         *string `json:"password"`
	RecoveryQuestion *string `json:"recoveryQuestion"`
	RecoveryAnswer   *string `json:"recoveryAnswer"`
}

// handleData answers the aggregate "everything I can see" query the
// client boots from: visible groups plus visible tasks, sorted per the
// optional ?sort= parameter.
func (s *Server) handleData(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	groups, err := s.visibility.VisibleGroups(ctx, userID)
	if err != nil {
		return s.serviceError(c, err)
	}
	order := service.ParseSortOrder(c.QueryParam("sort"))
	tasks, err := s.visibility.VisibleTasks(ctx, userID, order)
	if err != nil {
		return s.serviceError(c, err)
	}

	// Empty results serialize as [] rather than null.
	if groups == nil {
		groups = []model.Group{}
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	return respondSuccess(c, http.StatusOK, "", map[string]interface{}{
		"groups": groups,
		"tasks":  tasks,
	})
}

func (s *Server) handleUserSearch(c echo.Context) error {
	if _, err := s.userID(c); err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	results, err := s.users.Search(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "", results)
}

func (s *Server) handleProfileUpdate(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}

	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "malformed request body")
	}

	user, err := s.users.UpdateProfile(c.Request().Context(), userID, service.ProfileUpdate{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		RecoveryQuestion: req.RecoveryQuestion,
		RecoveryAnswer:   req.RecoveryAnswer,
	})
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "profile updated", user.Public())
}

func (s *Server) handleProfileDelete(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}
	if err := s.users.DeleteAccount(c.Request().Context(), userID); err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "account deleted", nil)
}
