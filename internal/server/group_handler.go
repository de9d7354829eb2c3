package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"collabtodo/internal/model"
	"collabtodo/internal/service"
)

type groupCreateRequest struct {
	Name string          `json:"name"`
	Kind model.GroupKind `json:"kind"`
}

type groupUpdateRequest struct {
	Name *string          `json:"name"`
	Kind *model.GroupKind `json:"kind"`
}

type collaboratorAddRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleGroupCreate(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}

	var req groupCreateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "malformed request body")
	}

	group, err := s.groups.Create(c.Request().Context(), userID, req.Name, req.Kind)
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusCreated, "group created", group)
}

func (s *Server) handleGroupUpdate(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid group id")
	}

	var req groupUpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "malformed request body")
	}

	group, err := s.groups.Update(c.Request().Context(), groupID, userID, service.GroupUpdate{
		Name: req.Name,
		Kind: req.Kind,
	})
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "group updated", group)
}

func (s *Server) handleGroupDelete(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid group id")
	}

	if err := s.groups.Delete(c.Request().Context(), groupID, userID); err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "group deleted", nil)
}

func (s *Server) handleCollaboratorAdd(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid group id")
	}

	var req collaboratorAddRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "malformed request body")
	}

	group, err := s.groups.AddCollaborator(c.Request().Context(), groupID, userID, req.Email)
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "collaborator added", group)
}

func (s *Server) handleCollaboratorRemove(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid group id")
	}
	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid user id")
	}

	group, err := s.groups.RemoveCollaborator(c.Request().Context(), groupID, userID, targetID)
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "collaborator removed", group)
}
