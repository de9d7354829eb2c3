package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"collabtodo/internal/model"
	"collabtodo/internal/service"
)

// optionalUUID tells "field absent" apart from "field present but null"
// in a JSON body. UnmarshalJSON only runs when the key was sent, so Set
// records presence; a null value ungroups, an absent key changes nothing.
type optionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

func (o *optionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

type taskCreateRequest struct {
	Name     string             `json:"name"`
	DueDate  string             `json:"dueDate"`
	DueTime  string             `json:"dueTime"`
	Priority model.TaskPriority `json:"priority"`
	GroupID  *uuid.UUID         `json:"group"`
}

type taskUpdateRequest struct {
	Name     *string             `json:"name"`
	DueDate  *string             `json:"dueDate"`
	DueTime  *string             `json:"dueTime"`
	Priority *model.TaskPriority `json:"priority"`
	Done     *bool               `json:"done"`
	Group    optionalUUID        `json:"group"`
}

type deleteResponse struct {
	UndoExpiresAt time.Time `json:"undoExpiresAt"`
}

func (s *Server) handleTaskCreate(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}

	var req taskCreateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "malformed request body")
	}

	task, err := s.tasks.Create(c.Request().Context(), userID, service.TaskInput{
		Name:     req.Name,
		DueDate:  req.DueDate,
		DueTime:  req.DueTime,
		Priority: req.Priority,
		GroupID:  req.GroupID,
	})
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusCreated, "task created", task)
}

func (s *Server) handleTaskUpdate(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid task id")
	}

	var req taskUpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "malformed request body")
	}

	task, err := s.tasks.Update(c.Request().Context(), taskID, userID, service.TaskUpdate{
		Name:     req.Name,
		DueDate:  req.DueDate,
		DueTime:  req.DueTime,
		Priority: req.Priority,
		Done:     req.Done,
		SetGroup: req.Group.Set,
		GroupID:  req.Group.Value,
	})
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "task updated", task)
}

func (s *Server) handleTaskDelete(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid task id")
	}

	expiresAt, err := s.tasks.SoftDelete(c.Request().Context(), taskID, userID, s.now())
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "task deleted", deleteResponse{UndoExpiresAt: expiresAt})
}

func (s *Server) handleTaskUndo(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid task id")
	}

	task, err := s.tasks.Undo(c.Request().Context(), taskID, userID, s.now())
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "task restored", task)
}

func (s *Server) handleClearCompleted(c echo.Context) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}

	cleared, err := s.tasks.ClearCompleted(c.Request().Context(), userID, s.now())
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "completed tasks cleared", map[string]int64{"cleared": cleared})
}
