package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"collabtodo/internal/model"
	"collabtodo/internal/service"
)

type registerRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	RecoveryQuestion string `json:"recoveryQuestion"`
	RecoveryAnswer   string `json:"recoveryAnswer"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type recoveryQuestionRequest struct {
	Email string `json:"email"`
}

type recoveryResetRequest struct {
	Email       string `json:"email"`
	Answer      string `json:"answer"`
	NewPassword string `json:"newPassword"`
}

type sessionResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "malformed request body")
	}

	user, err := s.users.Register(c.Request().Context(), service.RegisterInput{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		RecoveryQuestion: req.RecoveryQuestion,
		RecoveryAnswer:   req.RecoveryAnswer,
	})
	if err != nil {
		return s.serviceError(c, err)
	}

	token, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusCreated, "account created", sessionResponse{
		Token: token,
		User:  user.Public(),
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "malformed request body")
	}

	user, err := s.users.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return s.serviceError(c, err)
	}

	token, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "logged in", sessionResponse{
		Token: token,
		User:  user.Public(),
	})
}

func (s *Server) handleRecoveryQuestion(c echo.Context) error {
	var req recoveryQuestionRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "malformed request body")
	}

	question, err := s.users.RecoveryQuestion(c.Request().Context(), req.Email)
	if err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "", map[string]string{"question": question})
}

func (s *Server) handleRecoveryReset(c echo.Context) error {
	var req recoveryResetRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "malformed request body")
	}

	if err := s.users.ResetPassword(c.Request().Context(), req.Email, req.Answer, req.NewPassword); err != nil {
		return s.serviceError(c, err)
	}
	return respondSuccess(c, http.StatusOK, "password reset", nil)
}
