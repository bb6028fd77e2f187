package handler

import (
	"errors"
	"net/http"

	"voyance-backend/internal/dto"
	"voyance-backend/internal/middleware"
	"voyance-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	consultations service.ConsultationService
	auth          *middleware.SessionAuth
	adminPassword string
}

func NewAdminHandler(consultations service.ConsultationService, auth *middleware.SessionAuth, adminPassword string) *AdminHandler {
	return &AdminHandler{
		consultations: consultations,
		auth:          auth,
		adminPassword: adminPassword,
	}
}

func (h *AdminHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Requête invalide")
	}

	if h.adminPassword == "" || req.Password != h.adminPassword {
		return echo.NewHTTPError(http.StatusUnauthorized, "Mot de passe incorrect")
	}

	token, err := h.auth.GenerateToken()
	if err != nil {
		return err
	}

	c.SetCookie(h.auth.SessionCookie(token))
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Logout(c echo.Context) error {
	c.SetCookie(h.auth.ClearCookie())
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.consultations.Stats(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) List(c echo.Context) error {
	consultations, err := h.consultations.List(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, consultations)
}

func (h *AdminHandler) Respond(c echo.Context) error {
	var req dto.RespondRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Requête invalide")
	}
	if req.ID == "" || req.Response == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Champs requis manquants")
	}

	result, err := h.consultations.Respond(c.Request().Context(), req.ID, req.Response)
	switch {
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Consultation introuvable")
	case errors.Is(err, service.ErrNotAnswerable):
		return echo.NewHTTPError(http.StatusConflict, "Cette consultation n'a pas encore de question")
	case err != nil:
		return err
	}

	return c.JSON(http.StatusOK, &dto.RespondResponse{
		Success:   true,
		EmailSent: result.EmailSent,
		Message:   result.Message,
	})
}

func (h *AdminHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Identifiant manquant")
	}

	if err := h.consultations.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
