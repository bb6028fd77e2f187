package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"voyance-backend/internal/client"
	"voyance-backend/internal/dto"
	"voyance-backend/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"
)

const (
	maxWebhookBody = int64(65536)

	servicesRedirect = "/#services"
)

type ConsultationHandler struct {
	consultations service.ConsultationService
	stripe        client.StripeClient
	log           *zap.Logger
}

func NewConsultationHandler(consultations service.ConsultationService, stripeClient client.StripeClient, log *zap.Logger) *ConsultationHandler {
	return &ConsultationHandler{
		consultations: consultations,
		stripe:        stripeClient,
		log:           log,
	}
}

// StripeWebhook verifies the event signature, then acknowledges with 200
// no matter what the business logic does: Stripe only needs to know the
// event was received, failures past verification are logged.
func (h *ConsultationHandler) StripeWebhook(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxWebhookBody)

	payload, err := io.ReadAll(req.Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	event, err := h.stripe.VerifyWebhook(payload, req.Header.Get("Stripe-Signature"))
	if err != nil {
		h.log.Warn("webhook signature rejected", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "signature verification failed")
	}

	if event.Type == "checkout.session.completed" {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			h.log.Error("decode checkout session from event",
				zap.String("event_id", event.ID), zap.Error(err))
		} else if err := h.consultations.HandleCheckoutCompleted(req.Context(), client.SummarizeSession(&sess)); err != nil {
			h.log.Error("handle checkout completed",
				zap.String("session_id", sess.ID), zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

// FormGate serves the question form only to paid, not-yet-submitted
// sessions. Everything else is redirected away or shown the
// already-submitted page; the gate fails closed.
func (h *ConsultationHandler) FormGate(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return c.Redirect(http.StatusFound, servicesRedirect)
	}

	switch h.consultations.FormAccess(c.Request().Context(), sessionID) {
	case service.FormAccessQuestion:
		return c.File("web/form.html")
	case service.FormAccessAlreadySubmitted:
		return c.File("web/deja-envoye.html")
	default:
		return c.Redirect(http.StatusFound, servicesRedirect)
	}
}

func (h *ConsultationHandler) SubmitQuestion(c echo.Context) error {
	var req dto.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Requête invalide")
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	if req.SessionID == "" || req.Name == "" || req.Email == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Champs requis manquants")
	}

	err := h.consultations.SubmitQuestion(c.Request().Context(), &req)
	switch {
	case errors.Is(err, service.ErrAlreadySubmitted):
		return echo.NewHTTPError(http.StatusForbidden, "Cette consultation a déjà été envoyée")
	case errors.Is(err, service.ErrPaymentNotVerified):
		return echo.NewHTTPError(http.StatusForbidden, "Paiement non vérifié")
	case err != nil:
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
