package server

import (
	"errors"
	"net/http"

	"voyance-backend/internal/handler"
	"voyance-backend/internal/middleware"
	"voyance-backend/internal/monitoring"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	echo                *echo.Echo
	consultationHandler *handler.ConsultationHandler
	adminHandler        *handler.AdminHandler
	auth                *middleware.SessionAuth
}

func NewServer(
	consultationHandler *handler.ConsultationHandler,
	adminHandler *handler.AdminHandler,
	auth *middleware.SessionAuth,
	log *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = newHTTPErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(requestLogger(log))
	e.Use(middleware.PrometheusMetrics())

	s := &Server{
		echo:                e,
		consultationHandler: consultationHandler,
		adminHandler:        adminHandler,
		auth:                auth,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	e := s.echo

	e.File("/", "web/index.html")
	e.File("/sw.js", "web/sw.js")
	e.GET("/form", s.consultationHandler.FormGate)

	api := e.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.POST("/webhook", s.consultationHandler.StripeWebhook)
	api.POST("/submit", s.consultationHandler.SubmitQuestion)

	// -------- admin --------
	admin := api.Group("/admin")
	admin.POST("/login", s.adminHandler.Login)
	admin.POST("/logout", s.adminHandler.Logout)

	gated := admin.Group("", s.auth.Middleware())
	gated.GET("/stats", s.adminHandler.Stats)
	gated.GET("/consultations", s.adminHandler.List)
	gated.POST("/respond", s.adminHandler.Respond)
	gated.DELETE("/consultations/:id", s.adminHandler.Delete)

	e.GET("/metrics", echo.WrapHandler(monitoring.Handler()))
}

// newHTTPErrorHandler keeps response bodies generic: internals go to the
// log (and Sentry for 5xx), the caller gets a localized message.
func newHTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Une erreur est survenue"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
		}

		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err))
			monitoring.CaptureError(err, map[string]interface{}{
				"endpoint": c.Request().URL.Path,
				"method":   c.Request().Method,
				"status":   code,
			})
		}

		if err := c.JSON(code, map[string]string{"error": message}); err != nil {
			log.Error("write error response", zap.Error(err))
		}
	}
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				log.Warn("request", fields...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
