package router

import (
	"fmt"
	"net/http"

	"mealreminder/internal/interfaces/api/handler"
	"mealreminder/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the dependencies for the router.
type Config struct {
	ReminderHandler *handler.ReminderHandler
	LineHandler     *handler.LineHandler // nil when LINE is not configured
	Logger          logger.Logger
}

// NewRouter creates and configures a new Echo router.
func NewRouter(cfg *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cfg.Logger.Info(fmt.Sprintf("REQUEST: method=%s, uri=%s, status=%d, latency=%s, req_id=%s",
				v.Method, v.URI, v.Status, v.Latency, v.RequestID,
			))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Line-Signature"},
		MaxAge:       300,
	}))

	// Routes
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rh := cfg.ReminderHandler
	users := e.Group("/users/:userID")
	users.POST("/reminders/load", rh.Load)
	users.GET("/reminders", rh.List)
	users.POST("/reminders", rh.Create)
	users.POST("/reminders/commit", rh.Commit)
	users.PATCH("/reminders/:id", rh.Update)
	users.POST("/reminders/:id/toggle", rh.Toggle)
	users.DELETE("/reminders/:id", rh.Delete)
	users.PUT("/permission", rh.UpdatePermission)
	users.DELETE("/session", rh.Logout)

	// LINE Webhook Endpoint
	if cfg.LineHandler != nil {
		e.POST("/callback", cfg.LineHandler.HandleWebhook)
	} else {
		cfg.Logger.Warn("LINE is not configured, webhook route disabled.")
	}

	cfg.Logger.Info("Router initialized with routes.")
	return e
}
