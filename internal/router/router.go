package router

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/xid"
	echoSwagger "github.com/swaggo/echo-swagger"

	"signmeup/docs"
	"signmeup/internal/auth"
	"signmeup/internal/config"
	"signmeup/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	gate *auth.Gate,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	eventHandler *handler.EventHandler,
	signupHandler *handler.SignupHandler,
) {
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return xid.New().String() },
	}))
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))

	e.Validator = &CustomValidator{validator: validator.New()}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authenticated := gate.Authenticate()
	adminOnly := []echo.MiddlewareFunc{authenticated, gate.RequireAdmin()}

	// Auth routes
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authenticated)
	e.GET("/auth/users", userHandler.ListUsers, adminOnly...)
	e.PUT("/auth/users/:id", userHandler.UpdateRole, adminOnly...)

	e.GET("/profile", userHandler.Profile, authenticated)

	// Event routes
	events := e.Group("/events")
	events.GET("", eventHandler.ListEvents)
	events.GET("/my-signups", signupHandler.MySignups, authenticated)
	events.GET("/:id", eventHandler.GetEvent, gate.Optional())
	events.POST("", eventHandler.CreateEvent, adminOnly...)
	events.PUT("/:id", eventHandler.UpdateEvent, adminOnly...)
	events.DELETE("/:id", eventHandler.DeleteEvent, adminOnly...)

	// Signup routes
	events.POST("/:id/signup", signupHandler.SignUp, authenticated)
	events.DELETE("/:id/signup", signupHandler.Cancel, authenticated)
	events.GET("/:id/signups", signupHandler.EventSignups, adminOnly...)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
