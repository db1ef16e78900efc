package server

import (
	"context"
	"log/slog"
	"net/http"

	"course-marketplace/internal/auth"
	"course-marketplace/internal/config"
	"course-marketplace/internal/handler"
	authmw "course-marketplace/internal/middleware"
	"course-marketplace/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the HTTP layer needs from the rest of the application.
type Deps struct {
	UserService     service.UserService
	AdminService    service.AdminService
	CourseService   service.CourseService
	PurchaseService service.PurchaseService
	LearnerTokens   *auth.TokenManager
	AdminTokens     *auth.TokenManager
	// HealthCheck is optional; it usually pings the database.
	HealthCheck func(ctx context.Context) error
}

type Server struct {
	echo            *echo.Echo
	userHandler     *handler.UserHandler
	adminHandler    *handler.AdminHandler
	courseHandler   *handler.CourseHandler
	purchaseHandler *handler.PurchaseHandler
	requireLearner  echo.MiddlewareFunc
	requireAdmin    echo.MiddlewareFunc
	healthCheck     func(ctx context.Context) error
	storage         config.Storage
}

func NewServer(cfg *config.Config, log *slog.Logger, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
			}
			log.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.AllowedOrigins,
		AllowCredentials: true,
	}))

	s := &Server{
		echo:            e,
		userHandler:     handler.NewUserHandler(deps.UserService, deps.PurchaseService, cfg.Auth.CookieSecure),
		adminHandler:    handler.NewAdminHandler(deps.AdminService, cfg.Auth.CookieSecure),
		courseHandler:   handler.NewCourseHandler(deps.CourseService, deps.PurchaseService),
		purchaseHandler: handler.NewPurchaseHandler(deps.PurchaseService),
		requireLearner:  authmw.RequireLearner(deps.LearnerTokens),
		requireAdmin:    authmw.RequireAdmin(deps.AdminTokens),
		healthCheck:     deps.HealthCheck,
		storage:         cfg.Storage,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.health)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.Static(s.storage.BaseURL, s.storage.Dir)

	// -------- learners --------
	user := s.echo.Group("/user")
	user.POST("/signup", s.userHandler.Signup)
	user.POST("/login", s.userHandler.Login)
	user.GET("/logout", s.userHandler.Logout)
	user.GET("/purchases", s.userHandler.Purchases, s.requireLearner)

	// -------- administrators --------
	admin := s.echo.Group("/admin")
	admin.POST("/signup", s.adminHandler.Signup)
	admin.POST("/login", s.adminHandler.Login)
	admin.GET("/logout", s.adminHandler.Logout)

	// -------- catalog --------
	course := s.echo.Group("/course")
	course.GET("/courses", s.courseHandler.ListCourses)
	course.GET("/:courseId", s.courseHandler.GetCourse)
	course.POST("/create", s.courseHandler.CreateCourse, s.requireAdmin)
	course.PUT("/update/:courseId", s.courseHandler.UpdateCourse, s.requireAdmin)
	course.DELETE("/delete/:courseId", s.courseHandler.DeleteCourse, s.requireAdmin)

	// -------- purchase --------
	course.POST("/buy/:courseId", s.courseHandler.BuyCourse, s.requireLearner)
	s.echo.POST("/order", s.purchaseHandler.ConfirmOrder, s.requireLearner)
}

func (s *Server) health(c echo.Context) error {
	if s.healthCheck != nil {
		if err := s.healthCheck(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
