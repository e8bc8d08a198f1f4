package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"golang.org/x/time/rate"

	"FitAI_V1.0/internal/auth"
	"FitAI_V1.0/internal/utility"
)

const photoBodyLimit = "5M"

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(LoggerMiddleware)
	e.Use(requestLogger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	utility.SetAllowedOrigins(s.cfg.CORSOrigins)

	e.GET("/health", s.healthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	if s.cfg.JWTSecret != "" {
		api.Use(auth.JwtAuthMiddleware(s.cfg.JWTSecret))
	}

	// Routes that call the generation API are rate limited per client IP.
	limited := api.Group("", s.rateLimiter())

	// Diet plan routes
	limited.POST("/generate-diet-plan", s.generateDietPlanHandler)
	limited.POST("/weekly-diet-plan", s.weeklyDietPlanHandler)
	api.GET("/diet-history/:email", s.dietHistoryHandler)
	api.POST("/analyze-nutrition", s.analyzeNutritionHandler)

	// Profile photo routes
	api.POST("/upload-profile-photo", s.uploadProfilePhotoHandler, middleware.BodyLimit(photoBodyLimit))
	api.GET("/user-profile-photo/:email", s.userProfilePhotoHandler)

	// Chat assistant routes
	limited.POST("/chat", s.chatHandler)
	api.GET("/chat/ws", s.chatSocketHandler)

	return e
}

// fail is the error envelope the frontend expects.
func fail(message string) map[string]any {
	return map[string]any{"success": false, "message": message}
}

func (s *Server) rateLimiter() echo.MiddlewareFunc {
	rps := s.cfg.RateLimitRPS
	if rps <= 0 {
		rps = 2
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     int(rps) + 1,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return utility.GetRealIP(c), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, fail("Unable to identify client."))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			zerolog.Ctx(c.Request().Context()).Warn().Str("client_ip", identifier).Msg("Rate limit exceeded")
			return c.JSON(http.StatusTooManyRequests, fail("Too many requests. Please slow down."))
		},
	})
}

// healthHandler reports the plan store status and host metrics.
func (s *Server) healthHandler(c echo.Context) error {
	ctx := c.Request().Context()

	// 1. Store
	store := s.db.Health(ctx)

	// 2. Host
	cpuUsage := "n/a"
	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		cpuUsage = fmt.Sprintf("%.2f%%", cpuPercent[0])
	}
	memory := map[string]string{}
	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		memory["total_gb"] = fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024)
		memory["used_gb"] = fmt.Sprintf("%.2f GB", float64(v.Used)/1024/1024/1024)
		memory["used_percent"] = fmt.Sprintf("%.2f%%", v.UsedPercent)
	}

	// 3. Status
	code, status := http.StatusOK, "online"
	if store["status"] != "up" {
		code, status = http.StatusServiceUnavailable, "degraded"
	}

	return c.JSON(code, map[string]any{
		"status": status,
		"store":  store,
		"runtime": map[string]any{
			"uptime":     time.Since(s.startedAt).Round(time.Second).String(),
			"start_time": s.startedAt.Format(time.RFC3339),
		},
		"cpu":          map[string]string{"usage_percent": cpuUsage},
		"memory":       memory,
		"chat_clients": utility.ActiveClients(),
	})
}

// LoggerMiddleware attaches a request-scoped logger carrying the request id
// to the request context.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)
		c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context())))

		return next(c)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := zerolog.Ctx(c.Request().Context())
			ev := logger.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = logger.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
