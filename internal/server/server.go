package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"membership-api/internal/config"
	"membership-api/internal/handler"
	"membership-api/internal/metrics"
	authmw "membership-api/internal/middleware"
	"membership-api/internal/notify"
	"membership-api/internal/service"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type Services struct {
	Payment    service.PaymentService
	Membership service.MembershipService
	Plan       service.PlanService
	Call       service.CallService
	Chat       service.ChatService
}

type Server struct {
	echo       *echo.Echo
	auth       *authmw.Auth
	dispatcher *notify.Dispatcher
	rateLimit  config.RateLimit

	paymentHandler    *handler.PaymentHandler
	membershipHandler *handler.MembershipHandler
	planHandler       *handler.PlanHandler
	callHandler       *handler.CallHandler
	chatHandler       *handler.ChatHandler
}

func NewServer(services *Services, auth *authmw.Auth, dispatcher *notify.Dispatcher, rateLimit config.RateLimit) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency, "request_id", v.RequestID, "remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				slog.LogAttrs(c.Request().Context(), slog.LevelWarn, "request", slog.Group("http", attrs...), slog.String("error", v.Error.Error()))
				return nil
			}
			slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", slog.Group("http", attrs...))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(metrics.Middleware())

	var invoices handler.InvoiceQueue
	if dispatcher != nil {
		invoices = dispatcher
	}

	s := &Server{
		echo:              e,
		auth:              auth,
		dispatcher:        dispatcher,
		rateLimit:         rateLimit,
		paymentHandler:    handler.NewPaymentHandler(services.Payment, invoices),
		membershipHandler: handler.NewMembershipHandler(services.Membership),
		planHandler:       handler.NewPlanHandler(services.Plan),
		callHandler:       handler.NewCallHandler(services.Call),
		chatHandler:       handler.NewChatHandler(services.Chat),
	}

	s.setupRoutes()
	return s
}

func (s *Server) paymentLimiter() echo.MiddlewareFunc {
	perSecond := s.rateLimit.PerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     int(perSecond) * 2,
		ExpiresIn: 3 * time.Minute,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many payment requests")
		},
	})
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	requireAuth := s.auth.RequireAuth()
	adminOnly := []echo.MiddlewareFunc{requireAuth, authmw.RequireAdmin()}

	// -------- payments --------
	limiter := s.paymentLimiter()
	api.POST("/order", s.paymentHandler.CreateOrder, limiter, requireAuth)
	api.POST("/verify", s.paymentHandler.VerifyPayment, limiter, requireAuth)

	// -------- memberships --------
	api.GET("/memberships", s.membershipHandler.ListMine, requireAuth)
	api.GET("/admin/memberships", s.membershipHandler.ListAll, adminOnly...)

	// -------- plans --------
	api.GET("/plans", s.planHandler.List)
	api.GET("/plans/by-name/:name", s.planHandler.GetByName, adminOnly...)
	api.POST("/plans", s.planHandler.Create, adminOnly...)
	api.PUT("/plans/:id", s.planHandler.Update, adminOnly...)
	api.DELETE("/plans/:id", s.planHandler.Delete, adminOnly...)

	// -------- daily calls --------
	api.GET("/calls", s.callHandler.List, s.auth.OptionalAuth())
	api.GET("/calls/admin/all", s.callHandler.ListAll, adminOnly...)
	api.POST("/calls", s.callHandler.Create, adminOnly...)
	api.PUT("/calls/:id", s.callHandler.Update, adminOnly...)
	api.DELETE("/calls/:id", s.callHandler.Delete, adminOnly...)

	// -------- plan chat --------
	api.POST("/chat", s.chatHandler.Post, adminOnly...)
	api.PUT("/chat/:messageId", s.chatHandler.Edit, adminOnly...)
	api.DELETE("/chat/:messageId", s.chatHandler.Delete, adminOnly...)
	api.GET("/chat/:planName", s.chatHandler.List, requireAuth)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start runs the invoice workers and then blocks serving HTTP.
func (s *Server) Start(address string) error {
	if s.dispatcher != nil {
		s.dispatcher.Start()
	}
	slog.Info("starting HTTP server", "address", address)
	return s.echo.Start(address)
}

// Shutdown stops accepting requests, then drains queued invoices even if the HTTP side failed to stop cleanly.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.echo.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
