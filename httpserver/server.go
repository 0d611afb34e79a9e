// Package httpserver exposes the loan handler over HTTP.
package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/osamikoyo/loanflow/health"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	PathUserLoanDetails = "/v1/user-loan-details"
	PathInvocations     = "/v1/invocations"
	PathHealth          = "/healthz"
	PathMetrics         = "/metrics"

	shutdownTimeout = 10 * time.Second
)

type RequestHandler interface {
	Handle(ctx context.Context, event models.Event) *models.Response
}

type Server struct {
	echo    *echo.Echo
	handler RequestHandler
	health  *health.HealthChecker
	logger  *logger.Logger
	addr    string
}

// New builds the echo router. health may be nil, in which case /healthz
// always reports ok.
func New(addr string, handler RequestHandler, health *health.HealthChecker, logger *logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = SonicSerializer{}

	s := &Server{
		echo:    e,
		handler: handler,
		health:  health,
		logger:  logger,
		addr:    addr,
	}

	e.Use(middleware.Recover())
	e.Use(requestContext(logger))

	e.POST(PathUserLoanDetails, s.handleUserLoanDetails)
	e.POST(PathInvocations, s.handleInvocation)
	e.GET(PathHealth, s.handleHealth)
	e.GET(PathMetrics, echo.WrapHandler(promhttp.Handler()))

	return s
}

// Handler returns the router as a plain http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server starting", zap.String("addr", s.addr))

		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("failed run http server", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("stopping http server...")

	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) handleUserLoanDetails(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.badRequest(c, err)
	}

	body, err := models.DecodeBody(data)
	if err != nil {
		return s.badRequest(c, err)
	}

	return s.respond(c, models.Event{Body: body})
}

func (s *Server) handleInvocation(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.badRequest(c, err)
	}

	event, err := models.DecodeEvent(data)
	if err != nil {
		return s.badRequest(c, err)
	}

	return s.respond(c, event)
}

func (s *Server) respond(c echo.Context, event models.Event) error {
	resp := s.handler.Handle(c.Request().Context(), event)

	return c.JSON(resp.StatusCode, resp)
}

func (s *Server) badRequest(c echo.Context, err error) error {
	s.logger.Warn("rejected request body",
		zap.String("path", c.Path()),
		zap.Error(err))

	return c.JSON(http.StatusBadRequest, models.Failure(http.StatusBadRequest, "Invalid request body", err.Error()))
}

type healthResponse struct {
	Status       string                             `json:"status"`
	Dependencies map[string]health.DependencyHealth `json:"dependencies,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.health == nil {
		return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
	}

	resp := healthResponse{Status: "ok", Dependencies: s.health.Statuses()}
	code := http.StatusOK

	if !s.health.Healthy() {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, resp)
}
