package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/reqcontext"
	"go.uber.org/zap"
)

const HeaderRequestID = echo.HeaderXRequestID

// requestContext attaches a reqcontext.RequestContext to every request and
// echoes the correlation id in the response.
func requestContext(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			rc := reqcontext.NewRequestContextWithCorrelationID("http", req.Header.Get(HeaderRequestID)).
				WithRequestInfo(&reqcontext.RequestInfo{
					Method:    req.Method,
					Path:      req.URL.Path,
					UserAgent: req.UserAgent(),
					RemoteIP:  c.RealIP(),
				})

			c.SetRequest(req.WithContext(reqcontext.WithRequestContext(req.Context(), rc)))
			c.Response().Header().Set(HeaderRequestID, rc.CorrelationID)

			start := time.Now()
			err := next(c)

			rc.ContextLogger(log).Debug("http request served",
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)))

			return err
		}
	}
}
