package reqcontext

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/osamikoyo/loanflow/logger"
	"go.uber.org/zap"
)

// RequestContext holds metadata for request tracing and correlation
type RequestContext struct {
	RequestID     string            `json:"request_id"`
	CorrelationID string            `json:"correlation_id"`
	UserID        string            `json:"user_id,omitempty"`
	LoanID        string            `json:"loan_id,omitempty"`
	Source        string            `json:"source"`
	StartTime     time.Time         `json:"start_time"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Info          *RequestInfo      `json:"request_info,omitempty"`
}

// RequestInfo holds the transport details of an HTTP invocation.
type RequestInfo struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	UserAgent string `json:"user_agent,omitempty"`
	RemoteIP  string `json:"remote_ip,omitempty"`
}

type contextKey string

const requestContextKey contextKey = "request_context"

// NewRequestContext creates a new RequestContext with generated IDs
func NewRequestContext(source string) *RequestContext {
	id := generateID()

	return &RequestContext{
		RequestID:     id,
		CorrelationID: id,
		Source:        source,
		StartTime:     time.Now(),
		Metadata:      make(map[string]string),
	}
}

// NewRequestContextWithCorrelationID keeps an upstream correlation ID, for
// example one received in an X-Request-ID header.
func NewRequestContextWithCorrelationID(source, correlationID string) *RequestContext {
	rc := NewRequestContext(source)
	if correlationID != "" {
		rc.CorrelationID = correlationID
	}
	return rc
}

func generateID() string {
	return uuid.New().String()
}

// WithRequestContext adds RequestContext to context.Context
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, reqCtx)
}

// FromContext extracts RequestContext from context.Context
func FromContext(ctx context.Context) (*RequestContext, bool) {
	reqCtx, ok := ctx.Value(requestContextKey).(*RequestContext)
	return reqCtx, ok
}

// MustFromContext extracts RequestContext from context.Context, creating one if not found
func MustFromContext(ctx context.Context) *RequestContext {
	if reqCtx, ok := FromContext(ctx); ok {
		return reqCtx
	}
	return NewRequestContext("unknown")
}

func (rc *RequestContext) WithMetadata(key, value string) *RequestContext {
	if rc.Metadata == nil {
		rc.Metadata = make(map[string]string)
	}
	rc.Metadata[key] = value
	return rc
}

// WithLoan sets the identifiers the request operates on.
func (rc *RequestContext) WithLoan(userID, loanID string) *RequestContext {
	rc.UserID = userID
	rc.LoanID = loanID
	return rc
}

func (rc *RequestContext) WithRequestInfo(info *RequestInfo) *RequestContext {
	rc.Info = info
	return rc
}

// Duration returns the time elapsed since the request started
func (rc *RequestContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}

// LogFields returns zap fields for logging
func (rc *RequestContext) LogFields() []zap.Field {
	fields := []zap.Field{
		zap.String("request_id", rc.RequestID),
		zap.String("correlation_id", rc.CorrelationID),
		zap.String("source", rc.Source),
	}

	if rc.UserID != "" {
		fields = append(fields, zap.String("user_id", rc.UserID))
	}

	if rc.LoanID != "" {
		fields = append(fields, zap.String("loan_id", rc.LoanID))
	}

	if len(rc.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", rc.Metadata))
	}

	if rc.Info != nil {
		fields = append(fields,
			zap.String("method", rc.Info.Method),
			zap.String("path", rc.Info.Path),
		)
		if rc.Info.RemoteIP != "" {
			fields = append(fields, zap.String("remote_ip", rc.Info.RemoteIP))
		}
	}

	return fields
}

func (rc *RequestContext) String() string {
	return fmt.Sprintf("RequestID=%s CorrelationID=%s Source=%s Duration=%v",
		rc.RequestID, rc.CorrelationID, rc.Source, rc.Duration())
}

// ContextLogger creates a logger with request context fields
func (rc *RequestContext) ContextLogger(log *logger.Logger) *logger.Logger {
	return log.With(rc.LogFields()...)
}

// TraceSpan times one step of a request.
type TraceSpan struct {
	SpanID    string     `json:"span_id"`
	ParentID  string     `json:"parent_id,omitempty"`
	Operation string     `json:"operation"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
}

// StartSpan opens a span whose parent is the request.
func (rc *RequestContext) StartSpan(operation string) *TraceSpan {
	return &TraceSpan{
		SpanID:    generateID(),
		ParentID:  rc.RequestID,
		Operation: operation,
		StartTime: time.Now(),
		Success:   true,
	}
}

// Finish completes the span, marking it failed when err is not nil.
func (ts *TraceSpan) Finish(err error) {
	now := time.Now()
	ts.EndTime = &now

	if err != nil {
		ts.Success = false
		ts.Error = err.Error()
	}
}

// Duration returns the duration of the span
func (ts *TraceSpan) Duration() time.Duration {
	if ts.EndTime != nil {
		return ts.EndTime.Sub(ts.StartTime)
	}
	return time.Since(ts.StartTime)
}

func (ts *TraceSpan) Status() string {
	if ts.Success {
		return "ok"
	}
	return "error"
}

// LogFields returns zap fields for the span
func (ts *TraceSpan) LogFields() []zap.Field {
	fields := []zap.Field{
		zap.String("span_id", ts.SpanID),
		zap.String("operation", ts.Operation),
		zap.Duration("span_duration", ts.Duration()),
		zap.Bool("success", ts.Success),
	}

	if ts.ParentID != "" {
		fields = append(fields, zap.String("parent_span_id", ts.ParentID))
	}

	if ts.Error != "" {
		fields = append(fields, zap.String("span_error", ts.Error))
	}

	return fields
}
