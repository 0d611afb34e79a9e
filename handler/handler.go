// Package handler implements the user-loan-details operation: validate the
// request, read the user and loan details, derive the summaries, update the
// tenure and insert a new loan record.
package handler

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/osamikoyo/loanflow/errors"
	"github.com/osamikoyo/loanflow/fetcher"
	"github.com/osamikoyo/loanflow/loans"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/metrics"
	"github.com/osamikoyo/loanflow/models"
	"github.com/osamikoyo/loanflow/querybuilder"
	"github.com/osamikoyo/loanflow/reqcontext"
	"go.uber.org/zap"
)

const (
	LoanDetailsFunction = "get_loan_details"

	MessageSuccess = "Operation completed successfully"
	messagePanic   = "An error occurred in the user-loan-details handler"
)

// RequiredKeys must be present in every request body.
var RequiredKeys = []string{"user_id", "loan_id", "requested_tenure"}

type RecordStore interface {
	Fetch(ctx context.Context, query string, args ...any) (models.Rows, error)
	Commit(ctx context.Context, query string, args ...any) error
	Table() string
	Dialect() querybuilder.Dialect
}

type DetailFetcher interface {
	Invoke(ctx context.Context, function string, payload map[string]any, mode fetcher.Mode) (map[string]any, error)
}

type Handler struct {
	store    RecordStore
	fetcher  DetailFetcher
	mode     fetcher.Mode
	template loans.Template
	logger   *logger.Logger

	tenure        func(requested any) (int, error)
	newID         func() string
	accountNumber func() string
	now           func() time.Time
}

type Option func(*Handler)

// WithTenureSource replaces the conversion of requested_tenure into the
// tenure written by the update and insert steps.
func WithTenureSource(fn func(requested any) (int, error)) Option {
	return func(h *Handler) { h.tenure = fn }
}

func WithIDGenerator(fn func() string) Option {
	return func(h *Handler) { h.newID = fn }
}

func WithAccountNumbers(fn func() string) Option {
	return func(h *Handler) { h.accountNumber = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(h *Handler) { h.now = fn }
}

func New(store RecordStore, fetcher DetailFetcher, mode fetcher.Mode, template loans.Template, logger *logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		store:         store,
		fetcher:       fetcher,
		mode:          mode,
		template:      template,
		logger:        logger,
		tenure:        loans.Tenure,
		newID:         func() string { return uuid.New().String() },
		accountNumber: randomAccountNumber,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// randomAccountNumber returns a 7-digit account number.
func randomAccountNumber() string {
	return fmt.Sprintf("%d", 1000000+rand.Intn(9000000))
}

// Handle runs one request to completion and always returns an envelope.
func (h *Handler) Handle(ctx context.Context, event models.Event) (resp *models.Response) {
	start := time.Now()

	rc, ok := reqcontext.FromContext(ctx)
	if !ok {
		rc = reqcontext.NewRequestContext("handler")
		ctx = reqcontext.WithRequestContext(ctx, rc)
	}

	log := rc.ContextLogger(h.logger)

	defer func() {
		if r := recover(); r != nil {
			appErr := apperrors.FromPanic(r)

			log.Error("recovered panic in handler",
				zap.Any("panic", r),
				zap.Error(appErr))

			resp = models.Failure(appErr.StatusCode(), messagePanic, appErr.Detail())
		}

		metrics.TrackRequest(resp.StatusCode, time.Since(start).Seconds())

		log.Info("request completed",
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("duration", time.Since(start)))
	}()

	result := h.process(ctx, rc, log, event.Body)
	if result.Failed() {
		return failure(result.Err())
	}

	return models.Success(MessageSuccess, result.Value())
}

func (h *Handler) process(ctx context.Context, rc *reqcontext.RequestContext, log *logger.Logger, body map[string]any) models.Result[*models.CombinedResult] {
	if missing := MissingKeys(body, RequiredKeys); len(missing) > 0 {
		err := apperrors.Validation(fmt.Sprintf("Missing required parameters: %v", missing))
		log.Error("missing required parameters", zap.Strings("missing", missing))
		return models.Fail[*models.CombinedResult](err)
	}

	rc.WithLoan(fmt.Sprint(body["user_id"]), fmt.Sprint(body["loan_id"]))
	log = rc.ContextLogger(h.logger)

	log.Info("processing request", zap.Any("body", body))

	users := h.fetchUserDetails(ctx, rc, log, body["user_id"])
	if users.Failed() {
		return models.Fail[*models.CombinedResult](users.Err())
	}

	payload := map[string]any{
		"user_id": body["user_id"],
		"loan_id": body["loan_id"],
	}

	details := h.fetchLoanDetails(ctx, rc, log, payload)
	if details.Failed() {
		return models.Fail[*models.CombinedResult](details.Err())
	}

	s := h.deriveSummaries(rc, log, body)
	ids := s.bank.BankDetails

	tenure, appErr := h.resolveTenure(log, body["requested_tenure"])
	if appErr != nil {
		return models.Fail[*models.CombinedResult](appErr)
	}

	if err := h.updateTenure(ctx, rc, log, ids, tenure); err != nil {
		return models.Fail[*models.CombinedResult](err)
	}

	if err := h.insertRecord(ctx, rc, log, ids.UserID, tenure); err != nil {
		return models.Fail[*models.CombinedResult](err)
	}

	return models.Ok(&models.CombinedResult{
		LoansData:   s.loan,
		BankData:    s.bank,
		UserDetails: users.Value(),
		LoanDetails: details.Value(),
	})
}

func failure(err *apperrors.ApplicationError) *models.Response {
	return models.Failure(err.StatusCode(), err.Message, err.Detail())
}
