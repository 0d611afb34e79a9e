package handler

import (
	"context"

	apperrors "github.com/osamikoyo/loanflow/errors"
	"github.com/osamikoyo/loanflow/loans"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/metrics"
	"github.com/osamikoyo/loanflow/models"
	"github.com/osamikoyo/loanflow/querybuilder"
	"github.com/osamikoyo/loanflow/reqcontext"
	"go.uber.org/zap"
)

const (
	stepFetchUser = "fetch_user_details"
	stepFetchLoan = "fetch_loan_details"
	stepDerive    = "derive_summaries"
	stepUpdate    = "update_user_bank_details"
	stepInsert    = "insert_user_detail"
)

type summaries struct {
	loan loans.LoanSummary
	bank loans.BankSummary
}

// MissingKeys returns the required keys absent from body, in the order given.
// A present key with a zero value counts as present.
func MissingKeys(body map[string]any, required []string) []string {
	var missing []string

	for _, key := range required {
		if _, ok := body[key]; !ok {
			missing = append(missing, key)
		}
	}

	return missing
}

func finishStep(span *reqcontext.TraceSpan, log *logger.Logger, err error) {
	span.Finish(err)
	metrics.TrackStep(span.Operation, span.Status(), span.Duration().Seconds())
	log.Debug("step finished", span.LogFields()...)
}

func (h *Handler) fetchUserDetails(ctx context.Context, rc *reqcontext.RequestContext, log *logger.Logger, userID any) models.Result[models.Rows] {
	span := rc.StartSpan(stepFetchUser)

	var stepErr error
	defer func() { finishStep(span, log, stepErr) }()

	stmt, err := querybuilder.Select(h.store.Table(), h.store.Dialect(), querybuilder.Eq{Column: "user_id", Value: userID})
	if err != nil {
		stepErr = err
		log.Error("failed build user details query", zap.Error(err))
		return models.Fail[models.Rows](apperrors.Upstream("Error fetching user_details details", err))
	}

	rows, err := h.store.Fetch(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		stepErr = err
		log.Error("failed fetch user_details", zap.Error(err))
		return models.Fail[models.Rows](apperrors.Upstream("Error fetching user_details details", err))
	}

	if len(rows) == 0 {
		log.Warn("no user_details found")
		return models.Fail[models.Rows](apperrors.NotFound("No user_details details found"))
	}

	return models.Ok(rows)
}

func (h *Handler) fetchLoanDetails(ctx context.Context, rc *reqcontext.RequestContext, log *logger.Logger, payload map[string]any) models.Result[map[string]any] {
	span := rc.StartSpan(stepFetchLoan)

	details, err := h.fetcher.Invoke(ctx, LoanDetailsFunction, payload, h.mode)
	finishStep(span, log, err)

	if err != nil {
		log.Error("failed fetch loan_details",
			zap.String("mode", string(h.mode)),
			zap.Error(err))
		return models.Fail[map[string]any](apperrors.Upstream("Error fetching loan_details details", err))
	}

	if len(details) == 0 {
		log.Warn("no loan_details found", zap.String("mode", string(h.mode)))
		return models.Fail[map[string]any](apperrors.NotFound("No loan_details details found"))
	}

	return models.Ok(details)
}

func (h *Handler) deriveSummaries(rc *reqcontext.RequestContext, log *logger.Logger, body map[string]any) summaries {
	span := rc.StartSpan(stepDerive)
	defer finishStep(span, log, nil)

	return summaries{
		loan: loans.DeriveLoanSummary(body),
		bank: loans.DeriveBankSummary(body),
	}
}

// resolveTenure turns the requested tenure into the loan_tenure written by
// the update step.
func (h *Handler) resolveTenure(log *logger.Logger, requested any) (int, *apperrors.ApplicationError) {
	tenure, err := h.tenure(requested)
	if err != nil {
		log.Error("failed resolve loan_tenure",
			zap.Any("requested_tenure", requested),
			zap.Error(err))
		return 0, apperrors.Upstream("Error updating user_bank_details details", err)
	}

	return tenure, nil
}

func (h *Handler) updateTenure(ctx context.Context, rc *reqcontext.RequestContext, log *logger.Logger, ids loans.BankSummaryDetails, tenure int) *apperrors.ApplicationError {
	span := rc.StartSpan(stepUpdate)

	stmt, err := querybuilder.NewUpdate(h.store.Table(), loans.BankFields, h.store.Dialect()).
		Set(map[string]any{"loan_tenure": tenure}).
		Where(
			querybuilder.Eq{Column: "user_id", Value: ids.UserID},
			querybuilder.Eq{Column: "loan_id", Value: ids.LoanID},
		).
		Build()
	if err == nil {
		err = h.store.Commit(ctx, stmt.SQL, stmt.Args...)
	}

	finishStep(span, log, err)

	if err != nil {
		log.Error("failed update user_bank_details",
			zap.Int("loan_tenure", tenure),
			zap.Error(err))
		return apperrors.Upstream("Error updating user_bank_details details", err)
	}

	return nil
}

func (h *Handler) insertRecord(ctx context.Context, rc *reqcontext.RequestContext, log *logger.Logger, userID any, tenure int) *apperrors.ApplicationError {
	span := rc.StartSpan(stepInsert)

	record := loans.NewRecord(h.template, loans.RecordInput{
		LoanID:        h.newID(),
		UserID:        userID,
		Tenure:        tenure,
		AccountNumber: h.accountNumber(),
		Now:           h.now(),
	})

	stmt, err := querybuilder.NewInsert(h.store.Table(), loans.LoanInsertFields, h.store.Dialect()).
		Values(record).
		Build()
	if err == nil {
		err = h.store.Commit(ctx, stmt.SQL, stmt.Args...)
	}

	finishStep(span, log, err)

	if err != nil {
		log.Error("failed insert user_detail",
			zap.Any("loan_id", record["loan_id"]),
			zap.Error(err))
		return apperrors.Upstream("Error inserting user_detail details", err)
	}

	log.Info("loan record inserted", zap.Any("loan_id", record["loan_id"]))

	return nil
}
