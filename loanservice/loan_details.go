package loanservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/osamikoyo/loanflow/loans"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/models"
	"github.com/osamikoyo/loanflow/querybuilder"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const LoanDetailsFunction = "get_loan_details"

var ErrInvalidPayload = errors.New("payload requires user_id and loan_id")

type RowReader interface {
	Fetch(ctx context.Context, query string, args ...any) (models.Rows, error)
	Table() string
	Dialect() querybuilder.Dialect
}

// GetLoanDetails returns the loan row matching user_id and loan_id, or nil
// when there is none.
func GetLoanDetails(store RowReader, logger *logger.Logger) Function {
	return func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		userID, errUser := cast.ToStringE(payload["user_id"])
		loanID, errLoan := cast.ToStringE(payload["loan_id"])
		if errUser != nil || errLoan != nil || userID == "" || loanID == "" {
			return nil, ErrInvalidPayload
		}

		stmt, err := querybuilder.Select(store.Table(), store.Dialect(),
			querybuilder.Eq{Column: "user_id", Value: userID},
			querybuilder.Eq{Column: "loan_id", Value: loanID},
		)
		if err != nil {
			return nil, err
		}

		rows, err := store.Fetch(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			logger.Error("failed fetch loan",
				zap.String("user_id", userID),
				zap.String("loan_id", loanID),
				zap.Error(err))

			return nil, fmt.Errorf("failed fetch loan: %w", err)
		}

		if len(rows) == 0 {
			logger.Info("loan not found",
				zap.String("user_id", userID),
				zap.String("loan_id", loanID))

			return nil, nil
		}

		return map[string]any{
			"loan":    rows[0],
			"user_id": userID,
			"loan_id": loanID,
		}, nil
	}
}

// RegisterLoanFunctions adds the stage's loan functions to r.
func RegisterLoanFunctions(r *Registry, stage string, store RowReader, logger *logger.Logger) {
	r.Register(loans.TargetName(stage, LoanDetailsFunction), GetLoanDetails(store, logger))
}
