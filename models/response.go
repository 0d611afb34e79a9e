package models

import (
	"net/http"

	"github.com/osamikoyo/loanflow/loans"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// CombinedResult is the success payload of the user-loan-details handler.
type CombinedResult struct {
	LoansData   loans.LoanSummary      `json:"loans_data"`
	BankData    loans.BankSummary      `json:"bank_data"`
	UserDetails Rows                   `json:"user_details"`
	LoanDetails map[string]interface{} `json:"loan_details"`
}

type Response struct {
	StatusCode int             `json:"statusCode"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Response   *CombinedResult `json:"response,omitempty"`
	Error      string          `json:"error,omitempty"`
}

func Success(message string, result *CombinedResult) *Response {
	return &Response{
		StatusCode: http.StatusOK,
		Status:     StatusSuccess,
		Message:    message,
		Response:   result,
	}
}

func Failure(statusCode int, message, errText string) *Response {
	return &Response{
		StatusCode: statusCode,
		Status:     StatusFailure,
		Message:    message,
		Error:      errText,
	}
}
