package loans

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cast"
)

var ErrInvalidTenure = errors.New("requested_tenure is not a whole number")

// Summary fields hold the request values unchanged, whatever their JSON type.
type LoanSummaryDetails struct {
	UserID          any `json:"user_id"`
	LoanID          any `json:"loan_id"`
	RequestedTenure any `json:"requested_tenure"`
}

type LoanSummary struct {
	LoanDetails LoanSummaryDetails `json:"loan_details"`
}

type BankSummaryDetails struct {
	UserID any `json:"user_id"`
	LoanID any `json:"loan_id"`
}

type BankSummary struct {
	BankDetails BankSummaryDetails `json:"bank_details"`
}

// DeriveLoanSummary echoes the identifying fields of the request body.
func DeriveLoanSummary(body map[string]any) LoanSummary {
	return LoanSummary{
		LoanDetails: LoanSummaryDetails{
			UserID:          body["user_id"],
			LoanID:          body["loan_id"],
			RequestedTenure: body["requested_tenure"],
		},
	}
}

func DeriveBankSummary(body map[string]any) BankSummary {
	return BankSummary{
		BankDetails: BankSummaryDetails{
			UserID: body["user_id"],
			LoanID: body["loan_id"],
		},
	}
}

// Tenure converts a requested tenure into the integer stored in loan_tenure.
// Whole JSON numbers and numeric strings are accepted; null, booleans and
// fractional values are not.
func Tenure(requested any) (int, error) {
	switch v := requested.(type) {
	case nil:
		return 0, fmt.Errorf("%w: null", ErrInvalidTenure)
	case bool:
		return 0, fmt.Errorf("%w: %v", ErrInvalidTenure, v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidTenure, v)
		}
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidTenure, v)
		}
	}

	tenure, err := cast.ToIntE(requested)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTenure, err)
	}

	return tenure, nil
}
