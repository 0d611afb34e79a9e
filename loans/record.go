package loans

import (
	"fmt"
	"time"

	"github.com/osamikoyo/loanflow/config"
	"github.com/shopspring/decimal"
)

// Template carries the stand-in terms applied to every new loan record.
type Template struct {
	LoanPurpose       string
	PaymentFrequency  string
	LoanStatus        string
	LenderID          string
	AgentID           string
	RequestedAmt      decimal.Decimal
	LenderApprovedAmt decimal.Decimal
	TotalInterest     decimal.Decimal
	InstallmentAmt    decimal.Decimal
}

func NewTemplate(cfg config.LoanDefaults) (Template, error) {
	amounts := map[string]string{
		"requested_amt":       cfg.RequestedAmt,
		"lender_approved_amt": cfg.LenderApprovedAmt,
		"total_interest":      cfg.TotalInterest,
		"installment_amt":     cfg.InstallmentAmt,
	}

	parsed := make(map[string]decimal.Decimal, len(amounts))
	for name, raw := range amounts {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return Template{}, fmt.Errorf("loan_defaults.%s: %w", name, err)
		}
		parsed[name] = d
	}

	return Template{
		LoanPurpose:       cfg.LoanPurpose,
		PaymentFrequency:  cfg.PaymentFrequency,
		LoanStatus:        cfg.LoanStatus,
		LenderID:          cfg.LenderID,
		AgentID:           cfg.AgentID,
		RequestedAmt:      parsed["requested_amt"],
		LenderApprovedAmt: parsed["lender_approved_amt"],
		TotalInterest:     parsed["total_interest"],
		InstallmentAmt:    parsed["installment_amt"],
	}, nil
}

// RecordInput identifies the loan row being created.
type RecordInput struct {
	LoanID        string
	UserID        any
	Tenure        int
	AccountNumber string
	Now           time.Time
}

// NewRecord builds the full column map of a new loan row. Columns without a
// value are present and nil.
func NewRecord(tpl Template, in RecordInput) map[string]any {
	record := make(map[string]any, LoanInsertFields.Len())
	for _, col := range LoanInsertFields.Fields() {
		record[col] = nil
	}

	now := in.Now.UTC().Truncate(time.Second)

	record["loan_id"] = in.LoanID
	record["user_id"] = in.UserID
	record["loan_purpose"] = tpl.LoanPurpose
	record["requested_amt"] = tpl.RequestedAmt
	record["requested_tenure"] = in.Tenure
	record["payment_frequency"] = tpl.PaymentFrequency
	record["lender_approved_amt"] = tpl.LenderApprovedAmt
	record["total_interest"] = tpl.TotalInterest
	record["loan_processing_fees_percentage"] = decimal.Zero
	record["loan_installment_amt"] = tpl.InstallmentAmt
	record["loan_tenure"] = in.Tenure
	record["loan_created_at"] = now
	record["loan_updated_at"] = now
	record["loan_status"] = tpl.LoanStatus
	record["total_amt_to_pay"] = tpl.LenderApprovedAmt.Add(tpl.TotalInterest)
	record["agent_id"] = tpl.AgentID
	record["loan_acc_num"] = in.AccountNumber
	record["lender_approved_date"] = now
	record["last_cleared_installment_num"] = 0
	record["lender_id"] = tpl.LenderID

	return record
}
