// Package loans holds the column sets, derived summaries and the insert
// record of the loan table.
package loans

import (
	"fmt"
	"strings"

	qb "github.com/osamikoyo/loanflow/querybuilder"
)

// Allow-lists per record shape of the loan table.
var (
	UserFields = qb.MustAllowList(
		"lname", "fname", "user_id", "loan_id", "application_num",
	)

	BankFields = qb.MustAllowList(
		"loan_tenure", "xyz", "requested_tenure", "requested_amt",
	)

	LoanFields = qb.MustAllowList(
		"loan_type", "loan_purpose", "loan_interest_rate", "loan_processing_fees_amt",
		"loan_status", "loan_acc_num", "lender_id", "branch_id", "sub_status",
	)

	LoanInsertFields = qb.MustAllowList(
		"loan_id", "user_id", "loan_type", "loan_purpose", "requested_amt",
		"requested_tenure", "payment_frequency", "lender_approved_amt",
		"total_interest", "disbursed_amt", "loan_interest_rate",
		"loan_processing_fees_amt", "loan_processing_fees_percentage",
		"loan_installment_amt", "loan_tenure", "num_installment_recived",
		"amt_installment_recived", "loan_start_date", "loan_end_date",
		"loan_created_at", "loan_updated_at", "loan_status", "total_amt_to_pay",
		"description", "agent_id", "loan_acc_num", "lender_approved_date",
		"disbursed_date", "last_cleared_installment_date", "last_installment_paid_date",
		"last_installment_paid_amt", "last_cleared_installment_num",
		"annual_interest_rate", "loan_closed_date", "loan_processing_fees_gst_percentage",
		"loan_processing_fees_gst_amt", "old_loan_remaining_amt", "old_loan_acc_num",
		"rejection_reason", "insurance_amt", "insurance_gst_amt", "lender_id",
		"stamp_paper_fee_amt", "total_pre_disbursal_charges", "lock_in_tenure",
		"lock_in_breaking_percentage", "foreclousure_percentage", "apr",
		"overdue_interest_percentage", "lender_account_number", "lender_ifsc",
		"lender_cif", "branch_id", "sub_status",
	)
)

// TableName is the stage-scoped loan table.
func TableName(stage string) string {
	return "loan_" + stage
}

// TargetName is the stage-scoped name of a loan-service function.
func TargetName(stage, function string) string {
	return "los-" + stage + "-" + function
}

func columnType(col string) string {
	switch {
	case strings.HasSuffix(col, "_date"), strings.HasSuffix(col, "_at"):
		return "TIMESTAMP"
	case strings.HasSuffix(col, "_amt"), strings.HasSuffix(col, "_percentage"),
		strings.HasSuffix(col, "_rate"), strings.HasSuffix(col, "_charges"),
		col == "total_interest", col == "apr":
		return "NUMERIC"
	case col == "requested_tenure", col == "loan_tenure", col == "lock_in_tenure",
		col == "num_installment_recived", col == "last_cleared_installment_num":
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// Schema returns the CREATE TABLE statement for the loan table, plus the
// columns only read by the user-detail lookup.
func Schema(table string) string {
	cols := LoanInsertFields.Fields()
	for _, extra := range []string{"fname", "lname", "application_num", "xyz"} {
		if !LoanInsertFields.Contains(extra) {
			cols = append(cols, extra)
		}
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s", c, columnType(c))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
}
