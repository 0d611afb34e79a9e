package loans

import (
	"strings"
	"testing"
	"time"

	"github.com/osamikoyo/loanflow/config"
	qb "github.com/osamikoyo/loanflow/querybuilder"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, "loan_dev", TableName("dev"))
	assert.Equal(t, "los-prod-get_loan_details", TargetName("prod", "get_loan_details"))
}

func TestInsertFieldsCoverTheLoanTable(t *testing.T) {
	assert.Equal(t, 54, LoanInsertFields.Len())

	for _, col := range LoanFields.Fields() {
		assert.True(t, LoanInsertFields.Contains(col), col)
	}
}

func TestSchema(t *testing.T) {
	ddl := Schema("loan_test")

	assert.True(t, strings.HasPrefix(ddl, "CREATE TABLE IF NOT EXISTS loan_test ("))
	assert.Contains(t, ddl, "loan_created_at TIMESTAMP")
	assert.Contains(t, ddl, "requested_amt NUMERIC")
	assert.Contains(t, ddl, "loan_tenure INTEGER")
	assert.Contains(t, ddl, "fname TEXT")
}

func TestDeriveSummariesEchoBody(t *testing.T) {
	tests := []struct {
		name   string
		tenure any
	}{
		{name: "number", tenure: float64(60)},
		{name: "fraction", tenure: 60.9},
		{name: "string", tenure: "sixty"},
		{name: "null", tenure: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]any{"user_id": "u1", "loan_id": 7.0, "requested_tenure": tt.tenure}

			loan := DeriveLoanSummary(body)
			assert.Equal(t, LoanSummaryDetails{UserID: "u1", LoanID: 7.0, RequestedTenure: tt.tenure}, loan.LoanDetails)

			bank := DeriveBankSummary(body)
			assert.Equal(t, BankSummaryDetails{UserID: "u1", LoanID: 7.0}, bank.BankDetails)
		})
	}
}

func TestTenure(t *testing.T) {
	tests := []struct {
		name      string
		requested any
		want      int
		wantErr   bool
	}{
		{name: "json number", requested: float64(60), want: 60},
		{name: "whole float string", requested: "60.0", want: 60},
		{name: "numeric string", requested: "72", want: 72},
		{name: "int", requested: 36, want: 36},
		{name: "fraction", requested: 60.9, wantErr: true},
		{name: "word", requested: "sixty", wantErr: true},
		{name: "null", requested: nil, wantErr: true},
		{name: "bool", requested: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tenure(tt.requested)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTenure)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTemplate(t *testing.T) {
	tpl, err := NewTemplate(config.DefaultLoanDefaults())
	require.NoError(t, err)
	assert.True(t, tpl.RequestedAmt.Equal(decimal.NewFromInt(30000)))

	bad := config.DefaultLoanDefaults()
	bad.TotalInterest = "lots"
	_, err = NewTemplate(bad)
	assert.ErrorContains(t, err, "total_interest")
}

func TestNewRecord(t *testing.T) {
	tpl, err := NewTemplate(config.DefaultLoanDefaults())
	require.NoError(t, err)

	now := time.Date(2023, 5, 19, 12, 51, 9, 0, time.UTC)
	rec := NewRecord(tpl, RecordInput{
		LoanID:        "l2",
		UserID:        "u1",
		Tenure:        60,
		AccountNumber: "1234567",
		Now:           now,
	})

	assert.Len(t, rec, LoanInsertFields.Len())
	assert.Equal(t, "l2", rec["loan_id"])
	assert.Equal(t, 60, rec["loan_tenure"])
	assert.Equal(t, now, rec["loan_created_at"])
	assert.Nil(t, rec["disbursed_amt"])
	assert.True(t, rec["total_amt_to_pay"].(decimal.Decimal).Equal(decimal.NewFromInt(33000)))

	ins, err := qb.BuildInsert(LoanInsertFields, rec, qb.Question)
	require.NoError(t, err)
	assert.Len(t, ins.Args, LoanInsertFields.Len())
}
