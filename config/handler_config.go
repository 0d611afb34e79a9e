package config

import (
	"fmt"
	"strings"
)

const (
	ModeRequestResponse = "RequestResponse"
	ModeEvent           = "Event"
)

type FetcherConfig struct {
	Mode            string        `yaml:"mode"`
	GrpcAddr        string        `yaml:"grpc_addr"`
	CertPath        string        `yaml:"cert_path"`
	RabbitmqUrl     string        `yaml:"rabbitmq_url"`
	QueueName       string        `yaml:"queue_name"`
	RequestTimeout  Duration      `yaml:"request_timeout"`
	ConnectAttempts uint          `yaml:"connect_attempts"`
	CircuitBreaker  BreakerConfig `yaml:"circuit_breaker"`
}

// LoanDefaults are the stand-in values written into every inserted loan
// record. Amounts are decimal strings.
type LoanDefaults struct {
	LoanPurpose       string `yaml:"loan_purpose"`
	PaymentFrequency  string `yaml:"payment_frequency"`
	LoanStatus        string `yaml:"loan_status"`
	LenderID          string `yaml:"lender_id"`
	AgentID           string `yaml:"agent_id"`
	RequestedAmt      string `yaml:"requested_amt"`
	LenderApprovedAmt string `yaml:"lender_approved_amt"`
	TotalInterest     string `yaml:"total_interest"`
	InstallmentAmt    string `yaml:"installment_amt"`
}

type HandlerConfig struct {
	Addr         string        `yaml:"addr"`
	Stage        string        `yaml:"stage"`
	Log          LogConfig     `yaml:"log"`
	Store        StoreConfig   `yaml:"store"`
	Fetcher      FetcherConfig `yaml:"fetcher"`
	LoanDefaults LoanDefaults  `yaml:"loan_defaults"`
	Health       HealthConfig  `yaml:"health"`
}

func DefaultLoanDefaults() LoanDefaults {
	return LoanDefaults{
		LoanPurpose:       "business",
		PaymentFrequency:  "daily",
		LoanStatus:        "Rejected",
		LenderID:          "MARG",
		AgentID:           "f0dd80b8-4882-4252-9c3e-ad3bbff4c14d",
		RequestedAmt:      "30000",
		LenderApprovedAmt: "30000",
		TotalInterest:     "3000",
		InstallmentAmt:    "330",
	}
}

func defaultHandler() *HandlerConfig {
	return &HandlerConfig{
		Addr:  "localhost:8080",
		Stage: DefaultStage,
		Store: defaultStore(),
		Fetcher: FetcherConfig{
			Mode:            ModeRequestResponse,
			GrpcAddr:        "localhost:9090",
			QueueName:       "loan_invocations",
			RequestTimeout:  Seconds(30),
			ConnectAttempts: 5,
		},
		LoanDefaults: DefaultLoanDefaults(),
	}
}

// NewHandlerConfig loads the handler service config. The path "default"
// yields built-in defaults.
func NewHandlerConfig(path string) (*HandlerConfig, error) {
	cfg := defaultHandler()

	if path != "default" {
		cfg = &HandlerConfig{}
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *HandlerConfig) applyDefaults() {
	c.Stage = Stage(c.Stage)
	c.Store.applyDefaults()
	c.Health.applyDefaults()
	c.Log.applyDefaults("loanhandler")

	if c.Addr == "" {
		c.Addr = "localhost:8080"
	}
	if c.Fetcher.Mode == "" {
		c.Fetcher.Mode = ModeRequestResponse
	}
	if c.Fetcher.QueueName == "" {
		c.Fetcher.QueueName = "loan_invocations"
	}
	if c.Fetcher.RequestTimeout.Duration <= 0 {
		c.Fetcher.RequestTimeout = Seconds(30)
	}
	if c.Fetcher.ConnectAttempts == 0 {
		c.Fetcher.ConnectAttempts = 5
	}

	def := DefaultLoanDefaults()
	fillString(&c.LoanDefaults.LoanPurpose, def.LoanPurpose)
	fillString(&c.LoanDefaults.PaymentFrequency, def.PaymentFrequency)
	fillString(&c.LoanDefaults.LoanStatus, def.LoanStatus)
	fillString(&c.LoanDefaults.LenderID, def.LenderID)
	fillString(&c.LoanDefaults.AgentID, def.AgentID)
	fillString(&c.LoanDefaults.RequestedAmt, def.RequestedAmt)
	fillString(&c.LoanDefaults.LenderApprovedAmt, def.LenderApprovedAmt)
	fillString(&c.LoanDefaults.TotalInterest, def.TotalInterest)
	fillString(&c.LoanDefaults.InstallmentAmt, def.InstallmentAmt)
}

func (c *HandlerConfig) Validate() error {
	switch c.Fetcher.Mode {
	case ModeRequestResponse:
		if c.Fetcher.GrpcAddr == "" {
			return fmt.Errorf("fetcher.grpc_addr is required for mode %s", c.Fetcher.Mode)
		}
	case ModeEvent:
		if c.Fetcher.RabbitmqUrl == "" {
			return fmt.Errorf("fetcher.rabbitmq_url is required for mode %s", c.Fetcher.Mode)
		}
	default:
		return fmt.Errorf("unknown fetcher mode %q", c.Fetcher.Mode)
	}

	if strings.TrimSpace(c.Store.DSN) == "" {
		return fmt.Errorf("store.dsn is required")
	}

	return nil
}

func fillString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}
