package config

import "fmt"

type LoanDetailsConfig struct {
	Addr        string       `yaml:"addr"`
	Stage       string       `yaml:"stage"`
	CertPath    string       `yaml:"cert_path"`
	KeyPath     string       `yaml:"key_path"`
	RabbitmqUrl string       `yaml:"rabbitmq_url"`
	QueueName   string       `yaml:"queue_name"`
	Log         LogConfig    `yaml:"log"`
	Store       StoreConfig  `yaml:"store"`
	Health      HealthConfig `yaml:"health"`
}

func NewLoanDetailsConfig(path string) (*LoanDetailsConfig, error) {
	cfg := &LoanDetailsConfig{
		Addr:      "localhost:9090",
		Stage:     DefaultStage,
		QueueName: "loan_invocations",
		Store:     defaultStore(),
	}

	if path != "default" {
		cfg = &LoanDetailsConfig{}
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Stage = Stage(cfg.Stage)
	cfg.Store.applyDefaults()
	cfg.Health.applyDefaults()
	cfg.Log.applyDefaults("loandetails")

	if cfg.Addr == "" {
		return nil, fmt.Errorf("addr is required")
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "loan_invocations"
	}
	if (cfg.CertPath == "") != (cfg.KeyPath == "") {
		return nil, fmt.Errorf("cert_path and key_path must be set together")
	}

	return cfg, nil
}
