package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StageEnv     = "CURRENT_STAGE"
	DefaultStage = "dev"
)

// Stage returns the deployment stage: CURRENT_STAGE when set, then the
// configured value, then DefaultStage.
func Stage(configured string) string {
	if v, ok := os.LookupEnv(StageEnv); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}

	if configured != "" {
		return configured
	}

	return DefaultStage
}

// Duration decodes yaml strings like "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %v", raw, err)
	}

	d.Duration = parsed

	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func Seconds(n int) Duration {
	return Duration{Duration: time.Duration(n) * time.Second}
}

type StoreConfig struct {
	Driver          string   `yaml:"driver"`
	DSN             string   `yaml:"dsn"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	QueueSize       int      `yaml:"queue_size"`
	ConnectAttempts uint     `yaml:"connect_attempts"`
	EnsureSchema    bool     `yaml:"ensure_schema"`
}

type BreakerConfig struct {
	MaxFailures         int      `yaml:"max_failures"`
	ResetTimeout        Duration `yaml:"reset_timeout"`
	HalfOpenMaxRequests int      `yaml:"half_open_max_requests"`
	SuccessThreshold    int      `yaml:"success_threshold"`
}

type HealthConfig struct {
	Interval Duration `yaml:"interval"`
	Timeout  Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	AddCaller bool   `yaml:"add_caller"`
}

func defaultStore() StoreConfig {
	return StoreConfig{
		Driver:          "sqlite3",
		DSN:             "loans.db",
		ReadTimeout:     Seconds(15),
		WriteTimeout:    Seconds(20),
		QueueSize:       5,
		ConnectAttempts: 5,
		EnsureSchema:    true,
	}
}

func (s *StoreConfig) applyDefaults() {
	def := defaultStore()

	if s.Driver == "" {
		s.Driver = def.Driver
	}
	if s.ReadTimeout.Duration <= 0 {
		s.ReadTimeout = def.ReadTimeout
	}
	if s.WriteTimeout.Duration <= 0 {
		s.WriteTimeout = def.WriteTimeout
	}
	if s.QueueSize <= 0 {
		s.QueueSize = def.QueueSize
	}
	if s.ConnectAttempts == 0 {
		s.ConnectAttempts = def.ConnectAttempts
	}
}

func (h *HealthConfig) applyDefaults() {
	if h.Interval.Duration <= 0 {
		h.Interval = Seconds(30)
	}
	if h.Timeout.Duration <= 0 {
		h.Timeout = Seconds(5)
	}
}

func (l *LogConfig) applyDefaults(app string) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.File == "" {
		l.File = "logs/" + app + ".log"
	}
}

func decodeFile(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed open config file: %v", err)
	}
	defer file.Close()

	if err = yaml.NewDecoder(file).Decode(out); err != nil {
		return fmt.Errorf("failed decode config file: %v", err)
	}

	return nil
}
