package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the auction core.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Security  SecurityConfig  `mapstructure:"security"`
	Admission AdmissionConfig `mapstructure:"admission"`
	Fraud     FraudConfig     `mapstructure:"fraud"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig describes the HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RedisConfig describes the optional Redis backend for the counter store.
// An empty Addr selects the in-memory store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SecurityConfig holds every behavioral threshold consumed by the security
// monitor. All limits are per-deployment overridable; none are hardcoded at
// the decision sites.
type SecurityConfig struct {
	FailedLoginLimit     int           `mapstructure:"failed_login_limit"`
	FailedLoginWindow    time.Duration `mapstructure:"failed_login_window"`
	SuspiciousIPLimit    int           `mapstructure:"suspicious_ip_limit"`
	SuspiciousIPWindow   time.Duration `mapstructure:"suspicious_ip_window"`
	RapidBidLimit        int           `mapstructure:"rapid_bid_limit"`
	RapidBidWindow       time.Duration `mapstructure:"rapid_bid_window"`
	BreakerFailureCount  uint32        `mapstructure:"breaker_failure_count"`
	BreakerResetInterval time.Duration `mapstructure:"breaker_reset_interval"`
}

// AdmissionConfig tunes the optimistic-concurrency retry policy of the bid
// admission engine.
type AdmissionConfig struct {
	CASRetryAttempts uint          `mapstructure:"cas_retry_attempts"`
	CASRetryDelay    time.Duration `mapstructure:"cas_retry_delay"`
}

// FraudConfig holds the fraud ingestion settings, including the shared secret
// for the inbound webhook boundary.
type FraudConfig struct {
	RiskFlagThreshold float64 `mapstructure:"risk_flag_threshold"`
	WebhookSecret     string  `mapstructure:"webhook_secret"`
}

// NotifierConfig tunes realtime fan-out buffering.
type NotifierConfig struct {
	SubscriberBuffer int `mapstructure:"subscriber_buffer"`
}

// LoggerConfig configures the logrus level.
type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// Load builds the configuration from config.yaml (root or ./configs) merged
// with environment variables; SECURITY_FAILED_LOGIN_LIMIT=10 overrides
// security.failed_login_limit. Missing file is fine, env and defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unable to decode into struct: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("security.failed_login_limit", 5)
	v.SetDefault("security.failed_login_window", 15*time.Minute)
	v.SetDefault("security.suspicious_ip_limit", 3)
	v.SetDefault("security.suspicious_ip_window", time.Hour)
	v.SetDefault("security.rapid_bid_limit", 5)
	v.SetDefault("security.rapid_bid_window", time.Minute)
	v.SetDefault("security.breaker_failure_count", 5)
	v.SetDefault("security.breaker_reset_interval", 30*time.Second)

	v.SetDefault("admission.cas_retry_attempts", 3)
	v.SetDefault("admission.cas_retry_delay", 5*time.Millisecond)

	v.SetDefault("fraud.risk_flag_threshold", 0.7)

	v.SetDefault("notifier.subscriber_buffer", 32)

	v.SetDefault("logger.level", "info")
}

func (c *Config) validate() error {
	if c.Security.FailedLoginLimit <= 0 || c.Security.SuspiciousIPLimit <= 0 || c.Security.RapidBidLimit <= 0 {
		return errors.New("config: security limits must be positive")
	}
	if c.Fraud.RiskFlagThreshold < 0 || c.Fraud.RiskFlagThreshold > 1 {
		return errors.New("config: fraud.risk_flag_threshold must be within [0,1]")
	}
	if c.Admission.CASRetryAttempts == 0 {
		return errors.New("config: admission.cas_retry_attempts must be at least 1")
	}
	return nil
}

// Default returns the built-in configuration used by tests and local runs.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second},
		Security: SecurityConfig{
			FailedLoginLimit:     5,
			FailedLoginWindow:    15 * time.Minute,
			SuspiciousIPLimit:    3,
			SuspiciousIPWindow:   time.Hour,
			RapidBidLimit:        5,
			RapidBidWindow:       time.Minute,
			BreakerFailureCount:  5,
			BreakerResetInterval: 30 * time.Second,
		},
		Admission: AdmissionConfig{CASRetryAttempts: 3, CASRetryDelay: 5 * time.Millisecond},
		Fraud:     FraudConfig{RiskFlagThreshold: 0.7},
		Notifier:  NotifierConfig{SubscriberBuffer: 32},
		Logger:    LoggerConfig{Level: "info"},
	}
}
