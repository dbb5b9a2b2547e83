// Package config provides configuration management for the order bridge.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"brokerbridge/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig  `mapstructure:"server"`
	Trading     TradingConfig `mapstructure:"trading"`
	Journal     JournalConfig `mapstructure:"journal"`
	Log         LogConfig     `mapstructure:"log"`
	Credentials Credentials   `mapstructure:"-"` // Loaded separately
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// TradingConfig holds execution-related configuration.
type TradingConfig struct {
	DefaultBroker   string   `mapstructure:"default_broker"`
	Priority        []string `mapstructure:"priority"`
	FailoverEnabled bool     `mapstructure:"failover_enabled"`
	DefaultProduct  string   `mapstructure:"default_product"`  // MIS, CNC, NRML
	DefaultExchange string   `mapstructure:"default_exchange"` // NSE, NFO
}

// JournalConfig holds trade journal configuration.
type JournalConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// Credentials holds API credentials per broker.
type Credentials struct {
	Zerodha  ZerodhaCredentials  `mapstructure:"zerodha"`
	Fyers    FyersCredentials    `mapstructure:"fyers"`
	Stoxkart StoxkartCredentials `mapstructure:"stoxkart"`
}

// ZerodhaCredentials holds Zerodha Kite Connect credentials.
type ZerodhaCredentials struct {
	APIKey     string `mapstructure:"api_key"`
	APISecret  string `mapstructure:"api_secret"`
	UserID     string `mapstructure:"user_id"`
	TOTPSecret string `mapstructure:"totp_secret"` // For 2FA login assist
}

// FyersCredentials holds Fyers API credentials.
type FyersCredentials struct {
	ClientID    string `mapstructure:"client_id"`
	SecretKey   string `mapstructure:"secret_key"`
	RedirectURI string `mapstructure:"redirect_uri"`
	APIBaseURL  string `mapstructure:"api_base_url"`
}

// StoxkartCredentials holds Stoxkart API credentials.
type StoxkartCredentials struct {
	ClientID    string `mapstructure:"client_id"`
	SecretKey   string `mapstructure:"secret_key"`
	RedirectURI string `mapstructure:"redirect_uri"`
	AuthBaseURL string `mapstructure:"auth_base_url"`
	TokenURL    string `mapstructure:"token_url"`
	APIBaseURL  string `mapstructure:"api_base_url"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/brokerbridge"
	}
	return filepath.Join(home, ".config", "brokerbridge")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateConfig(configDir)
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Trading.DefaultBroker == "" {
		cfg.Trading.DefaultBroker = string(models.BrokerZerodha)
	}
	if len(cfg.Trading.Priority) == 0 {
		for _, id := range models.AllBrokers() {
			cfg.Trading.Priority = append(cfg.Trading.Priority, string(id))
		}
	}
	if cfg.Trading.DefaultProduct == "" {
		cfg.Trading.DefaultProduct = string(models.ProductNRML)
	}
	if cfg.Trading.DefaultExchange == "" {
		cfg.Trading.DefaultExchange = string(models.NFO)
	}
	if cfg.Journal.DBPath == "" {
		cfg.Journal.DBPath = filepath.Join(DefaultConfigDir(), "journal.db")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
		cfg.Log.Console = true
		cfg.Log.File = true
	}
}

func applyEnvOverrides(cfg *Config) {
	// Zerodha
	if v := os.Getenv("ZERODHA_API_KEY"); v != "" {
		cfg.Credentials.Zerodha.APIKey = v
	}
	if v := os.Getenv("ZERODHA_API_SECRET"); v != "" {
		cfg.Credentials.Zerodha.APISecret = v
	}
	if v := os.Getenv("ZERODHA_USER_ID"); v != "" {
		cfg.Credentials.Zerodha.UserID = v
	}
	if v := os.Getenv("ZERODHA_TOTP_SECRET"); v != "" {
		cfg.Credentials.Zerodha.TOTPSecret = v
	}

	// Fyers
	if v := os.Getenv("FYERS_CLIENT_ID"); v != "" {
		cfg.Credentials.Fyers.ClientID = v
	}
	if v := os.Getenv("FYERS_SECRET_KEY"); v != "" {
		cfg.Credentials.Fyers.SecretKey = v
	}
	if v := os.Getenv("FYERS_REDIRECT_URI"); v != "" {
		cfg.Credentials.Fyers.RedirectURI = v
	}

	// Stoxkart
	if v := os.Getenv("STOXKART_CLIENT_ID"); v != "" {
		cfg.Credentials.Stoxkart.ClientID = v
	}
	if v := os.Getenv("STOXKART_SECRET_KEY"); v != "" {
		cfg.Credentials.Stoxkart.SecretKey = v
	}
	if v := os.Getenv("STOXKART_API_BASE_URL"); v != "" {
		cfg.Credentials.Stoxkart.APIBaseURL = v
	}
	if v := os.Getenv("STOXKART_AUTH_BASE_URL"); v != "" {
		cfg.Credentials.Stoxkart.AuthBaseURL = v
	}
	if v := os.Getenv("STOXKART_TOKEN_URL"); v != "" {
		cfg.Credentials.Stoxkart.TokenURL = v
	}

	if v := os.Getenv("BROKERBRIDGE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BROKERBRIDGE_DEFAULT_BROKER"); v != "" {
		cfg.Trading.DefaultBroker = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, ok := models.ParseBrokerID(c.Trading.DefaultBroker); !ok {
		return fmt.Errorf("invalid default broker: %s", c.Trading.DefaultBroker)
	}
	seen := make(map[string]bool, len(c.Trading.Priority))
	for _, b := range c.Trading.Priority {
		if _, ok := models.ParseBrokerID(b); !ok {
			return fmt.Errorf("invalid broker in priority list: %s", b)
		}
		if seen[b] {
			return fmt.Errorf("duplicate broker in priority list: %s", b)
		}
		seen[b] = true
	}
	switch models.ProductType(c.Trading.DefaultProduct) {
	case models.ProductMIS, models.ProductCNC, models.ProductNRML:
	default:
		return fmt.Errorf("invalid default product: %s", c.Trading.DefaultProduct)
	}
	return nil
}

// PriorityList returns the configured failover priority as broker ids.
func (c *Config) PriorityList() []models.BrokerID {
	out := make([]models.BrokerID, 0, len(c.Trading.Priority))
	for _, b := range c.Trading.Priority {
		if id, ok := models.ParseBrokerID(b); ok {
			out = append(out, id)
		}
	}
	return out
}

// BrokerCredentials maps the config credential set for one broker into the
// generic credential shape the adapters consume.
func (c *Config) BrokerCredentials(id models.BrokerID) models.Credentials {
	switch id {
	case models.BrokerZerodha:
		return models.Credentials{
			APIKey:     c.Credentials.Zerodha.APIKey,
			APISecret:  c.Credentials.Zerodha.APISecret,
			TOTPSecret: c.Credentials.Zerodha.TOTPSecret,
		}
	case models.BrokerFyers:
		return models.Credentials{
			APIKey:      c.Credentials.Fyers.ClientID,
			APISecret:   c.Credentials.Fyers.SecretKey,
			RedirectURI: c.Credentials.Fyers.RedirectURI,
			APIBaseURL:  c.Credentials.Fyers.APIBaseURL,
		}
	case models.BrokerStoxkart:
		return models.Credentials{
			APIKey:      c.Credentials.Stoxkart.ClientID,
			APISecret:   c.Credentials.Stoxkart.SecretKey,
			RedirectURI: c.Credentials.Stoxkart.RedirectURI,
			AuthBaseURL: c.Credentials.Stoxkart.AuthBaseURL,
			TokenURL:    c.Credentials.Stoxkart.TokenURL,
			APIBaseURL:  c.Credentials.Stoxkart.APIBaseURL,
		}
	}
	return models.Credentials{}
}
