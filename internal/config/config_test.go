package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerbridge/internal/models"
)

func writeConfigFiles(t *testing.T, configTOML, credentialsTOML string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(configTOML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(credentialsTOML), 0600))
	return dir
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := writeConfigFiles(t, "", "")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "zerodha", cfg.Trading.DefaultBroker)
	assert.Equal(t, []string{"zerodha", "fyers", "stoxkart"}, cfg.Trading.Priority)
	assert.Equal(t, "NRML", cfg.Trading.DefaultProduct)
	assert.NotEmpty(t, cfg.Journal.DBPath)
}

func TestLoadReadsValues(t *testing.T) {
	dir := writeConfigFiles(t, `
[server]
addr = ":9090"

[trading]
default_broker = "fyers"
priority = ["fyers", "zerodha"]
failover_enabled = true
default_product = "MIS"
`, `
[zerodha]
api_key = "zkey"
api_secret = "zsecret"

[fyers]
client_id = "FY123"
secret_key = "fsecret"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "fyers", cfg.Trading.DefaultBroker)
	assert.True(t, cfg.Trading.FailoverEnabled)
	assert.Equal(t, []models.BrokerID{models.BrokerFyers, models.BrokerZerodha}, cfg.PriorityList())

	zcreds := cfg.BrokerCredentials(models.BrokerZerodha)
	assert.Equal(t, "zkey", zcreds.APIKey)
	assert.True(t, zcreds.Configured())

	fcreds := cfg.BrokerCredentials(models.BrokerFyers)
	assert.Equal(t, "FY123", fcreds.APIKey)
	assert.Equal(t, "fsecret", fcreds.APISecret)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := writeConfigFiles(t, "", "")
	t.Setenv("ZERODHA_API_KEY", "env-key")
	t.Setenv("BROKERBRIDGE_ADDR", ":7070")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Credentials.Zerodha.APIKey)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"unknown default broker", Config{Trading: TradingConfig{
			DefaultBroker: "upstox", DefaultProduct: "NRML",
		}}},
		{"unknown broker in priority", Config{Trading: TradingConfig{
			DefaultBroker: "zerodha", Priority: []string{"zerodha", "upstox"}, DefaultProduct: "NRML",
		}}},
		{"duplicate priority entry", Config{Trading: TradingConfig{
			DefaultBroker: "zerodha", Priority: []string{"fyers", "fyers"}, DefaultProduct: "NRML",
		}}},
		{"bad product", Config{Trading: TradingConfig{
			DefaultBroker: "zerodha", DefaultProduct: "BO",
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.cfg.Validate())
		})
	}
}

func TestLoadCreatesTemplates(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, err, "missing config produces a template")
	_, err = os.Stat(filepath.Join(dir, "credentials.toml"))
	assert.NoError(t, err)
}
