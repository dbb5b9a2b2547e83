package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Broker Bridge Configuration

[server]
# HTTP listen address
addr = ":8080"

[trading]
# Broker used when the caller does not select one: zerodha, fyers, stoxkart
default_broker = "zerodha"
# Failover candidate order after the active broker
priority = ["zerodha", "fyers", "stoxkart"]
# Enable automatic failover to the next broker on a failed execution
failover_enabled = false
# Default product type: MIS, CNC, NRML
default_product = "NRML"
# Default derivatives exchange
default_exchange = "NFO"

[journal]
# SQLite database path (empty = <config dir>/journal.db)
db_path = ""

[log]
level = "info"
console = true
file = true
`

const credentialsTemplate = `# Broker Bridge Credentials
# Keep this file private (chmod 600).

[zerodha]
api_key = ""
api_secret = ""
user_id = ""
totp_secret = ""

[fyers]
client_id = ""
secret_key = ""
redirect_uri = "http://127.0.0.1:8080/api/fyers/callback"
api_base_url = ""

[stoxkart]
client_id = ""
secret_key = ""
redirect_uri = "http://127.0.0.1:8080/api/stoxkart/callback"
auth_base_url = ""
token_url = ""
api_base_url = ""
`

func createTemplateConfig(configDir string) error {
	return writeTemplate(configDir, "config.toml", configTemplate, 0644)
}

func createTemplateCredentials(configDir string) error {
	return writeTemplate(configDir, "credentials.toml", credentialsTemplate, 0600)
}

func writeTemplate(configDir, name, content string, perm os.FileMode) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}
	return nil
}
