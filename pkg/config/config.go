// Package config provides configuration management for tr2ynab.
// It loads a YAML config file and applies overrides from environment
// variables and .env files, so credentials can stay out of the file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tr2ynab/tr2ynab/pkg/pathutil"
)

// Default endpoints, overridable for testing against local fakes.
const (
	DefaultTRAPIURL   = "https://api.traderepublic.com"
	DefaultTRWSURL    = "wss://api.traderepublic.com"
	DefaultYNABAPIURL = "https://api.ynab.com/v1"
)

// Config represents the application configuration.
type Config struct {
	Main          MainConfig          `yaml:"main"`
	TradeRepublic TradeRepublicConfig `yaml:"traderepublic"`
	YNAB          YNABConfig          `yaml:"ynab"`
}

// MainConfig holds tool-wide settings.
type MainConfig struct {
	// DBPath is the SQLite database holding import history and the
	// last-import checkpoint. Defaults to {config dir}/sync.db.
	DBPath string `yaml:"db_path"`
	// ArchiveDir enables monthly JSONL archives of fetched transactions
	// when set.
	ArchiveDir string `yaml:"archive_dir"`
	// MappingPath points to an optional YAML file mapping transaction
	// types to YNAB categories and flag colors.
	MappingPath string `yaml:"mapping_path"`
	// Currency is the ISO code used for display purposes. Defaults to EUR.
	Currency string `yaml:"currency"`
	// Locale is sent to Trade Republic during the websocket handshake.
	Locale string `yaml:"locale"`
}

// TradeRepublicConfig holds brokerage credentials and endpoints.
type TradeRepublicConfig struct {
	PhoneNo string `yaml:"phone_no"`
	PIN     string `yaml:"pin"`
	APIURL  string `yaml:"api_url"`
	WSURL   string `yaml:"ws_url"`
}

// YNABConfig holds budgeting service credentials.
type YNABConfig struct {
	BudgetID    string `yaml:"budget_id"`
	AccountID   string `yaml:"account_id"`
	AccessToken string `yaml:"access_token"`
	APIURL      string `yaml:"api_url"`
}

// Load reads the YAML config file and applies environment overrides.
// An empty path means the default location, ~/.config/tr2ynab/config.yaml.
// A .env file in the current directory is loaded first if present.
func Load(path string) (*Config, error) {
	// Pick up a local .env for ad-hoc secret overrides (ignore if absent).
	_ = godotenv.Load()

	if path == "" {
		path = pathutil.DefaultConfigPath()
	}
	path = pathutil.ExpandUser(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	return cfg, nil
}

// applyEnvOverrides lets TR2YNAB_* environment variables take precedence
// over file values, so secrets never have to live on disk.
func (c *Config) applyEnvOverrides() {
	overrideEnv(&c.TradeRepublic.PhoneNo, "TR2YNAB_TR_PHONE_NO")
	overrideEnv(&c.TradeRepublic.PIN, "TR2YNAB_TR_PIN")
	overrideEnv(&c.YNAB.BudgetID, "TR2YNAB_YNAB_BUDGET_ID")
	overrideEnv(&c.YNAB.AccountID, "TR2YNAB_YNAB_ACCOUNT_ID")
	overrideEnv(&c.YNAB.AccessToken, "TR2YNAB_YNAB_ACCESS_TOKEN")
	overrideEnv(&c.Main.DBPath, "TR2YNAB_DB_PATH")
}

func (c *Config) applyDefaults() {
	if c.Main.Currency == "" {
		c.Main.Currency = "EUR"
	}
	if c.Main.Locale == "" {
		c.Main.Locale = "en"
	}
	if c.TradeRepublic.APIURL == "" {
		c.TradeRepublic.APIURL = DefaultTRAPIURL
	}
	if c.TradeRepublic.WSURL == "" {
		c.TradeRepublic.WSURL = DefaultTRWSURL
	}
	if c.YNAB.APIURL == "" {
		c.YNAB.APIURL = DefaultYNABAPIURL
	}
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "traderepublic":
			switch path[1] {
			case "phoneNo":
				value = c.TradeRepublic.PhoneNo
			case "pin":
				value = c.TradeRepublic.PIN
			case "apiUrl":
				value = c.TradeRepublic.APIURL
			case "wsUrl":
				value = c.TradeRepublic.WSURL
			}
		case "ynab":
			switch path[1] {
			case "budgetId":
				value = c.YNAB.BudgetID
			case "accountId":
				value = c.YNAB.AccountID
			case "accessToken":
				value = c.YNAB.AccessToken
			case "apiUrl":
				value = c.YNAB.APIURL
			}
		case "main":
			switch path[1] {
			case "dbPath":
				value = c.Main.DBPath
			case "archiveDir":
				value = c.Main.ArchiveDir
			case "currency":
				value = c.Main.Currency
			}
		}

		if value == "" {
			missing = append(missing, joinPath(path))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your config file or TR2YNAB_* environment variables", missing)
	}

	return nil
}

// overrideEnv replaces *dst with the environment value when set.
func overrideEnv(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// joinPath joins a path slice into a dot-separated string.
func joinPath(path []string) string {
	result := ""
	for i, p := range path {
		if i > 0 {
			result += "."
		}
		result += p
	}
	return result
}
