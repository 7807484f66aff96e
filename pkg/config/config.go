// Package config provides configuration management for beancount-helper.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// AppName names the application data directory.
const AppName = "beancount_helper"

// Config represents the application configuration.
type Config struct {
	Home      string
	Beancount BeancountConfig
	Debug     bool
}

// BeancountConfig represents Beancount-related configuration. Relative paths
// are resolved against Home.
type BeancountConfig struct {
	Ledger            string
	Rules             string
	BeanCheckBin      string
	VerifyAfterCommit bool
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	verify, err := parseBoolEnv("BEANCOUNT_VERIFY_AFTER_COMMIT", false)
	if err != nil {
		return nil, err
	}
	debug, err := parseBoolEnv("DEBUG", false)
	if err != nil {
		return nil, err
	}

	home := os.Getenv("BEANCOUNT_HELPER_HOME")
	if home == "" {
		home = DefaultHome()
	}

	config := &Config{
		Home: home,
		Beancount: BeancountConfig{
			Ledger:            getEnvOrDefault("BEANCOUNT_LEDGER", filepath.Join("bean", "moneybook.bean")),
			Rules:             getEnvOrDefault("BEANCOUNT_RULES", filepath.Join("rule", "rules.yaml")),
			BeanCheckBin:      getEnvOrDefault("BEAN_CHECK_BIN", "bean-check"),
			VerifyAfterCommit: verify,
		},
		Debug: debug,
	}

	return config, nil
}

// DefaultHome returns the default data directory: $LOCALAPPDATA/beancount_helper/data
// when LOCALAPPDATA is set, ~/.local/share/beancount_helper/data otherwise.
func DefaultHome() string {
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		return filepath.Join(local, AppName, "data")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", AppName, "data")
	}
	return filepath.Join(".", AppName, "data")
}

// Resolve returns path unchanged when absolute, joined to Home otherwise.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Home, path)
}

// LedgerPath returns the absolute main ledger path.
func (c *Config) LedgerPath() string {
	return c.Resolve(c.Beancount.Ledger)
}

// RulesPath returns the absolute rules.yaml path.
func (c *Config) RulesPath() string {
	return c.Resolve(c.Beancount.Rules)
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) == 0 {
			continue
		}

		var value string
		switch path[0] {
		case "home":
			value = c.Home
		case "beancount":
			if len(path) < 2 {
				continue
			}
			switch path[1] {
			case "ledger":
				value = c.Beancount.Ledger
			case "rules":
				value = c.Beancount.Rules
			case "beanCheckBin":
				value = c.Beancount.BeanCheckBin
			}
		}

		if value == "" {
			missing = append(missing, joinPath(path))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseBoolEnv parses a bool from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s: %s", key, value)
	}

	return parsed, nil
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
