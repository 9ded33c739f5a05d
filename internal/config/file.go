package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileDuration time.Duration

func (d *fileDuration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!int" {
			var seconds int64
			if err := value.Decode(&seconds); err != nil {
				return err
			}
			*d = fileDuration(time.Duration(seconds) * time.Second)
			return nil
		}
		var raw string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		*d = fileDuration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration type")
	}
}

type ConfigFile struct {
	Server    *ServerConfigFile    `yaml:"server"`
	Webhooks  *WebhooksConfigFile  `yaml:"webhooks"`
	RateLimit *RateLimitConfigFile `yaml:"rate_limit"`
	Sheets    *SheetsConfigFile    `yaml:"sheets"`
	Auth      *AuthConfigFile      `yaml:"auth"`
	Logging   *LoggingConfigFile   `yaml:"logging"`
}

type ServerConfigFile struct {
	Host         *string       `yaml:"host"`
	Port         *int          `yaml:"port"`
	ReadTimeout  *fileDuration `yaml:"read_timeout"`
	WriteTimeout *fileDuration `yaml:"write_timeout"`
	TrustProxy   *bool         `yaml:"trust_proxy"`
}

type OperationConfigFile struct {
	URL         *string `yaml:"url"`
	WorkflowURL *string `yaml:"workflow_url"`
}

type WebhooksConfigFile struct {
	Timeout    *fileDuration                   `yaml:"timeout"`
	Operations map[string]*OperationConfigFile `yaml:"operations"`
}

type RateLimitConfigFile struct {
	RequestsPerMinute *int `yaml:"requests_per_minute"`
	Burst             *int `yaml:"burst"`
}

type SheetsConfigFile struct {
	SpreadsheetID   *string       `yaml:"spreadsheet_id"`
	CategoryRange   *string       `yaml:"category_range"`
	StatusRange     *string       `yaml:"status_range"`
	CredentialsFile *string       `yaml:"credentials_file"`
	Timeout         *fileDuration `yaml:"timeout"`
}

type AuthConfigFile struct {
	Username     *string `yaml:"username"`
	PasswordHash *string `yaml:"password_hash"`
}

type LoggingConfigFile struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

func loadConfigFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return applyConfigFile(cfg, &file)
}

func applyConfigFile(cfg *Config, file *ConfigFile) error {
	if cfg == nil || file == nil {
		return nil
	}

	if file.Server != nil {
		if file.Server.Host != nil {
			cfg.Server.Host = *file.Server.Host
		}
		if file.Server.Port != nil {
			cfg.Server.Port = *file.Server.Port
		}
		if file.Server.ReadTimeout != nil {
			cfg.Server.ReadTimeout = time.Duration(*file.Server.ReadTimeout)
		}
		if file.Server.WriteTimeout != nil {
			cfg.Server.WriteTimeout = time.Duration(*file.Server.WriteTimeout)
		}
		if file.Server.TrustProxy != nil {
			cfg.Server.TrustProxy = *file.Server.TrustProxy
		}
	}

	if file.Webhooks != nil {
		if file.Webhooks.Timeout != nil {
			cfg.Webhooks.Timeout = time.Duration(*file.Webhooks.Timeout)
		}
		for name, opFile := range file.Webhooks.Operations {
			op, known := cfg.Webhooks.Operations[name]
			if !known {
				return fmt.Errorf("unknown operation %q in webhooks.operations", name)
			}
			if opFile == nil {
				continue
			}
			if opFile.URL != nil {
				op.URL = *opFile.URL
			}
			if opFile.WorkflowURL != nil {
				op.WorkflowURL = *opFile.WorkflowURL
			}
			cfg.Webhooks.Operations[name] = op
		}
	}

	if file.RateLimit != nil {
		if file.RateLimit.RequestsPerMinute != nil {
			cfg.RateLimit.RequestsPerMinute = *file.RateLimit.RequestsPerMinute
		}
		if file.RateLimit.Burst != nil {
			cfg.RateLimit.Burst = *file.RateLimit.Burst
		}
	}

	if file.Sheets != nil {
		if file.Sheets.SpreadsheetID != nil {
			cfg.Sheets.SpreadsheetID = *file.Sheets.SpreadsheetID
		}
		if file.Sheets.CategoryRange != nil {
			cfg.Sheets.CategoryRange = *file.Sheets.CategoryRange
		}
		if file.Sheets.StatusRange != nil {
			cfg.Sheets.StatusRange = *file.Sheets.StatusRange
		}
		if file.Sheets.CredentialsFile != nil {
			cfg.Sheets.CredentialsFile = *file.Sheets.CredentialsFile
		}
		if file.Sheets.Timeout != nil {
			cfg.Sheets.Timeout = time.Duration(*file.Sheets.Timeout)
		}
	}

	if file.Auth != nil {
		if file.Auth.Username != nil {
			cfg.Auth.Username = *file.Auth.Username
		}
		if file.Auth.PasswordHash != nil {
			cfg.Auth.PasswordHash = *file.Auth.PasswordHash
		}
	}

	if file.Logging != nil {
		if file.Logging.Level != nil {
			cfg.Logging.Level = *file.Logging.Level
		}
		if file.Logging.Format != nil {
			cfg.Logging.Format = *file.Logging.Format
		}
	}

	return nil
}

// GetConfigFilePath returns the path to the config file based on environment variables.
func GetConfigFilePath() string {
	return getEnvAny("", "FLOWDASH_CONFIG_FILE", "CONFIG_FILE")
}
