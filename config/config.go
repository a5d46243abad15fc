// Package config loads the archive settings from flags, a config file and
// DICOM_ARCHIVE_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. DICOM_ARCHIVE_HTTP_ADDR.
const EnvPrefix = "DICOM_ARCHIVE"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	StorageRoot string `mapstructure:"storage_root"`
	StoreDriver string `mapstructure:"store_driver"`

	DBNetwork  string `mapstructure:"db_network"`
	DBAddr     string `mapstructure:"db_addr"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBDatabase string `mapstructure:"db_database"`

	HTTPAddr   string `mapstructure:"http_addr"`
	EnableCORS bool   `mapstructure:"enable_cors"`

	SCPEnabled bool   `mapstructure:"scp_enabled"`
	SCPAddr    string `mapstructure:"scp_addr"`
	SCPAETitle string `mapstructure:"scp_ae_title"`

	LogLevel       string `mapstructure:"log_level"`
	LogTextLogging bool   `mapstructure:"log_textlogging"`

	RenderTimeout  time.Duration `mapstructure:"render_timeout"`
	UploadMaxBytes int64         `mapstructure:"upload_max_bytes"`
	ServiceName    string        `mapstructure:"service_name"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage_root", "./storage")
	v.SetDefault("store_driver", DriverPostgres)

	v.SetDefault("db_network", "tcp")
	v.SetDefault("db_addr", "localhost:5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_database", "dicom_archive")

	v.SetDefault("http_addr", ":3000")
	v.SetDefault("enable_cors", false)

	v.SetDefault("scp_enabled", false)
	v.SetDefault("scp_addr", ":11112")
	v.SetDefault("scp_ae_title", "DICOM_ARCHIVE")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_textlogging", false)

	v.SetDefault("render_timeout", "15s")
	v.SetDefault("upload_max_bytes", 10<<20)
	v.SetDefault("service_name", "dicom-archive")
}

// Load reads the settings held by v, which may already carry bound flags and
// a config file, and validates them.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&c.StorageRoot, validation.Required),
		validation.Field(&c.StoreDriver, validation.Required, validation.In(DriverPostgres, DriverMemory)),
		validation.Field(&c.HTTPAddr, validation.Required),
		validation.Field(&c.UploadMaxBytes, validation.Min(int64(1))),
	}
	if c.SCPEnabled {
		rules = append(rules,
			validation.Field(&c.SCPAddr, validation.Required),
			// AE titles are at most 16 characters
			validation.Field(&c.SCPAETitle, validation.Required, validation.Length(1, 16)),
		)
	}
	return validation.ValidateStruct(c, rules...)
}
