package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SPLITTER"

type Config struct {
	Addr        string
	MaxUploadMB int64 // upper bound for one request's uploads
	LogLevel    string
	LogFormat   string // text or json

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
}

var defaults = map[string]any{
	"addr":                ":8080",
	"max-upload-mb":       32,
	"log-level":           "info",
	"log-format":          "text",
	"read-header-timeout": 2 * time.Second,
	"read-timeout":        60 * time.Second,
	"write-timeout":       60 * time.Second,
	"shutdown-timeout":    10 * time.Second,
}

// BindFlags registers the server flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("addr", defaults["addr"].(string), "HTTP listen address")
	fs.Int64("max-upload-mb", int64(defaults["max-upload-mb"].(int)), "maximum upload size per request in MiB")
	fs.String("log-level", defaults["log-level"].(string), "log level: debug, info, warn, error")
	fs.String("log-format", defaults["log-format"].(string), "log format: text or json")
	fs.Duration("read-header-timeout", defaults["read-header-timeout"].(time.Duration), "HTTP read header timeout")
	fs.Duration("read-timeout", defaults["read-timeout"].(time.Duration), "HTTP read timeout")
	fs.Duration("write-timeout", defaults["write-timeout"].(time.Duration), "HTTP write timeout")
	fs.Duration("shutdown-timeout", defaults["shutdown-timeout"].(time.Duration), "graceful shutdown timeout")
}

// Load resolves the configuration. Changed flags win over SPLITTER_*
// environment variables, which win over .env files and defaults.
func Load(fs *pflag.FlagSet) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg := &Config{
		Addr:              strings.TrimSpace(v.GetString("addr")),
		MaxUploadMB:       v.GetInt64("max-upload-mb"),
		LogLevel:          strings.ToLower(v.GetString("log-level")),
		LogFormat:         strings.ToLower(v.GetString("log-format")),
		ReadHeaderTimeout: v.GetDuration("read-header-timeout"),
		ReadTimeout:       v.GetDuration("read-timeout"),
		WriteTimeout:      v.GetDuration("write-timeout"),
		ShutdownTimeout:   v.GetDuration("shutdown-timeout"),
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("listen address must not be empty")
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max-upload-mb must be positive, got %d", cfg.MaxUploadMB)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("log-format must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// loadEnvFiles loads .env then .env.local. Variables already set are kept.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
