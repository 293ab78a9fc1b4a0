package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	SearXNG    SearXNGConfig    `yaml:"searxng" mapstructure:"searxng"`
	AI         AIConfig         `yaml:"ai" mapstructure:"ai"`
	OpenRouter OpenRouterConfig `yaml:"openrouter" mapstructure:"openrouter"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Jobs       JobsConfig       `yaml:"jobs" mapstructure:"jobs"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SearXNGConfig holds search backend settings.
type SearXNGConfig struct {
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url"`
	Fallbacks   []string `yaml:"fallbacks" mapstructure:"fallbacks"`
	ResultLimit int      `yaml:"result_limit" mapstructure:"result_limit"`
	RateQPS     float64  `yaml:"rate_qps" mapstructure:"rate_qps"`
}

// AIConfig selects the adjudication backend.
type AIConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// OpenRouterConfig holds OpenRouter API settings.
type OpenRouterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings (alternate adjudicator).
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// JobsConfig configures batch job processing and retention.
type JobsConfig struct {
	RetentionHours    int `yaml:"retention_hours" mapstructure:"retention_hours"`
	SweepIntervalMins int `yaml:"sweep_interval_mins" mapstructure:"sweep_interval_mins"`
	Workers           int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("searxng.base_url", "https://searx.be")
	v.SetDefault("searxng.fallbacks", []string{"https://searx.org", "https://searx.space"})
	v.SetDefault("searxng.result_limit", 10)
	v.SetDefault("searxng.rate_qps", 2.0)
	v.SetDefault("ai.provider", "openrouter")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "moonshotai/kimi-k2")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("jobs.retention_hours", 24)
	v.SetDefault("jobs.sweep_interval_mins", 60)
	v.SetDefault("jobs.workers", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required for the given run mode.
func (c *Config) Validate(mode string) error {
	var missing []string

	requireKey := func() {
		switch c.AI.Provider {
		case "openrouter":
			if c.OpenRouter.Key == "" {
				missing = append(missing, "openrouter.key is required")
			}
		case "anthropic":
			if c.Anthropic.Key == "" {
				missing = append(missing, "anthropic.key is required")
			}
		default:
			missing = append(missing, "ai.provider must be openrouter or anthropic")
		}
		if c.SearXNG.BaseURL == "" {
			missing = append(missing, "searxng.base_url is required")
		}
	}

	switch mode {
	case "serve":
		requireKey()
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
		if c.Jobs.RetentionHours <= 0 {
			missing = append(missing, "jobs.retention_hours must be > 0")
		}
		if c.Jobs.Workers < 1 || c.Jobs.Workers > 50 {
			missing = append(missing, "jobs.workers must be between 1 and 50")
		}
	case "lookup", "csvrun":
		requireKey()
		if mode == "csvrun" && (c.Jobs.Workers < 1 || c.Jobs.Workers > 50) {
			missing = append(missing, "jobs.workers must be between 1 and 50")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
