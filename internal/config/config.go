package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pharmalink/procure-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs" mapstructure:"elevenlabs"`
	Call       CallConfig       `yaml:"call" mapstructure:"call"`
	Analytics  AnalyticsConfig  `yaml:"analytics" mapstructure:"analytics"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the CSV catalog and the transcript archive.
type DataConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`
	TranscriptsDir string `yaml:"transcripts_dir" mapstructure:"transcripts_dir"`
}

// AnthropicConfig holds Anthropic API settings for transcript extraction.
type AnthropicConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	Model             string `yaml:"model" mapstructure:"model"`
	MaxTokens         int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// ElevenLabsConfig holds the conversational-call service settings.
type ElevenLabsConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	PhoneNumberID     string `yaml:"phone_number_id" mapstructure:"phone_number_id"`
	ProductsAgent     string `yaml:"products_agent" mapstructure:"products_agent"`
	DeliveryAgent     string `yaml:"delivery_agent" mapstructure:"delivery_agent"`
	AvailabilityAgent string `yaml:"availability_agent" mapstructure:"availability_agent"`
}

// CallConfig bounds call execution.
type CallConfig struct {
	PollIntervalSecs int `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	TimeoutSecs      int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxConcurrent    int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// AnalyticsConfig holds default thresholds for the analytics queries.
type AnalyticsConfig struct {
	MinSavingsPercent float64 `yaml:"min_savings_percent" mapstructure:"min_savings_percent"`
	MinSuppliers      int     `yaml:"min_suppliers" mapstructure:"min_suppliers"`
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
	v.SetEnvPrefix("PROCURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.transcripts_dir", "./data/transcripts")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.requests_per_minute", 30)
	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("call.poll_interval_secs", 2)
	v.SetDefault("call.timeout_secs", 600)
	v.SetDefault("call.max_concurrent", 3)
	v.SetDefault("analytics.min_savings_percent", 5.0)
	v.SetDefault("analytics.min_suppliers", 1)

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

// AgentIDs maps each agent kind to its configured voice agent.
func (c ElevenLabsConfig) AgentIDs() map[model.AgentKind]string {
	return map[model.AgentKind]string{
		model.AgentKindProducts:     c.ProductsAgent,
		model.AgentKindDelivery:     c.DeliveryAgent,
		model.AgentKindAvailability: c.AvailabilityAgent,
	}
}

// Validate checks the configuration required for the given command mode and
// collects every problem into one error.
func (c *Config) Validate(mode string) error {
	var problems []string

	common := func() {
		if c.Data.Dir == "" {
			problems = append(problems, "data.dir is required")
		}
		if c.Call.MaxConcurrent < 1 || c.Call.MaxConcurrent > 20 {
			problems = append(problems, "call.max_concurrent must be between 1 and 20")
		}
		if c.Analytics.MinSavingsPercent < 0 {
			problems = append(problems, "analytics.min_savings_percent must be >= 0")
		}
	}
	needAnthropic := func() {
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	}
	needElevenLabs := func() {
		if c.ElevenLabs.Key == "" {
			problems = append(problems, "elevenlabs.key is required")
		}
		if c.ElevenLabs.PhoneNumberID == "" {
			problems = append(problems, "elevenlabs.phone_number_id is required")
		}
	}

	switch mode {
	case "serve":
		common()
		needAnthropic()
		needElevenLabs()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "call":
		common()
		needAnthropic()
		needElevenLabs()
	case "reconcile":
		common()
		needAnthropic()
	case "analytics":
		common()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
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
