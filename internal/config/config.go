package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"omni_pulse/internal/logger"
)

// FileEnv names the optional YAML file applied before environment overrides.
const FileEnv = "OMNI_CONFIG_FILE"

type Config struct {
	HTTPAddr     string             `yaml:"http_addr" validate:"required"`
	ReportFile   string             `yaml:"report_file"`
	Intelligence IntelligenceConfig `yaml:"intelligence"`
	Market       MarketConfig       `yaml:"market"`
	Images       ImageConfig        `yaml:"images"`
	Gemini       GeminiConfig       `yaml:"gemini"`
	Omni         OmniConfig         `yaml:"omni"`
	Log          LogConfig          `yaml:"log"`
	Alpaca       AlpacaConfig       `yaml:"alpaca"`
	Telegram     TelegramConfig     `yaml:"telegram"`
}

// IntelligenceConfig points the dashboard at the analysis backend.
type IntelligenceConfig struct {
	URL        string        `yaml:"url" validate:"omitempty,url"`
	APIKey     string        `yaml:"api_key"`
	RequireKey bool          `yaml:"require_key"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	NewsLimit  int           `yaml:"news_limit" validate:"gte=1,lte=20"`
}

type MarketConfig struct {
	TickSchedule  string        `yaml:"tick_schedule" validate:"required"`
	ClockInterval time.Duration `yaml:"clock_interval" validate:"gt=0"`
	// MaxAbsChange clamps the cumulative daily change in percent; 0 disables it.
	MaxAbsChange float64 `yaml:"max_abs_change" validate:"gte=0"`
	// PriceBand clamps prices to a fraction around the seed; 0 disables it.
	PriceBand float64 `yaml:"price_band" validate:"gte=0,lt=1"`
}

type ImageConfig struct {
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
	Prefix  int           `yaml:"prefix" validate:"gte=0,lte=5"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model" validate:"required"`
}

// OmniConfig configures the analysis backend process.
type OmniConfig struct {
	HTTPAddr  string `yaml:"http_addr" validate:"required"`
	AccessKey string `yaml:"access_key"`
	RPM       int    `yaml:"rpm" validate:"gte=0"`
	Burst     int    `yaml:"burst" validate:"gte=1"`
}

type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=DEBUG INFO WARN WARNING ERROR"`
	File       string `yaml:"file" validate:"required"`
	MaxSizeMB  int64  `yaml:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
}

type AlpacaConfig struct {
	KeyID     string `yaml:"key_id"`
	SecretKey string `yaml:"secret_key"`
	// Reanchor maps asset ids to Alpaca tickers, e.g. "xlk=XLK,xlf=XLF".
	Reanchor string `yaml:"reanchor"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		HTTPAddr: ":8080",
		Intelligence: IntelligenceConfig{
			Timeout:   30 * time.Second,
			NewsLimit: 5,
		},
		Market: MarketConfig{
			TickSchedule:  "@every 15m",
			ClockInterval: time.Second,
			MaxAbsChange:  25,
		},
		Images: ImageConfig{
			Timeout: 20 * time.Second,
			Prefix:  2,
		},
		Gemini: GeminiConfig{Model: "gemini-3-flash-preview"},
		Omni: OmniConfig{
			HTTPAddr: ":8888",
			RPM:      10,
			Burst:    2,
		},
		Log: LogConfig{
			Level:      "INFO",
			File:       "omni_pulse.log",
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
	}
}

var validate = validator.New()

// Load builds the configuration from defaults, the optional YAML file named
// by OMNI_CONFIG_FILE, then environment variables (a .env file is read first).
// Missing keys are never fatal: the features that need them stay disabled.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug("No .env file found, using system environment variables")
	}

	cfg := Defaults()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.ReportFile = getEnv("REPORT_FILE", c.ReportFile)

	c.Intelligence.URL = getEnv("INTELLIGENCE_URL", c.Intelligence.URL)
	c.Intelligence.APIKey = getEnv("INTELLIGENCE_API_KEY", c.Intelligence.APIKey)
	c.Intelligence.RequireKey = getEnvAsBool("INTELLIGENCE_REQUIRE_KEY", c.Intelligence.RequireKey)
	c.Intelligence.Timeout = getEnvAsDuration("INTELLIGENCE_TIMEOUT", c.Intelligence.Timeout)
	c.Intelligence.NewsLimit = getEnvAsInt("NEWS_LIMIT", c.Intelligence.NewsLimit)

	c.Market.TickSchedule = getEnv("MARKET_TICK_SCHEDULE", c.Market.TickSchedule)
	c.Market.ClockInterval = getEnvAsDuration("CLOCK_INTERVAL", c.Market.ClockInterval)
	c.Market.MaxAbsChange = getEnvAsFloat64("MARKET_MAX_ABS_CHANGE", c.Market.MaxAbsChange)
	c.Market.PriceBand = getEnvAsFloat64("MARKET_PRICE_BAND", c.Market.PriceBand)

	c.Images.Model = getEnv("IMAGE_MODEL", c.Images.Model)
	c.Images.Timeout = getEnvAsDuration("IMAGE_TIMEOUT", c.Images.Timeout)
	c.Images.Prefix = getEnvAsInt("IMAGE_PREFIX", c.Images.Prefix)

	c.Gemini.APIKey = getEnv("GEMINI_API_KEY", c.Gemini.APIKey)
	c.Gemini.Model = getEnv("GEMINI_MODEL", c.Gemini.Model)

	c.Omni.HTTPAddr = getEnv("OMNI_HTTP_ADDR", c.Omni.HTTPAddr)
	c.Omni.AccessKey = getEnv("OMNI_ACCESS_KEY", c.Omni.AccessKey)
	c.Omni.RPM = getEnvAsInt("OMNI_RPM", c.Omni.RPM)
	c.Omni.Burst = getEnvAsInt("OMNI_BURST", c.Omni.Burst)

	c.Log.Level = strings.ToUpper(getEnv("WATCHER_LOG_LEVEL", c.Log.Level))
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.Log.MaxSizeMB = int64(getEnvAsInt("MAX_LOG_SIZE_MB", int(c.Log.MaxSizeMB)))
	c.Log.MaxBackups = getEnvAsInt("MAX_LOG_BACKUPS", c.Log.MaxBackups)

	c.Alpaca.KeyID = getEnv("APCA_API_KEY_ID", c.Alpaca.KeyID)
	c.Alpaca.SecretKey = getEnv("APCA_API_SECRET_KEY", c.Alpaca.SecretKey)
	c.Alpaca.Reanchor = getEnv("ALPACA_REANCHOR", c.Alpaca.Reanchor)

	c.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", c.Telegram.BotToken)
	c.Telegram.ChatID = getEnv("TELEGRAM_CHAT_ID", c.Telegram.ChatID)
}

// Fields returns the effective configuration for logging, secrets masked.
func (c *Config) Fields() logrus.Fields {
	return logrus.Fields{
		"http_addr":          c.HTTPAddr,
		"report_file":        c.ReportFile,
		"intelligence_url":   c.Intelligence.URL,
		"intelligence_key":   mask(c.Intelligence.APIKey),
		"intelligence_to":    c.Intelligence.Timeout,
		"tick_schedule":      c.Market.TickSchedule,
		"max_abs_change":     c.Market.MaxAbsChange,
		"price_band":         c.Market.PriceBand,
		"image_model":        c.Images.Model,
		"image_prefix":       c.Images.Prefix,
		"gemini_model":       c.Gemini.Model,
		"gemini_key":         mask(c.Gemini.APIKey),
		"omni_addr":          c.Omni.HTTPAddr,
		"omni_access_key":    mask(c.Omni.AccessKey),
		"omni_rpm":           c.Omni.RPM,
		"log_level":          c.Log.Level,
		"alpaca_key_id":      mask(c.Alpaca.KeyID),
		"alpaca_reanchor":    c.Alpaca.Reanchor,
		"telegram_bot_token": mask(c.Telegram.BotToken),
		"telegram_chat_id":   c.Telegram.ChatID,
	}
}

// mask shows only the last 4 chars of a secret.
func mask(val string) string {
	if val == "" {
		return ""
	}
	if len(val) > 4 {
		return "***" + val[len(val)-4:]
	}
	return "***"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		logger.Log.Warnf("Invalid int for config %s=%q, using default %d", key, valueStr, fallback)
		return fallback
	}
	return val
}

// Helper to get float64 env with default
func getEnvAsFloat64(key string, fallback float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
	if err != nil {
		logger.Log.Warnf("Invalid float64 for config %s=%q, using default %f", key, valueStr, fallback)
		return fallback
	}
	return val
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback
	}
	val, err := time.ParseDuration(strings.TrimSpace(valueStr))
	if err != nil {
		logger.Log.Warnf("Invalid duration for config %s=%q, using default %s", key, valueStr, fallback)
		return fallback
	}
	return val
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback
	}
	val, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		logger.Log.Warnf("Invalid bool for config %s=%q, using default %t", key, valueStr, fallback)
		return fallback
	}
	return val
}
