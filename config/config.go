package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BinanceConfig   BinanceConfig   `json:"binance"`
	MTFConfig       MTFConfig       `json:"mtf"`
	WatchlistConfig WatchlistConfig `json:"watchlist"`
	LoggingConfig   LoggingConfig   `json:"logging"`
	ServerConfig    ServerConfig    `json:"server"`
	DatabaseConfig  DatabaseConfig  `json:"database"`
	RedisConfig     RedisConfig     `json:"redis"`
}

type BinanceConfig struct {
	BaseURL  string `json:"base_url"`
	MockMode bool   `json:"mock_mode"` // Use simulated data when Binance API is unavailable
}

// MTFConfig holds the confirmation thresholds and timeframes.
type MTFConfig struct {
	PrimaryTimeframe     string  `json:"primary_timeframe"`
	SecondaryTimeframe   string  `json:"secondary_timeframe"`
	MinPrimaryConfidence float64 `json:"min_primary_confidence"`
	MaxHybridBoost       float64 `json:"max_hybrid_boost"`
	CandleLimit          int     `json:"candle_limit"`
}

// WatchlistConfig controls the background sweep loop.
type WatchlistConfig struct {
	Symbols       []string      `json:"symbols"`
	SweepInterval time.Duration `json:"sweep_interval"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // DEBUG, INFO, WARN, ERROR
	Output     string `json:"output"`      // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"` // Output as JSON
}

type ServerConfig struct {
	Enabled        bool   `json:"enabled"`
	Port           int    `json:"port"`
	Host           string `json:"host"`
	ProductionMode bool   `json:"production_mode"`
}

type DatabaseConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

type RedisConfig struct {
	Enabled  bool          `json:"enabled"`
	Address  string        `json:"address"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	PoolSize int           `json:"pool_size"`
	TTL      time.Duration `json:"ttl"`
}

func Load() (*Config, error) {
	// First try to load base config from file
	cfg, err := loadFromFile("config.json")
	if err != nil {
		// If no config file, start with empty config
		cfg = &Config{}
	}

	// Apply environment variable overrides (these take precedence)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	// Binance config
	cfg.BinanceConfig.BaseURL = getEnvOrDefault("BINANCE_BASE_URL", cfg.BinanceConfig.BaseURL)
	if cfg.BinanceConfig.BaseURL == "" {
		cfg.BinanceConfig.BaseURL = "https://api.binance.com"
	}
	if os.Getenv("MOCK_MODE") != "" {
		cfg.BinanceConfig.MockMode = os.Getenv("MOCK_MODE") == "true"
	}

	// MTF config
	cfg.MTFConfig.PrimaryTimeframe = getEnvOrDefault("MTF_PRIMARY_TIMEFRAME", defaultString(cfg.MTFConfig.PrimaryTimeframe, "4h"))
	cfg.MTFConfig.SecondaryTimeframe = getEnvOrDefault("MTF_SECONDARY_TIMEFRAME", defaultString(cfg.MTFConfig.SecondaryTimeframe, "1h"))
	cfg.MTFConfig.MinPrimaryConfidence = getEnvFloatOrDefault("MTF_MIN_PRIMARY_CONFIDENCE", defaultFloat(cfg.MTFConfig.MinPrimaryConfidence, 0.6))
	cfg.MTFConfig.MaxHybridBoost = getEnvFloatOrDefault("MTF_MAX_HYBRID_BOOST", defaultFloat(cfg.MTFConfig.MaxHybridBoost, 0.35))
	cfg.MTFConfig.CandleLimit = getEnvIntOrDefault("MTF_CANDLE_LIMIT", defaultInt(cfg.MTFConfig.CandleLimit, 100))

	// Watchlist config
	if symbols := os.Getenv("WATCHLIST_SYMBOLS"); symbols != "" {
		cfg.WatchlistConfig.Symbols = splitSymbols(symbols)
	}
	cfg.WatchlistConfig.SweepInterval = getEnvDurationOrDefault("WATCHLIST_SWEEP_INTERVAL",
		defaultDuration(cfg.WatchlistConfig.SweepInterval, 5*time.Minute))

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", defaultString(cfg.LoggingConfig.Level, "INFO"))
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", defaultString(cfg.LoggingConfig.Output, "stdout"))
	if os.Getenv("LOG_JSON") != "" {
		cfg.LoggingConfig.JSONFormat = os.Getenv("LOG_JSON") == "true"
	}

	// Server config
	if os.Getenv("SERVER_ENABLED") != "" {
		cfg.ServerConfig.Enabled = os.Getenv("SERVER_ENABLED") == "true"
	}
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", defaultInt(cfg.ServerConfig.Port, 8080))
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", defaultString(cfg.ServerConfig.Host, "0.0.0.0"))
	if os.Getenv("PRODUCTION_MODE") != "" {
		cfg.ServerConfig.ProductionMode = os.Getenv("PRODUCTION_MODE") == "true"
	}

	// Database config
	if os.Getenv("DATABASE_ENABLED") != "" {
		cfg.DatabaseConfig.Enabled = os.Getenv("DATABASE_ENABLED") == "true"
	}
	cfg.DatabaseConfig.Host = getEnvOrDefault("DATABASE_HOST", defaultString(cfg.DatabaseConfig.Host, "localhost"))
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DATABASE_PORT", defaultInt(cfg.DatabaseConfig.Port, 5432))
	cfg.DatabaseConfig.User = getEnvOrDefault("DATABASE_USER", defaultString(cfg.DatabaseConfig.User, "postgres"))
	cfg.DatabaseConfig.Password = getEnvOrDefault("DATABASE_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DATABASE_NAME", defaultString(cfg.DatabaseConfig.Database, "mtf_confirmation"))
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DATABASE_SSL_MODE", defaultString(cfg.DatabaseConfig.SSLMode, "disable"))

	// Redis config
	if os.Getenv("REDIS_ENABLED") != "" {
		cfg.RedisConfig.Enabled = os.Getenv("REDIS_ENABLED") == "true"
	}
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", defaultString(cfg.RedisConfig.Address, "localhost:6379"))
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", defaultInt(cfg.RedisConfig.PoolSize, 10))
	cfg.RedisConfig.TTL = getEnvDurationOrDefault("REDIS_RESULT_TTL", defaultDuration(cfg.RedisConfig.TTL, 2*time.Minute))
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func defaultFloat(value, fallback float64) float64 {
	if value == 0 {
		return fallback
	}
	return value
}

func defaultDuration(value, fallback time.Duration) time.Duration {
	if value == 0 {
		return fallback
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GenerateSampleConfig writes a starter config.json.
func GenerateSampleConfig(filename string) error {
	sample := Config{
		BinanceConfig: BinanceConfig{
			BaseURL: "https://api.binance.com",
		},
		MTFConfig: MTFConfig{
			PrimaryTimeframe:     "4h",
			SecondaryTimeframe:   "1h",
			MinPrimaryConfidence: 0.6,
			MaxHybridBoost:       0.35,
			CandleLimit:          100,
		},
		WatchlistConfig: WatchlistConfig{
			Symbols:       []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"},
			SweepInterval: 5 * time.Minute,
		},
		LoggingConfig: LoggingConfig{
			Level:      "INFO",
			Output:     "stdout",
			JSONFormat: true,
		},
		ServerConfig: ServerConfig{
			Enabled: true,
			Port:    8080,
			Host:    "0.0.0.0",
		},
		DatabaseConfig: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "mtf_confirmation",
			SSLMode:  "disable",
		},
		RedisConfig: RedisConfig{
			Address:  "localhost:6379",
			PoolSize: 10,
			TTL:      2 * time.Minute,
		},
	}

	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
