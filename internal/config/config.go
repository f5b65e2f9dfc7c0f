package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPPort        string        `yaml:"http_port" validate:"required,numeric"`
	DatabaseURL     string        `yaml:"database_url" validate:"required"`
	UploadDir       string        `yaml:"upload_dir" validate:"required"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" validate:"gt=0"`
	DBMaxOpenConns  int           `yaml:"db_max_open_conns" validate:"gt=0"`
	DBMaxIdleConns  int           `yaml:"db_max_idle_conns" validate:"gte=0"`
	DBConnMaxLife   time.Duration `yaml:"db_conn_max_lifetime"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" validate:"gt=0"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" validate:"gt=0"`
	CORSOrigins     []string      `yaml:"cors_origins" validate:"min=1"`
	LogLevel        string        `yaml:"log_level" validate:"oneof=trace debug info warn warning error"`
	LogJSON         bool          `yaml:"log_json"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

func defaults() *Config {
	return &Config{
		HTTPPort:        "8080",
		UploadDir:       "uploads",
		MaxUploadBytes:  5 << 20,
		DBMaxOpenConns:  25,
		DBMaxIdleConns:  10,
		DBConnMaxLife:   30 * time.Minute,
		RateLimitRPS:    5,
		RateLimitBurst:  20,
		CORSOrigins:     []string{"*"},
		LogLevel:        "info",
		LogJSON:         true,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load builds the config from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables (a .env file is loaded first when
// present). Environment wins over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config file %s not found", path)
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	setString(&cfg.HTTPPort, "HTTP_PORT")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.UploadDir, "UPLOAD_DIR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	errs = append(errs,
		setInt64(&cfg.MaxUploadBytes, "MAX_UPLOAD_BYTES"),
		setInt(&cfg.DBMaxOpenConns, "DB_MAX_OPEN_CONNS"),
		setInt(&cfg.DBMaxIdleConns, "DB_MAX_IDLE_CONNS"),
		setDuration(&cfg.DBConnMaxLife, "DB_CONN_MAX_LIFETIME"),
		setFloat(&cfg.RateLimitRPS, "RATE_LIMIT_RPS"),
		setInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST"),
		setBool(&cfg.LogJSON, "LOG_JSON"),
		setDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT"),
	)
	if value, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		var origins []string
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok {
		*dst = value
	}
}

func setInt(dst *int, key string) error {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setInt64(dst *int64, key string) error {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setFloat(dst *float64, key string) error {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setBool(dst *bool, key string) error {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}
