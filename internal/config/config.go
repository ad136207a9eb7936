package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		Env            string `yaml:"env"`
		RequestTimeout int    `yaml:"request_timeout"` // секунды
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret       string `yaml:"secret"`
		TTL          int    `yaml:"ttl"` // минуты
		CookieName   string `yaml:"cookie_name"`
		CookieSecure bool   `yaml:"cookie_secure"`
	} `yaml:"jwt"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	Storage struct {
		Type      string `yaml:"type"`       // local, s3
		BasePath  string `yaml:"base_path"`  // For local storage
		BaseURL   string `yaml:"base_url"`   // Public URL base
		Bucket    string `yaml:"bucket"`     // For S3/R2
		Region    string `yaml:"region"`     // For S3
		AccessKey string `yaml:"access_key"` // For S3/R2
		SecretKey string `yaml:"secret_key"` // For S3/R2
		Endpoint  string `yaml:"endpoint"`   // For R2, MinIO
	} `yaml:"storage"`

	Upload struct {
		DeliverableMaxSize int64 `yaml:"deliverable_max_size"`
		AttachmentMaxSize  int64 `yaml:"attachment_max_size"`
		ImageQuality       int   `yaml:"image_quality"` // JPEG quality (1-100)
	} `yaml:"upload"`

	Payment struct {
		AccessToken string `yaml:"access_token"`
		PublicKey   string `yaml:"public_key"`
		Currency    string `yaml:"currency"`
		Mock        bool   `yaml:"mock"`
	} `yaml:"payment"`

	Tracking struct {
		Backend  string `yaml:"backend"` // database, dynamodb
		Table    string `yaml:"table"`
		Region   string `yaml:"region"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"tracking"`

	Workers struct {
		PortfolioInterval int `yaml:"portfolio_interval"` // минуты, 0 - выключен
	} `yaml:"workers"`

	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

var AppConfig *Config

// Default - полная конфигурация для локального запуска и тестов
func Default() *Config {
	var cfg Config

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 4000
	cfg.Server.Env = "development"
	cfg.Server.RequestTimeout = 30

	cfg.JWT.TTL = 24 * 60
	cfg.JWT.CookieName = "session"

	cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = "/api/v1/files"

	cfg.Upload.DeliverableMaxSize = 10 * 1024 * 1024 // 10MB
	cfg.Upload.AttachmentMaxSize = 5 * 1024 * 1024   // 5MB
	cfg.Upload.ImageQuality = 85

	cfg.Payment.Currency = "BRL"

	cfg.Tracking.Backend = "database"
	cfg.Tracking.Table = "deliverable_downloads"

	cfg.Workers.PortfolioInterval = 10

	return &cfg
}

// LoadConfig читает .env, затем config.yaml (если есть), затем переменные окружения
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	f, err := os.Open(configPath)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		log.Printf("Config file %s not found, using defaults and environment", configPath)
	default:
		return nil, fmt.Errorf("failed to open config file at %s: %w", configPath, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Server.Env, "SERVER_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setBool(&cfg.JWT.CookieSecure, "JWT_COOKIE_SECURE")
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = strings.Split(origins, ",")
	}

	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")

	setString(&cfg.Payment.AccessToken, "MERCADOPAGO_ACCESS_TOKEN")
	setString(&cfg.Payment.PublicKey, "MERCADOPAGO_PUBLIC_KEY")
	setBool(&cfg.Payment.Mock, "PAYMENT_GATEWAY_MOCK")

	setString(&cfg.Tracking.Backend, "TRACKING_BACKEND")
	setString(&cfg.Tracking.Endpoint, "DYNAMODB_ENDPOINT")

	setString(&cfg.Admin.Email, "FIRST_ADMIN_EMAIL")
	setString(&cfg.Admin.Password, "FIRST_ADMIN_PASSWORD")
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database url is required (database.url or DATABASE_URL)")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required (jwt.secret or JWT_SECRET)")
	}
	if c.Storage.Type == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required for s3 storage")
	}
	if !c.Payment.Mock && c.Payment.AccessToken == "" {
		return fmt.Errorf("payment access token is required unless payment.mock is enabled")
	}
	return nil
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWT.TTL) * time.Minute
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

func (c *Config) PortfolioInterval() time.Duration {
	return time.Duration(c.Workers.PortfolioInterval) * time.Minute
}

func GetConfig() *Config {
	if AppConfig == nil {
		cfg, err := LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		AppConfig = cfg
	}
	return AppConfig
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
