package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"

	"github.com/sushihentaime/inkpost/internal/userservice"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`
	DBDriver       string   `mapstructure:"DB_DRIVER"`
	TLSCertFile    string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string   `mapstructure:"TLS_KEY_FILE"`

	Mongo     mongoConfig     `mapstructure:",squash"`
	DB        dbConfig        `mapstructure:",squash"`
	JWT       jwtConfig       `mapstructure:",squash"`
	Redis     redisConfig     `mapstructure:",squash"`
	RabbitMQ  rabbitMQConfig  `mapstructure:",squash"`
	Mail      mailConfig      `mapstructure:",squash"`
	RateLimit rateLimitConfig `mapstructure:",squash"`
}

type mongoConfig struct {
	URI  string `mapstructure:"MONGO_URI"`
	Name string `mapstructure:"MONGO_DB"`
}

type dbConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     string `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	Name     string `mapstructure:"POSTGRES_DB"`
}

type jwtConfig struct {
	Secret string        `mapstructure:"JWT_SECRET"`
	Issuer string        `mapstructure:"JWT_ISSUER"`
	TTL    time.Duration `mapstructure:"JWT_TTL"`
}

type redisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
}

type rabbitMQConfig struct {
	Host     string `mapstructure:"RABBITMQ_HOST"`
	Port     string `mapstructure:"RABBITMQ_PORT"`
	User     string `mapstructure:"RABBITMQ_USER"`
	Password string `mapstructure:"RABBITMQ_PASSWORD"`
}

type mailConfig struct {
	Host     string `mapstructure:"MAIL_HOST"`
	Port     int    `mapstructure:"MAIL_PORT"`
	User     string `mapstructure:"MAIL_USER"`
	Password string `mapstructure:"MAIL_PASSWORD"`
	Sender   string `mapstructure:"MAIL_SENDER"`
}

type rateLimitConfig struct {
	Enabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	Burst   int     `mapstructure:"RATE_LIMIT_BURST"`
}

const (
	driverMongo    = "mongo"
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

var configDefaults = map[string]any{
	"PORT":               "4000",
	"ENVIRONMENT":        "development",
	"VERSION":            "1.0.0",
	"TRUSTED_ORIGINS":    "",
	"DB_DRIVER":          driverMongo,
	"TLS_CERT_FILE":      "",
	"TLS_KEY_FILE":       "",
	"MONGO_URI":          "mongodb://localhost:27017",
	"MONGO_DB":           "inkpost",
	"POSTGRES_HOST":      "localhost",
	"POSTGRES_PORT":      "5432",
	"POSTGRES_USER":      "",
	"POSTGRES_PASSWORD":  "",
	"POSTGRES_DB":        "inkpost",
	"JWT_SECRET":         "",
	"JWT_ISSUER":         "inkpost",
	"JWT_TTL":            userservice.DefaultTokenTTL.String(),
	"REDIS_ADDR":         "",
	"REDIS_PASSWORD":     "",
	"RABBITMQ_HOST":      "",
	"RABBITMQ_PORT":      "5672",
	"RABBITMQ_USER":      "guest",
	"RABBITMQ_PASSWORD":  "guest",
	"MAIL_HOST":          "",
	"MAIL_PORT":          587,
	"MAIL_USER":          "",
	"MAIL_PASSWORD":      "",
	"MAIL_SENDER":        "Inkpost <no-reply@inkpost.dev>",
	"RATE_LIMIT_ENABLED": false,
	"RATE_LIMIT_RPS":     2.0,
	"RATE_LIMIT_BURST":   4,
}

// loadConfig reads the dotenv file at path, if it exists, and lets environment variables override it.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	switch c.DBDriver {
	case driverMongo, driverPostgres, driverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}
