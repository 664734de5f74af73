// Package config содержит логику чтения конфигурации сервиса книжного магазина.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса книжного магазина.
type Config struct {
	RunAddress        string `env:"RUN_ADDRESS"`
	DatabaseURI       string `env:"DATABASE_URI"`
	JWTSecret         string `env:"JWT_SECRET"`
	SMTPHost          string `env:"SMTP_HOST"`
	SMTPPort          int    `env:"SMTP_PORT"`
	SMTPUsername      string `env:"SMTP_USERNAME"`
	SMTPPassword      string `env:"SMTP_PASSWORD"`
	SMTPFrom          string `env:"SMTP_FROM"`
	ImageStoreAddress string `env:"IMAGE_STORE_ADDRESS"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значение из окружения имеет приоритет над значением флага.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envJWTSecret := cfg.JWTSecret
	envImageStoreAddress := cfg.ImageStoreAddress

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.JWTSecret, "s", "", "JWT signing secret")
	flag.StringVar(&cfg.ImageStoreAddress, "i", "", "image store address")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envJWTSecret != "" {
		cfg.JWTSecret = envJWTSecret
	}
	if envImageStoreAddress != "" {
		cfg.ImageStoreAddress = envImageStoreAddress
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}

	return cfg, nil
}
