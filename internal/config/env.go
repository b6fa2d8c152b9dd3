// Package config loads labkit settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings shared by the CLI and the WASM bridge.
type Config struct {
	DBPath           string `env:"LABKIT_DB_PATH" envDefault:"labkit.db"`
	StudentsKey      string `env:"LABKIT_STUDENTS_KEY" envDefault:"students"`
	LogLevel         string `env:"LABKIT_LOG_LEVEL" envDefault:"info"`
	UniqueStudentIDs bool   `env:"LABKIT_UNIQUE_STUDENT_IDS" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses a Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
