package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// LoadEnv loads the optional env file, then reads process configuration
// from environment variables. A missing env file is not an error; real
// environments set variables directly.
func LoadEnv(envFile string) (Env, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Env{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("process environment: %w", err)
	}
	if err := env.Validate(); err != nil {
		return Env{}, fmt.Errorf("validate environment: %w", err)
	}
	return env, nil
}
