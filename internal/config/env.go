package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables consulted after the YAML file is applied.
const (
	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvGitHubAPIURL = "TAILZEN_GITHUB_API_URL"
	EnvS3AccessKey  = "TAILZEN_S3_ACCESS_KEY"
	EnvS3SecretKey  = "TAILZEN_S3_SECRET_KEY"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local when present. godotenv.Load never
// overrides variables already set in the process environment.
func loadEnvFiles() ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return loaded, err
		}
		loaded = append(loaded, name)
	}
	return loaded, nil
}

// applyEnv overlays secrets and endpoints from the environment.
func applyEnv(c *Config) {
	if v := os.Getenv(EnvGitHubToken); v != "" && c.GitHub.Token == "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv(EnvGitHubAPIURL); v != "" {
		c.GitHub.APIURL = v
	}
	if v := os.Getenv(EnvS3AccessKey); v != "" && c.S3.AccessKey == "" {
		c.S3.AccessKey = v
	}
	if v := os.Getenv(EnvS3SecretKey); v != "" && c.S3.SecretKey == "" {
		c.S3.SecretKey = v
	}
}
