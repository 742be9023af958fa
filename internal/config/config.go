// Package config loads application settings from environment variables
// (populated by the .env file in main) and job specs from YAML files.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"go-datalake-etl/internal/model"
)

// Config holds all settings the ETL core consumes. Everything is
// explicit; components never read the environment themselves.
type Config struct {
	StorageRoot  string
	OutputFormat string
	Workers      int
	ChunkSize    int
	RegistryPath string

	// optional sources
	DatabaseDSN string
	ESAddresses []string
	ESUsername  string
	ESPassword  string
	APIToken    string

	// records API for the normalize command
	RecordsAPIURL    string
	RecordsAPISecret string
}

// Load reads settings from the environment
func Load() (*Config, error) {
	root := os.Getenv("ETL_STORAGE_ROOT")
	if root == "" {
		return nil, errors.New("ETL_STORAGE_ROOT environment variable not set")
	}

	cfg := &Config{
		StorageRoot:      root,
		OutputFormat:     envOr("ETL_OUTPUT_FORMAT", "jsonl"),
		Workers:          envInt("ETL_WORKERS", 0),
		ChunkSize:        envInt("ETL_CHUNK_SIZE", 100),
		RegistryPath:     envOr("ETL_REGISTRY_PATH", "registry.db"),
		DatabaseDSN:      os.Getenv("ETL_DB_DSN"),
		ESUsername:       os.Getenv("ETL_ES_USERNAME"),
		ESPassword:       os.Getenv("ETL_ES_PASSWORD"),
		APIToken:         os.Getenv("ETL_API_TOKEN"),
		RecordsAPIURL:    os.Getenv("ETL_RECORDS_API_URL"),
		RecordsAPISecret: os.Getenv("ETL_RECORDS_API_SECRET"),
	}

	if addresses := os.Getenv("ETL_ES_ADDRESSES"); addresses != "" {
		cfg.ESAddresses = strings.Split(addresses, ",")
	}

	return cfg, nil
}

// LoadJob parses a YAML job file
func LoadJob(path string) (*model.JobSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var job model.JobSpec
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
