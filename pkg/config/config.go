package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds settings read from the environment. Zero values mean "not set".
type Config struct {
	Width     int
	Height    int
	Samples   int
	MaxDepth  int
	Workers   int
	Seed      int64
	SeedSet   bool
	OutputDir string
	Port      string

	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	CDNURL      string
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		OutputDir: "output",
		Port:      "8080",
		S3Region:  "us-east-1",
	}
}

// S3Enabled reports whether enough S3 settings are present to upload renders
func (c Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// Load reads envFile (if it exists) into the environment without overriding variables that
// are already set, then builds the configuration from the environment.
// An empty envFile skips the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables
func FromEnv() (Config, error) {
	cfg := Default()
	var err error

	ints := []struct {
		key string
		dst *int
	}{
		{"RAYTRACER_WIDTH", &cfg.Width},
		{"RAYTRACER_HEIGHT", &cfg.Height},
		{"RAYTRACER_SAMPLES", &cfg.Samples},
		{"RAYTRACER_MAX_DEPTH", &cfg.MaxDepth},
		{"RAYTRACER_WORKERS", &cfg.Workers},
	}
	for _, v := range ints {
		if *v.dst, err = getInt(v.key); err != nil {
			return Config{}, err
		}
	}

	if value, ok := os.LookupEnv("RAYTRACER_SEED"); ok && value != "" {
		cfg.Seed, err = strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RAYTRACER_SEED %q: %w", value, err)
		}
		cfg.SeedSet = true
	}

	cfg.OutputDir = getEnv("RAYTRACER_OUTPUT_DIR", cfg.OutputDir)
	cfg.Port = getEnv("RAYTRACER_PORT", cfg.Port)
	cfg.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.S3SecretKey = os.Getenv("S3_SECRET_KEY")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3Region = getEnv("S3_REGION", cfg.S3Region)
	cfg.S3Bucket = os.Getenv("S3_BUCKET")
	cfg.CDNURL = os.Getenv("CDN_URL")

	return cfg, nil
}

// getEnv returns the variable's value, or fallback when it is unset or empty
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// getInt parses a non-negative integer variable; unset means 0
func getInt(key string) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, value)
	}
	return n, nil
}
