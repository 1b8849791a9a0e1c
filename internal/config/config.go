// Package config loads scanlab settings from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file. Unset or unparsable values fall back to defaults.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	// HTTP surface
	Addr          string
	MaxUploadSize int64 // bytes

	// Models
	ModelDir     string
	OnnxLibrary  string
	OnnxThreads  int
	IoUThreshold float64

	// Profiles
	LabelsFile     string
	DefaultProfile string

	// OCR
	OCRLanguage string
	TessdataDir string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Addr:           getEnv("SCANLAB_ADDR", ":8080"),
		MaxUploadSize:  getEnvAsInt64("SCANLAB_MAX_UPLOAD_MB", 10) << 20,
		ModelDir:       getEnv("SCANLAB_MODEL_DIR", "models"),
		OnnxLibrary:    getEnv("SCANLAB_ONNX_LIBRARY", ""),
		OnnxThreads:    getEnvAsInt("SCANLAB_ONNX_THREADS", 0),
		IoUThreshold:   getEnvAsFloat("SCANLAB_IOU_THRESHOLD", 0.7),
		LabelsFile:     getEnv("SCANLAB_LABELS_FILE", ""),
		DefaultProfile: getEnv("SCANLAB_DEFAULT_PROFILE", "fruit"),
		OCRLanguage:    getEnv("SCANLAB_OCR_LANGUAGE", "eng"),
		TessdataDir:    getEnv("SCANLAB_TESSDATA_DIR", ""),
		LogLevel:       getEnv("SCANLAB_LOG_LEVEL", "info"),
		LogFile:        getEnv("SCANLAB_LOG_FILE", ""),
		LogJSON:        getEnvAsBool("SCANLAB_LOG_JSON", false),
	}
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding variables that are already set. A missing file
// is not an error; the returned bool reports whether anything was loaded.
func LoadDotEnv(files ...string) (bool, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	loaded := false
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, err
		}
		loaded = true
	}
	return loaded, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
