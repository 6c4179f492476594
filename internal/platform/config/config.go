package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration of the clip storage server.
type Config struct {
	Port         string
	SaveDir      string
	MaxSize      int64
	Secret       string
	LogLevel     string
	LogFormat    string
	FFprobePath  string
	ProbeTimeout time.Duration

	// DurationMin and DurationMax pre-configure the duration gate when both
	// are set. HasDurationBounds reports whether they were.
	DurationMin       float64
	DurationMax       float64
	HasDurationBounds bool
}

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// FromEnv builds a Config from the environment. SAVE_DIR and MAX_SIZE are
// required; everything else has a default.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:         GetEnv("PORT", "5400"),
		SaveDir:      GetEnv("SAVE_DIR", ""),
		Secret:       GetEnv("SECRET", ""),
		LogLevel:     GetEnv("LOG_LEVEL", "info"),
		LogFormat:    GetEnv("LOG_FORMAT", "json"),
		FFprobePath:  GetEnv("FFPROBE_PATH", "ffprobe"),
		ProbeTimeout: time.Duration(GetEnvInt("PROBE_TIMEOUT_SECONDS", 15)) * time.Second,
	}

	if cfg.SaveDir == "" {
		return nil, errors.New("SAVE_DIR has to be set. This is where files are stored")
	}

	raw := GetEnv("MAX_SIZE", "")
	if raw == "" {
		return nil, errors.New("MAX_SIZE has to be set in bytes. Max size clips can take on disk")
	}
	n, err := ParseByteSize(raw)
	if err != nil {
		return nil, fmt.Errorf("MAX_SIZE: %w", err)
	}
	cfg.MaxSize = n

	minRaw, maxRaw := GetEnv("DURATION_MIN", ""), GetEnv("DURATION_MAX", "")
	switch {
	case minRaw == "" && maxRaw == "":
	case minRaw == "" || maxRaw == "":
		return nil, errors.New("DURATION_MIN and DURATION_MAX have to be set together")
	default:
		if cfg.DurationMin, err = parseFinite(minRaw); err != nil {
			return nil, fmt.Errorf("DURATION_MIN: %w", err)
		}
		if cfg.DurationMax, err = parseFinite(maxRaw); err != nil {
			return nil, fmt.Errorf("DURATION_MAX: %w", err)
		}
		cfg.HasDurationBounds = true
	}

	return cfg, nil
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// ParseByteSize parses a byte count written either as a plain integer or as a
// product of integers, e.g. "50*1024*1024*1024".
func ParseByteSize(s string) (int64, error) {
	factors := strings.Split(s, "*")
	total := int64(1)
	for _, f := range factors {
		n, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid byte size expression %q", s)
		}
		if n != 0 && total > math.MaxInt64/n {
			return 0, fmt.Errorf("byte size expression %q overflows", s)
		}
		total *= n
	}
	return total, nil
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}
