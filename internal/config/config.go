package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	Database   DatabaseConfig
	ImageStore ImageStoreConfig
	Extractor  ExtractorConfig
	Web        WebConfig
	Thresholds ThresholdsConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type ImageStoreConfig struct {
	Dir string // Root directory for per-identity reference images (default ./reference-images)
}

type ExtractorConfig struct {
	Mode        string // "vector" (color histogram) or "classifier" (trained centroid model), default "vector"
	CascadeFile string // Path to the pigo facefinder cascade (default ./cascade/facefinder)
}

type WebConfig struct {
	AdminToken string // Bearer token for administrative endpoints; empty disables auth (dev only)
}

// ThresholdsConfig holds the acceptance thresholds per extractor mode.
// Vector-mode thresholds are minimum similarity; classifier-mode thresholds
// are maximum distance.
type ThresholdsConfig struct {
	Modes map[string]ModeThresholds `yaml:"modes"`
}

type ModeThresholds struct {
	Recognize float64 `yaml:"recognize"`
	Enroll    float64 `yaml:"enroll"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var thresholds ThresholdsConfig
	if err := yaml.Unmarshal(thresholdsYAML, &thresholds); err != nil {
		// Embedded file, so this can only be a build-time mistake.
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	// Env vars override the embedded defaults per mode.
	for mode, t := range thresholds.Modes {
		switch mode {
		case "vector":
			t.Recognize = envFloat("VECTOR_RECOGNIZE_THRESHOLD", t.Recognize)
			t.Enroll = envFloat("VECTOR_ENROLL_THRESHOLD", t.Enroll)
		case "classifier":
			t.Recognize = envFloat("CLASSIFIER_RECOGNIZE_THRESHOLD", t.Recognize)
			t.Enroll = envFloat("CLASSIFIER_ENROLL_THRESHOLD", t.Enroll)
		}
		thresholds.Modes[mode] = t
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		ImageStore: ImageStoreConfig{
			Dir: envString("REFERENCE_IMAGES_DIR", "./reference-images"),
		},
		Extractor: ExtractorConfig{
			Mode:        envString("EXTRACTOR_MODE", "vector"),
			CascadeFile: envString("FACE_CASCADE_FILE", "./cascade/facefinder"),
		},
		Web: WebConfig{
			AdminToken: os.Getenv("ADMIN_TOKEN"),
		},
		Thresholds: thresholds,
	}
}

// ModeThresholds returns the thresholds for an extractor mode, falling back
// to vector-mode defaults for unknown modes.
func (c *Config) ModeThresholds(mode string) ModeThresholds {
	if t, ok := c.Thresholds.Modes[mode]; ok {
		return t
	}
	return c.Thresholds.Modes["vector"]
}
