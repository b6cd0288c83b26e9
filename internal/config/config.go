package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sketchserver/internal/sketch"
)

type Config struct {
	Port     int
	Password string // empty disables authentication

	CameraDevice       string // index ("0") or device path/URL; empty disables the live feed
	CameraWidth        int
	CameraHeight       int
	ReconnectDelay     int // seconds between attempts to reopen the camera
	ProcessingInterval int // sketch every N-th camera frame (1 = every frame)
	ProcessingWorkers  int // goroutines running the sketch pipeline
	ChangeThreshold    int // changed pixels needed to re-sketch a live frame, 0 = always

	JPEGQuality   int
	MaxUploadSize int64 // bytes

	SaveSketches        bool
	ImageDirectory      string
	DatabasePath        string
	BufferLimit         int // buffered sketches per source before new ones are dropped
	BufferFlushInterval int // seconds

	LogDirectory string
	Debug        bool

	SketchConfigPath string
	Sketch           sketch.Params
}

// fileConfig is the optional YAML document referenced by SKETCH_CONFIG.
type fileConfig struct {
	Sketch sketch.Params `yaml:"sketch"`
}

// Load reads .env (if present), the optional YAML sketch config and the environment.
// Environment variables win over the YAML file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:     getEnvAsInt("PORT", 5000),
		Password: getEnv("PASSWORD", ""),

		CameraDevice:       getEnv("CAMERA_DEVICE", "0"),
		CameraWidth:        getEnvAsInt("CAMERA_WIDTH", 640),
		CameraHeight:       getEnvAsInt("CAMERA_HEIGHT", 480),
		ReconnectDelay:     getEnvAsInt("CAMERA_RECONNECT_DELAY", 5),
		ProcessingInterval: getEnvAsInt("PROCESSING_INTERVAL", 1),
		ProcessingWorkers:  getEnvAsInt("PROCESSING_WORKERS", 3),
		ChangeThreshold:    getEnvAsInt("CHANGE_THRESHOLD", 0),

		JPEGQuality:   getEnvAsInt("JPEG_QUALITY", sketch.DefaultJPEGQuality),
		MaxUploadSize: getEnvAsInt64("MAX_UPLOAD_SIZE", 16<<20),

		SaveSketches:        getEnvAsBool("SAVE_SKETCHES", true),
		ImageDirectory:      getEnv("IMAGE_DIR", filepath.Join(".", "sketches")),
		DatabasePath:        getEnv("DB_PATH", filepath.Join(".", "data", "sketches.db")),
		BufferLimit:         getEnvAsInt("BUFFER_LIMIT", 10),
		BufferFlushInterval: getEnvAsInt("FLUSH_INTERVAL", 30),

		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),
		Debug:        getEnvAsBool("DEBUG", false),

		SketchConfigPath: getEnv("SKETCH_CONFIG", ""),
		Sketch:           sketch.DefaultParams(),
	}

	if cfg.SketchConfigPath != "" {
		if err := cfg.loadSketchFile(cfg.SketchConfigPath); err != nil {
			return nil, err
		}
	}
	cfg.applySketchEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the server cannot start without.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ProcessingWorkers <= 0 {
		return fmt.Errorf("PROCESSING_WORKERS must be positive, got %d", c.ProcessingWorkers)
	}
	if c.ProcessingInterval <= 0 {
		return fmt.Errorf("PROCESSING_INTERVAL must be positive, got %d", c.ProcessingInterval)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.MaxUploadSize)
	}
	return c.Sketch.Validate()
}

func (c *Config) loadSketchFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read sketch config %s: %w", path, err)
	}

	fc := fileConfig{Sketch: c.Sketch}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse sketch config %s: %w", path, err)
	}
	c.Sketch = fc.Sketch
	return nil
}

func (c *Config) applySketchEnv() {
	c.Sketch.KernelSize = getEnvAsInt("SKETCH_KERNEL_SIZE", c.Sketch.KernelSize)
	c.Sketch.Sigma = getEnvAsFloat("SKETCH_SIGMA", c.Sketch.Sigma)
	c.Sketch.LowThreshold = float32(getEnvAsFloat("SKETCH_LOW_THRESHOLD", float64(c.Sketch.LowThreshold)))
	c.Sketch.HighThreshold = float32(getEnvAsFloat("SKETCH_HIGH_THRESHOLD", float64(c.Sketch.HighThreshold)))
	c.Sketch.Scale = getEnvAsFloat("SKETCH_SCALE", c.Sketch.Scale)
	if v := getEnvAsInt("SKETCH_ZERO_DIVISOR", int(c.Sketch.ZeroDivisor)); v >= 0 && v <= 255 {
		c.Sketch.ZeroDivisor = uint8(v)
	}
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
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
