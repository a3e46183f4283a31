package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"binsorter/internal/waste"

	"github.com/joho/godotenv"
)

const (
	BackendOpenCV = "opencv"
	BackendRemote = "remote"
)

type Config struct {
	Port                     int
	DetectorBackend          string // opencv or remote
	ModelPath                string // ONNX export of the YOLOv5 trash model
	ClassesPath              string // Optional file with one class label per line, in model output order
	InferenceURL             string // Remote inference endpoint (DetectorBackend=remote)
	InferenceTimeout         time.Duration
	ConfidenceThreshold      float64
	IoUThreshold             float64
	InputSize                int
	MaxUploadSize            int64 // bytes
	ImageDirectory           string
	DatabasePath             string
	ImageBufferLimit         int
	ImageBufferFlushInterval int // seconds
	LogDirectory             string
	AdminPassword            string // Empty password locks the admin endpoints
	ClassifyRateLimit        int    // Requests per minute per IP on /api/classify
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                     getEnvAsInt("PORT", 8080),
		DetectorBackend:          getEnv("DETECTOR_BACKEND", BackendOpenCV),
		ModelPath:                getEnv("MODEL_PATH", filepath.Join(".", "models", "best.onnx")),
		ClassesPath:              getEnv("CLASSES_PATH", ""),
		InferenceURL:             getEnv("INFERENCE_URL", "http://localhost:5000/predict"),
		InferenceTimeout:         getEnvAsDuration("INFERENCE_TIMEOUT", 30*time.Second),
		ConfidenceThreshold:      getEnvAsFloat("CONFIDENCE_THRESHOLD", waste.ConfidenceThreshold),
		IoUThreshold:             getEnvAsFloat("IOU_THRESHOLD", waste.IoUThreshold),
		InputSize:                getEnvAsInt("INPUT_SIZE", 640),
		MaxUploadSize:            getEnvAsInt64("MAX_UPLOAD_MB", 10) << 20,
		ImageDirectory:           getEnv("IMAGE_DIR", filepath.Join(".", "images")),
		DatabasePath:             getEnv("DB_PATH", filepath.Join(".", "data", "history.db")),
		ImageBufferLimit:         getEnvAsInt("BUFFER_LIMIT", 20),
		ImageBufferFlushInterval: getEnvAsInt("FLUSH_INTERVAL", 30),
		LogDirectory:             getEnv("LOG_DIR", filepath.Join(".", "logs")),
		AdminPassword:            getEnv("ADMIN_PASSWORD", ""),
		ClassifyRateLimit:        getEnvAsInt("CLASSIFY_RATE_LIMIT", 30),
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

// getEnvAsFloat accepts only values in [0,1]; anything else falls back to the default.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
