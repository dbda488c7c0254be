package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for the pipeline bounds. Each can be overridden through the
// environment variable of the same name.
const (
	DefaultMaxFileSize      = 10 * 1024 * 1024 // 10MB
	DefaultMinFileSize      = 1024             // 1KB
	DefaultMaxPDFPages      = 10
	DefaultMinOCRConfidence = 60.0
	DefaultMaxLineItems     = 100
	DefaultOCRTimeout       = 30 * time.Second
	DefaultOCRParallelism   = 4
	DefaultRasterDPI        = 200.0
	DefaultJPEGQuality      = 100
)

// OCR engine selectors accepted by OCR_ENGINE.
const (
	EngineTesseract = "tesseract"
	EngineVertex    = "vertex"
)

// Config holds every externally tunable knob of the scan pipeline.
type Config struct {
	MaxFileSize      int64
	MinFileSize      int64
	MaxPDFPages      int
	MinOCRConfidence float64
	MaxLineItems     int

	OCRTimeout     time.Duration
	OCRParallelism int
	OCREngine      string

	RasterDPI   float64
	JPEGQuality int

	// Tesseract tuning. The whitelist restricts recognition to characters
	// that can appear in order lines; PSM 1 is automatic segmentation
	// with orientation detection.
	TesseractWhitelist string
	TesseractPSM       int

	// GCP settings, used by the vertex OCR engine, the Firestore mapping
	// store, and the scan-worker entrypoint.
	ProjectID         string
	VertexAIRegion    string
	VertexModel       string
	MappingCollection string
	ScanCollection    string
	ResultsBucket     string
}

// Load reads the pipeline configuration from the environment, applying
// defaults for anything unset. It only fails on values that cannot be parsed;
// required-but-empty GCP settings are validated by the components that need
// them.
func Load() (*Config, error) {
	cfg := &Config{
		OCREngine:          GetEnv("OCR_ENGINE", EngineTesseract),
		TesseractWhitelist: GetEnv("TESSERACT_WHITELIST", "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 "),
		ProjectID:          GetEnv("PROJECT_ID", ""),
		VertexAIRegion:     GetEnv("VERTEX_AI_REGION", "us-central1"),
		VertexModel:        GetEnv("VERTEX_OCR_MODEL", "gemini-1.5-pro"),
		MappingCollection:  GetEnv("MAPPING_COLLECTION", "inventory_mappings"),
		ScanCollection:     GetEnv("SCAN_COLLECTION", "scans"),
		ResultsBucket:      GetEnv("RESULTS_BUCKET", ""),
	}

	var err error
	if cfg.MaxFileSize, err = getEnvInt64("MAX_FILE_SIZE", DefaultMaxFileSize); err != nil {
		return nil, err
	}
	if cfg.MinFileSize, err = getEnvInt64("MIN_FILE_SIZE", DefaultMinFileSize); err != nil {
		return nil, err
	}
	if cfg.MaxPDFPages, err = getEnvInt("MAX_PDF_PAGES", DefaultMaxPDFPages); err != nil {
		return nil, err
	}
	if cfg.MinOCRConfidence, err = getEnvFloat("MIN_OCR_CONFIDENCE", DefaultMinOCRConfidence); err != nil {
		return nil, err
	}
	if cfg.MaxLineItems, err = getEnvInt("MAX_LINE_ITEMS", DefaultMaxLineItems); err != nil {
		return nil, err
	}
	if cfg.OCRTimeout, err = getEnvDuration("OCR_TIMEOUT", DefaultOCRTimeout); err != nil {
		return nil, err
	}
	if cfg.OCRParallelism, err = getEnvInt("OCR_PARALLELISM", DefaultOCRParallelism); err != nil {
		return nil, err
	}
	if cfg.RasterDPI, err = getEnvFloat("RASTER_DPI", DefaultRasterDPI); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality, err = getEnvInt("JPEG_QUALITY", DefaultJPEGQuality); err != nil {
		return nil, err
	}
	if cfg.TesseractPSM, err = getEnvInt("TESSERACT_PSM", 1); err != nil {
		return nil, err
	}

	if cfg.MinFileSize > cfg.MaxFileSize {
		return nil, fmt.Errorf("MIN_FILE_SIZE (%d) exceeds MAX_FILE_SIZE (%d)", cfg.MinFileSize, cfg.MaxFileSize)
	}
	if cfg.OCRParallelism < 1 {
		cfg.OCRParallelism = 1
	}
	return cfg, nil
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
