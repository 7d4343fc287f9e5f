// Package config holds the explicit runtime configuration for the Cosmos
// platform. Everything is loaded once at startup and handed to components
// at construction time; there is no package-level mutable state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RenderMode selects how render jobs produce their artifact.
type RenderMode string

const (
	// ModeRaster synthesizes a deterministic placeholder image without
	// invoking any external tool.
	ModeRaster RenderMode = "raster"
	// ModeExport drives the Blender binary to export a glTF binary.
	ModeExport RenderMode = "export"
)

// Config is the top-level configuration for both the API and the worker.
type Config struct {
	// HTTPPort is the API listen port.
	HTTPPort string
	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string
	// RedisAddr is the Redis host:port for the job queue.
	RedisAddr string
	// QueueName is the Redis list the worker consumes.
	QueueName string
	// DataDir is the local working directory for scene files and render
	// outputs before they are pushed to the storage provider.
	DataDir string
	// DispatchMode selects where Drive runs: "redis" hands the job to the
	// worker binary, "local" runs it on an in-process bounded pool.
	DispatchMode string

	Render   RenderConfig
	Resolver ResolverConfig
}

// RenderConfig configures the render backend and job execution limits.
type RenderConfig struct {
	Mode RenderMode
	// BlenderBin is the Blender executable (export mode).
	BlenderBin string
	// ExportScript is the Python driver passed to Blender (export mode).
	ExportScript string
	// JobTimeout bounds a single Drive, including the external process.
	JobTimeout time.Duration
	// Concurrency bounds how many jobs drive at once.
	Concurrency int
}

// Load reads configuration from the environment with defaults suitable for
// local development.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		QueueName:    getEnv("JOB_QUEUE_NAME", "cosmos:renders"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		DispatchMode: getEnv("DISPATCH_MODE", "redis"),
		Render: RenderConfig{
			Mode:         RenderMode(getEnv("RENDER_MODE", string(ModeRaster))),
			BlenderBin:   getEnv("BLENDER_BIN", "blender"),
			ExportScript: getEnv("EXPORT_SCRIPT", "scripts/export_gltf.py"),
			JobTimeout:   getDuration("RENDER_JOB_TIMEOUT", 10*time.Minute),
			Concurrency:  getInt("RENDER_CONCURRENCY", 4),
		},
		Resolver: DefaultResolverConfig(),
	}

	switch cfg.Render.Mode {
	case ModeRaster, ModeExport:
	default:
		return nil, fmt.Errorf("unknown RENDER_MODE: %s", cfg.Render.Mode)
	}
	switch cfg.DispatchMode {
	case "redis", "local":
	default:
		return nil, fmt.Errorf("unknown DISPATCH_MODE: %s", cfg.DispatchMode)
	}
	if cfg.Render.Concurrency < 1 {
		return nil, fmt.Errorf("RENDER_CONCURRENCY must be >= 1")
	}

	if path := strings.TrimSpace(os.Getenv("SCENE_KEYWORDS_FILE")); path != "" {
		rc, err := LoadResolverFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading SCENE_KEYWORDS_FILE: %w", err)
		}
		cfg.Resolver = rc
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
