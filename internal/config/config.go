package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	DatabaseURL    string `envconfig:"DATABASE_URL" default:""`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AuthDisabled   bool   `envconfig:"AUTH_DISABLED" default:"false"`
	ArtifactDir    string `envconfig:"ARTIFACT_DIR" default:"./data/artifacts"`
	FfmpegPath     string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	PreviewHz      int    `envconfig:"PREVIEW_HZ" default:"60"`
	PreviewWidth   int    `envconfig:"PREVIEW_WIDTH" default:"320"`
	PreviewHeight  int    `envconfig:"PREVIEW_HEIGHT" default:"240"`
	SceneSeed      int64  `envconfig:"SCENE_SEED" default:"1"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.PreviewHz <= 0 {
		return nil, fmt.Errorf("PREVIEW_HZ must be positive, got %d", cfg.PreviewHz)
	}
	return &cfg, nil
}

// PreviewInterval is the delay between preview frames.
func (c *Config) PreviewInterval() time.Duration {
	return time.Second / time.Duration(c.PreviewHz)
}

// Origins splits AllowedOrigins.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginHosts returns Origins without their scheme, the form websocket
// origin patterns expect.
func (c *Config) OriginHosts() []string {
	origins := c.Origins()
	for i, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			origins[i] = host
		}
	}
	return origins
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
