// Package config loads satplot settings from the environment, an optional
// config file and built-in defaults, in that order of precedence.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/star/satplot/internal/basemap"
	"github.com/star/satplot/internal/propagation"
	"github.com/star/satplot/internal/render"
)

// EnvPrefix is prepended to every environment key; dots become
// underscores, so catalog.url is SATPLOT_CATALOG_URL.
const EnvPrefix = "SATPLOT"

// Defaults.
const (
	DefaultSatellite  = "ISS (ZARYA)"
	DefaultResolution = 20000
	DefaultHorizon    = 24 * time.Hour
	DefaultCatalogURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"
	DefaultMaxAge     = 24 * time.Hour
	DefaultMaxFiles   = 5
	DefaultOutput     = "satplot.png"
	DefaultEndpoint   = "localhost:4317"
)

// Config is everything app.Run needs.
type Config struct {
	Satellite  string
	Resolution int
	Horizon    time.Duration
	Start      time.Time // zero means now

	Catalog     CatalogConfig
	Propagation PropagationConfig
	Basemap     BasemapConfig
	Render      RenderConfig
	Metrics     MetricsConfig
	Tracing     TracingConfig
	Log         LogConfig
}

type CatalogConfig struct {
	URL      string
	CacheDir string
	MaxAge   time.Duration
	MaxFiles int
}

type PropagationConfig struct {
	Gravity propagation.Gravity
}

type BasemapConfig struct {
	Enabled bool
	URL     string
}

type RenderConfig struct {
	Mode   render.Mode
	Output string
	Open   bool
}

type MetricsConfig struct {
	Textfile string // empty disables the textfile export
}

type TracingConfig struct {
	Enabled  bool
	Exporter string
	Endpoint string
}

type LogConfig struct {
	Level  slog.Level
	Format string // json | text
}

// DefaultCacheDir is <user cache dir>/satplot, falling back to the temp dir.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "satplot")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("satellite", DefaultSatellite)
	v.SetDefault("resolution", DefaultResolution)
	v.SetDefault("horizon", DefaultHorizon.String())
	v.SetDefault("start", "")
	v.SetDefault("catalog.url", DefaultCatalogURL)
	v.SetDefault("catalog.cache_dir", DefaultCacheDir())
	v.SetDefault("catalog.max_age", DefaultMaxAge.String())
	v.SetDefault("catalog.max_files", DefaultMaxFiles)
	v.SetDefault("propagation.gravity", string(propagation.GravityWGS72))
	v.SetDefault("basemap.enabled", true)
	v.SetDefault("basemap.url", basemap.DefaultURL)
	v.SetDefault("render.mode", string(render.ModeImage))
	v.SetDefault("render.output", DefaultOutput)
	v.SetDefault("render.open", false)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", DefaultEndpoint)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	return v
}

// Load reads the configuration. path names an optional config file
// (TOML, YAML or JSON); a file that cannot be read is an error. Invalid
// individual values are logged and replaced by their defaults.
func Load(path string, logger *slog.Logger) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
		logger.Debug("config file loaded", "path", v.ConfigFileUsed())
	}

	cfg := Config{
		Satellite:  v.GetString("satellite"),
		Resolution: intSetting(v, logger, "resolution", DefaultResolution, 1),
		Horizon:    durationSetting(v, logger, "horizon", DefaultHorizon),
		Catalog: CatalogConfig{
			URL:      v.GetString("catalog.url"),
			CacheDir: v.GetString("catalog.cache_dir"),
			MaxAge:   durationSetting(v, logger, "catalog.max_age", DefaultMaxAge),
			MaxFiles: intSetting(v, logger, "catalog.max_files", DefaultMaxFiles, 1),
		},
		Basemap: BasemapConfig{
			Enabled: boolSetting(v, logger, "basemap.enabled", true),
			URL:     v.GetString("basemap.url"),
		},
		Render: RenderConfig{
			Output: v.GetString("render.output"),
			Open:   boolSetting(v, logger, "render.open", false),
		},
		Metrics: MetricsConfig{
			Textfile: v.GetString("metrics.textfile"),
		},
		Tracing: TracingConfig{
			Enabled:  boolSetting(v, logger, "tracing.enabled", false),
			Exporter: strings.ToLower(v.GetString("tracing.exporter")),
			Endpoint: v.GetString("tracing.endpoint"),
		},
		Log: LogConfig{
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if cfg.Satellite == "" {
		logger.Warn("empty satellite name, using default", "default", DefaultSatellite)
		cfg.Satellite = DefaultSatellite
	}
	if cfg.Catalog.URL == "" {
		logger.Warn("empty catalog.url, using default", "default", DefaultCatalogURL)
		cfg.Catalog.URL = DefaultCatalogURL
	}
	if cfg.Render.Output == "" {
		logger.Warn("empty render.output, using default", "default", DefaultOutput)
		cfg.Render.Output = DefaultOutput
	}

	if s := strings.TrimSpace(v.GetString("start")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			logger.Warn("invalid start value, using current time", "value", s, "error", err)
		} else {
			cfg.Start = t.UTC()
		}
	}

	gravity, err := propagation.ParseGravity(v.GetString("propagation.gravity"))
	if err != nil {
		logger.Warn("invalid propagation.gravity value, using default", "error", err, "default", propagation.GravityWGS72)
		gravity = propagation.GravityWGS72
	}
	cfg.Propagation.Gravity = gravity

	mode, err := render.ParseMode(v.GetString("render.mode"))
	if err != nil {
		logger.Warn("invalid render.mode value, using default", "error", err, "default", render.ModeImage)
		mode = render.ModeImage
	}
	cfg.Render.Mode = mode

	switch cfg.Tracing.Exporter {
	case "stdout", "otlp":
	default:
		logger.Warn("invalid tracing.exporter value, using default", "value", cfg.Tracing.Exporter, "default", "stdout")
		cfg.Tracing.Exporter = "stdout"
	}

	if err := cfg.Log.Level.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		logger.Warn("invalid log.level value, using default", "value", v.GetString("log.level"), "default", "info")
		cfg.Log.Level = slog.LevelInfo
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		logger.Warn("invalid log.format value, using default", "value", cfg.Log.Format, "default", "json")
		cfg.Log.Format = "json"
	}

	return cfg, nil
}

func intSetting(v *viper.Viper, logger *slog.Logger, key string, def, min int) int {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		logger.Warn("invalid "+key+" value, using default", "value", raw, "default", def)
		return def
	}
	return n
}

func durationSetting(v *viper.Viper, logger *slog.Logger, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn("invalid "+key+" value, using default", "value", raw, "default", def.String())
		return def
	}
	return d
}

func boolSetting(v *viper.Viper, logger *slog.Logger, key string, def bool) bool {
	raw := strings.TrimSpace(v.GetString(key))
	b, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn("invalid "+key+" value, using default", "value", raw, "default", def)
		return def
	}
	return b
}

// NewLogger builds the process logger. Logs go to w (stderr in main) so
// stdout stays free for the terminal renderer.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
