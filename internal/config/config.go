package config

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Doctext   DoctextConfig   `yaml:"doctext" mapstructure:"doctext"`
	BOM       BOMConfig       `yaml:"bom" mapstructure:"bom"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend. MaxConns and MinConns only
// apply to the postgres driver; zero means the pool defaults.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SearchConfig holds the datasheet search backend settings.
type SearchConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	MaxResults  int    `yaml:"max_results" mapstructure:"max_results"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries     int    `yaml:"retries" mapstructure:"retries"`
}

// FetchConfig configures document retrieval.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBytes    int64   `yaml:"max_bytes" mapstructure:"max_bytes"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
	Retries     int     `yaml:"retries" mapstructure:"retries"`
}

// DoctextConfig configures PDF and HTML to text conversion.
type DoctextConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MaxPages      int    `yaml:"max_pages" mapstructure:"max_pages"`
}

// BOMConfig configures bill-of-materials ingestion.
type BOMConfig struct {
	PreviewRows int    `yaml:"preview_rows" mapstructure:"preview_rows"`
	MPNColumn   string `yaml:"mpn_column" mapstructure:"mpn_column"`
}

// ExtractConfig configures the extraction engine.
type ExtractConfig struct {
	WindowBefore int    `yaml:"window_before" mapstructure:"window_before"`
	WindowAfter  int    `yaml:"window_after" mapstructure:"window_after"`
	PatternFile  string `yaml:"pattern_file" mapstructure:"pattern_file"`
}

// ReconcileConfig holds the reconciliation thresholds.
type ReconcileConfig struct {
	Tolerance      float64 `yaml:"tolerance" mapstructure:"tolerance"`
	ConflictMargin float64 `yaml:"conflict_margin" mapstructure:"conflict_margin"`
}

// PipelineConfig configures per-part lookup orchestration.
type PipelineConfig struct {
	MaxConcurrentParts int `yaml:"max_concurrent_parts" mapstructure:"max_concurrent_parts"`
	MaxConcurrentDocs  int `yaml:"max_concurrent_docs" mapstructure:"max_concurrent_docs"`
	// MaxDocsPerPart caps how many search hits are fetched for one part.
	MaxDocsPerPart int    `yaml:"max_docs_per_part" mapstructure:"max_docs_per_part"`
	CacheTTLHours  int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	QueryTemplate  string `yaml:"query_template" mapstructure:"query_template"`
}

// ExportConfig configures spreadsheet output.
type ExportConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "reflow.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("search.base_url", "https://s.jina.ai")
	v.SetDefault("search.max_results", 6)
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.retries", 1)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_bytes", 20<<20)
	v.SetDefault("fetch.user_agent", "ReflowProfiler/1.0")
	v.SetDefault("fetch.rate_per_sec", 2.0)
	v.SetDefault("fetch.burst", 4)
	v.SetDefault("fetch.retries", 2)
	v.SetDefault("doctext.pdftotext_path", "pdftotext")
	v.SetDefault("doctext.max_pages", 25)
	v.SetDefault("bom.preview_rows", 80)
	v.SetDefault("bom.mpn_column", "mpn")
	v.SetDefault("extract.window_before", 16)
	v.SetDefault("extract.window_after", 160)
	v.SetDefault("reconcile.tolerance", 0.05)
	v.SetDefault("reconcile.conflict_margin", 0.15)
	v.SetDefault("pipeline.max_concurrent_parts", 4)
	v.SetDefault("pipeline.max_concurrent_docs", 3)
	v.SetDefault("pipeline.max_docs_per_part", 3)
	v.SetDefault("pipeline.cache_ttl_hours", 720)
	v.SetDefault("pipeline.query_template", "%s datasheet pdf reflow Tp TAL")
	v.SetDefault("export.path", "reflow_profiles.xlsx")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on and reports every
// violation at once.
func (c *Config) Validate(mode string) error {
	var errs *multierror.Error

	switch mode {
	case "run", "bomrun":
	case "serve":
		if c.Server.Port <= 0 {
			errs = multierror.Append(errs, eris.New("server.port must be > 0"))
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		errs = multierror.Append(errs, eris.Errorf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = multierror.Append(errs, eris.New("store.database_url is required for the postgres driver (set REFLOW_STORE_DATABASE_URL)"))
	}
	if c.Pipeline.MaxConcurrentParts < 1 || c.Pipeline.MaxConcurrentParts > 50 {
		errs = multierror.Append(errs, eris.New("pipeline.max_concurrent_parts must be between 1 and 50"))
	}
	if c.Pipeline.MaxConcurrentDocs < 1 || c.Pipeline.MaxConcurrentDocs > 20 {
		errs = multierror.Append(errs, eris.New("pipeline.max_concurrent_docs must be between 1 and 20"))
	}
	if c.Reconcile.Tolerance <= 0 || c.Reconcile.Tolerance >= 1 {
		errs = multierror.Append(errs, eris.New("reconcile.tolerance must be in (0, 1)"))
	}
	if c.Reconcile.ConflictMargin <= 0 || c.Reconcile.ConflictMargin >= 1 {
		errs = multierror.Append(errs, eris.New("reconcile.conflict_margin must be in (0, 1)"))
	}
	if c.Search.MaxResults < 1 || c.Search.MaxResults > 20 {
		errs = multierror.Append(errs, eris.New("search.max_results must be between 1 and 20"))
	}
	if c.Fetch.RatePerSec <= 0 {
		errs = multierror.Append(errs, eris.New("fetch.rate_per_sec must be > 0"))
	}
	if c.Doctext.MaxPages < 1 {
		errs = multierror.Append(errs, eris.New("doctext.max_pages must be >= 1"))
	}

	return errs.ErrorOrNil()
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
