package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/intelscout/intelscout/pkg/domain"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:intelscout.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Scan ScanConfig `yaml:"scan" json:"scan" jsonschema:"description=Scan cycle configuration"`

	Enrichment EnrichmentConfig `yaml:"enrichment" json:"enrichment" jsonschema:"description=LLM enrichment configuration for finding scoring"`

	Sources struct {
		RegistryFile string `yaml:"registry_file" json:"registry_file" jsonschema:"description=Industry feed registry YAML (embedded default when empty)"`
		UserAgent    string `yaml:"user_agent" json:"user_agent" jsonschema:"default=IntelScout/1.0,description=User agent for feed requests"`
	} `yaml:"sources" json:"sources" jsonschema:"description=Source registry configuration"`

	Organizations []Organization `yaml:"organizations" json:"organizations" jsonschema:"description=Monitored organizations"`
}

// ScanConfig holds scan cycle settings
type ScanConfig struct {
	Interval          time.Duration `yaml:"interval" json:"interval" jsonschema:"default=30m,description=Interval between automatic scans (0 disables the loop)"`
	SourceTimeout     time.Duration `yaml:"source_timeout" json:"source_timeout" jsonschema:"default=10s,description=Per-source fetch timeout"`
	MaxWorkers        int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=5,description=Maximum concurrent source fetches"`
	MaxCandidates     int           `yaml:"max_candidates" json:"max_candidates" jsonschema:"default=20,description=Maximum candidates scored per scan"`
	ScoreBatchSize    int           `yaml:"score_batch_size" json:"score_batch_size" jsonschema:"default=2,description=Candidates scored per rate-limited batch"`
	ScoreRate         time.Duration `yaml:"score_rate" json:"score_rate" jsonschema:"default=2s,description=Minimum delay between scoring batches"`
	WindowHours       int           `yaml:"window_hours" json:"window_hours" jsonschema:"default=24,description=Detection window over recent findings in hours"`
	SpikeThreshold    int           `yaml:"spike_threshold" json:"spike_threshold" jsonschema:"default=5,description=Findings per hour-bucket above which a spike is reported"`
	CacheTTL          time.Duration `yaml:"cache_ttl" json:"cache_ttl" jsonschema:"default=30m,description=TTL for cached per-organization scan results"`
	DegradedThreshold float64       `yaml:"degraded_threshold" json:"degraded_threshold" jsonschema:"default=0.5,description=Fetch-error ratio above which health is degraded"`
}

// EnrichmentConfig holds LLM configuration for finding scoring. An empty
// endpoint disables the AI path entirely and the deterministic fallback
// scorer is used for every finding.
type EnrichmentConfig struct {
	Endpoint    string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint (empty disables enrichment)"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model       string        `yaml:"model" json:"model" jsonschema:"description=Model name (e.g. gpt-4o-mini or llama3)"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.2,description=Temperature for response generation"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=400,description=Maximum tokens in response"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=20s,description=Request timeout"`
}

// Organization describes one monitored organization
type Organization struct {
	ID          int64            `yaml:"id" json:"id" jsonschema:"required,description=Organization identifier"`
	Name        string           `yaml:"name" json:"name" jsonschema:"required,description=Organization name"`
	Industry    string           `yaml:"industry" json:"industry" jsonschema:"description=Declared industry used for feed registry matching"`
	Competitors []string         `yaml:"competitors" json:"competitors" jsonschema:"description=Competitor names to monitor"`
	Topics      []string         `yaml:"topics" json:"topics" jsonschema:"description=Topics to monitor"`
	Scenarios   domain.Scenarios `yaml:"scenarios" json:"scenarios" jsonschema:"description=Positive/negative/critical scenario phrases for sentiment scoring"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// set defaults for server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// set defaults for database
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:intelscout.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	// set defaults for scan
	if cfg.Scan.SourceTimeout == 0 {
		cfg.Scan.SourceTimeout = 10 * time.Second
	}
	if cfg.Scan.MaxWorkers == 0 {
		cfg.Scan.MaxWorkers = 5
	}
	if cfg.Scan.MaxCandidates == 0 {
		cfg.Scan.MaxCandidates = 20
	}
	if cfg.Scan.ScoreBatchSize == 0 {
		cfg.Scan.ScoreBatchSize = 2
	}
	if cfg.Scan.ScoreRate == 0 {
		cfg.Scan.ScoreRate = 2 * time.Second
	}
	if cfg.Scan.WindowHours == 0 {
		cfg.Scan.WindowHours = 24
	}
	if cfg.Scan.SpikeThreshold == 0 {
		cfg.Scan.SpikeThreshold = 5
	}
	if cfg.Scan.CacheTTL == 0 {
		cfg.Scan.CacheTTL = 30 * time.Minute
	}
	if cfg.Scan.DegradedThreshold == 0 {
		cfg.Scan.DegradedThreshold = 0.5
	}

	// set defaults for enrichment
	if cfg.Enrichment.Temperature == 0 {
		cfg.Enrichment.Temperature = 0.2
	}
	if cfg.Enrichment.MaxTokens == 0 {
		cfg.Enrichment.MaxTokens = 400
	}
	if cfg.Enrichment.Timeout == 0 {
		cfg.Enrichment.Timeout = 20 * time.Second
	}

	// set defaults for sources
	if cfg.Sources.UserAgent == "" {
		cfg.Sources.UserAgent = "IntelScout/1.0"
	}

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	// enrichment is optional, but a configured endpoint needs a model
	if cfg.Enrichment.Endpoint != "" && cfg.Enrichment.Model == "" {
		return fmt.Errorf("enrichment.model is required when enrichment.endpoint is set")
	}
	if cfg.Enrichment.Temperature < 0 || cfg.Enrichment.Temperature > 2 {
		return fmt.Errorf("enrichment.temperature must be between 0 and 2")
	}

	if cfg.Scan.SourceTimeout < time.Second {
		return fmt.Errorf("scan.source_timeout must be at least 1 second")
	}
	if cfg.Scan.MaxWorkers < 1 {
		return fmt.Errorf("scan.max_workers must be at least 1")
	}
	if cfg.Scan.ScoreBatchSize < 1 {
		return fmt.Errorf("scan.score_batch_size must be at least 1")
	}
	if cfg.Scan.DegradedThreshold <= 0 || cfg.Scan.DegradedThreshold > 1 {
		return fmt.Errorf("scan.degraded_threshold must be in (0, 1]")
	}

	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	seen := make(map[int64]bool, len(cfg.Organizations))
	for _, org := range cfg.Organizations {
		if org.ID == 0 {
			return fmt.Errorf("organization %q has no id", org.Name)
		}
		if org.Name == "" {
			return fmt.Errorf("organization %d has no name", org.ID)
		}
		if seen[org.ID] {
			return fmt.Errorf("duplicate organization id %d", org.ID)
		}
		seen[org.ID] = true
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetScanConfig returns scan cycle configuration
func (c *Config) GetScanConfig() ScanConfig {
	return c.Scan
}

// GetEnrichmentConfig returns LLM enrichment configuration
func (c *Config) GetEnrichmentConfig() EnrichmentConfig {
	return c.Enrichment
}

// GetOrganization returns the organization with the given id
func (c *Config) GetOrganization(id int64) (Organization, bool) {
	for _, org := range c.Organizations {
		if org.ID == id {
			return org, true
		}
	}
	return Organization{}, false
}
