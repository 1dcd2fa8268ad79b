package sfmcp

import (
	"os"
	"strconv"
	"strings"
)

// Config is the base configuration used by library mode via New().
type Config struct {
	Query      QueryConfig     `json:"query"`
	Format     FormatConfig    `json:"format"`
	Insights   InsightsConfig  `json:"insights"`
	Cache      CacheConfig     `json:"cache"`
	Redaction  []RedactionRule `json:"redaction"`
	AllowWrite bool            `json:"allow_write"`
}

// ServerConfig embeds Config and adds connection and server-only fields for
// CLI mode.
type ServerConfig struct {
	Config
	Connection ConnectionConfig `json:"connection"`
	Server     ServerSettings   `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
}

// ConnectionConfig holds Snowflake connection and authentication parameters.
// Exactly one authentication mode is active: if PrivateKeyPath is set,
// key-pair (JWT) authentication takes precedence over Password.
type ConnectionConfig struct {
	Account              string `json:"account"`
	User                 string `json:"user"`
	Password             string `json:"-"`
	Role                 string `json:"role"`
	Warehouse            string `json:"warehouse"`
	Database             string `json:"database"`
	Schema               string `json:"schema"`
	PrivateKeyPath       string `json:"private_key_path"`
	PrivateKeyPassphrase string `json:"-"`

	// Retry settings for the initial connect. Transient failures are retried
	// with linear backoff: attempt index times BaseDelaySeconds.
	MaxAttempts      int `json:"max_attempts"`
	BaseDelaySeconds int `json:"base_delay_seconds"`
}

// QueryConfig holds statement execution settings.
type QueryConfig struct {
	TimeoutSeconds int `json:"timeout_seconds"`
	MaxSQLLength   int `json:"max_sql_length"`
}

// FormatConfig controls how result sets are rendered as text.
type FormatConfig struct {
	// RowThreshold is the largest row count rendered in full. Larger result
	// sets are truncated to SampleRows plus an omitted-row count.
	RowThreshold int `json:"row_threshold"`
	SampleRows   int `json:"sample_rows"`
}

// InsightsConfig bounds the in-memory insights memo.
type InsightsConfig struct {
	MaxEntries int `json:"max_entries"`
}

// CacheConfig controls the fixed-TTL memoization of metadata reads.
// Entries are never invalidated by writes; staleness up to TTLSeconds is the
// documented tradeoff of enabling it.
type CacheConfig struct {
	Enabled    bool `json:"enabled"`
	TTLSeconds int  `json:"ttl_seconds"`
}

// RedactionRule defines a regex-based replacement applied to result cell
// values before formatting.
type RedactionRule struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
}

// ServerSettings holds transport settings for CLI mode.
type ServerSettings struct {
	// Transport is "stdio" (default) or "http".
	Transport          string `json:"transport"`
	Port               int    `json:"port"`
	HealthCheckEnabled bool   `json:"health_check_enabled"`
	HealthCheckPath    string `json:"health_check_path"`
}

// LoggingConfig holds logging settings for CLI mode. Output defaults to
// stderr; stdout is reserved for the stdio JSON-RPC transport.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stderr, or file path
}

// Defaults applied by New and Connect for zero values.
const (
	defaultMaxAttempts      = 3
	defaultBaseDelaySeconds = 1
	defaultQueryTimeoutSecs = 300
	defaultMaxSQLLength     = 100000
	defaultRowThreshold     = 20
	defaultSampleRows       = 10
	defaultMaxInsights      = 100
	defaultCacheTTLSeconds  = 30
)

func (c *Config) applyDefaults() {
	if c.Query.TimeoutSeconds == 0 {
		c.Query.TimeoutSeconds = defaultQueryTimeoutSecs
	}
	if c.Query.MaxSQLLength == 0 {
		c.Query.MaxSQLLength = defaultMaxSQLLength
	}
	if c.Format.RowThreshold == 0 {
		c.Format.RowThreshold = defaultRowThreshold
	}
	if c.Format.SampleRows == 0 {
		c.Format.SampleRows = defaultSampleRows
	}
	if c.Insights.MaxEntries == 0 {
		c.Insights.MaxEntries = defaultMaxInsights
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = defaultCacheTTLSeconds
	}
}

// ConnectionConfigFromEnv builds a ConnectionConfig from SNOWFLAKE_*
// environment variables. It does not validate — Connect does.
func ConnectionConfigFromEnv() ConnectionConfig {
	return ConnectionConfig{
		Account:              os.Getenv("SNOWFLAKE_ACCOUNT"),
		User:                 os.Getenv("SNOWFLAKE_USER"),
		Password:             os.Getenv("SNOWFLAKE_PASSWORD"),
		Role:                 os.Getenv("SNOWFLAKE_ROLE"),
		Warehouse:            os.Getenv("SNOWFLAKE_WAREHOUSE"),
		Database:             os.Getenv("SNOWFLAKE_DATABASE"),
		Schema:               os.Getenv("SNOWFLAKE_SCHEMA"),
		PrivateKeyPath:       os.Getenv("SNOWFLAKE_PRIVATE_KEY_PATH"),
		PrivateKeyPassphrase: os.Getenv("SNOWFLAKE_PRIVATE_KEY_PASSPHRASE"),
		MaxAttempts:          envInt("SNOWFLAKE_CONNECT_MAX_ATTEMPTS", 0),
		BaseDelaySeconds:     envInt("SNOWFLAKE_CONNECT_BASE_DELAY_SECONDS", 0),
	}
}

// ServerConfigFromEnv builds the full CLI-mode configuration from environment
// variables. Connection fields come from SNOWFLAKE_*, server and logging
// fields from MCP_* and LOG_*.
func ServerConfigFromEnv() ServerConfig {
	cfg := ServerConfig{
		Config: Config{
			Query: QueryConfig{
				TimeoutSeconds: envInt("MCP_QUERY_TIMEOUT_SECONDS", 0),
				MaxSQLLength:   envInt("MCP_MAX_SQL_LENGTH", 0),
			},
			Cache: CacheConfig{
				Enabled:    envBool("MCP_CACHE_ENABLED"),
				TTLSeconds: envInt("MCP_CACHE_TTL_SECONDS", 0),
			},
			Insights: InsightsConfig{
				MaxEntries: envInt("MCP_INSIGHTS_MAX_ENTRIES", 0),
			},
			AllowWrite: envBool("MCP_ALLOW_WRITE"),
		},
		Connection: ConnectionConfigFromEnv(),
		Server: ServerSettings{
			Transport:          os.Getenv("MCP_TRANSPORT"),
			Port:               envInt("MCP_PORT", 8000),
			HealthCheckEnabled: envBool("MCP_HEALTH_CHECK_ENABLED"),
			HealthCheckPath:    os.Getenv("MCP_HEALTH_CHECK_PATH"),
		},
		Logging: LoggingConfig{
			Level:  os.Getenv("LOG_LEVEL"),
			Format: os.Getenv("LOG_FORMAT"),
			Output: os.Getenv("LOG_FILE"),
		},
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
	if cfg.Server.HealthCheckEnabled && cfg.Server.HealthCheckPath == "" {
		cfg.Server.HealthCheckPath = "/health"
	}
	return cfg
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// validate checks the identity and authentication invariants. A connection is
// either fully authenticated or does not exist; missing material is a
// configuration error, not a degraded session.
func (c *ConnectionConfig) validate() error {
	if c.Account == "" {
		return &ConfigurationError{Reason: "SNOWFLAKE_ACCOUNT is required"}
	}
	if c.User == "" {
		return &ConfigurationError{Reason: "SNOWFLAKE_USER is required"}
	}
	if c.Password == "" && c.PrivateKeyPath == "" {
		return &ConfigurationError{Reason: "no authentication method configured: set SNOWFLAKE_PASSWORD or SNOWFLAKE_PRIVATE_KEY_PATH"}
	}
	if c.MaxAttempts < 0 {
		return &ConfigurationError{Reason: "max_attempts must be >= 0"}
	}
	if c.BaseDelaySeconds < 0 {
		return &ConfigurationError{Reason: "base_delay_seconds must be >= 0"}
	}
	return nil
}
