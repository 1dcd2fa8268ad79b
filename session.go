package sfmcp

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"database/sql"
	"encoding/pem"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/snowflakedb/gosnowflake"
	"github.com/youmark/pkcs8"
)

// Executor is the single path for SQL execution. Session implements it;
// tests substitute fakes.
type Executor interface {
	ExecuteRaw(ctx context.Context, sqlText string) (*RowSet, error)
}

// Session owns the single authenticated Snowflake connection. At most one
// statement executes at a time; concurrent callers are serialized by the
// session mutex. Safe for concurrent use.
type Session struct {
	cfg    ConnectionConfig
	logger zerolog.Logger

	mu sync.Mutex
	db *sqlx.DB
}

// Connect establishes an authenticated Snowflake session. Identity and
// credential validation failures return *ConfigurationError or
// *AuthenticationError without touching the network. Transient connect
// failures are retried up to cfg.MaxAttempts with linear backoff
// (attempt index times cfg.BaseDelaySeconds); the last underlying error is
// returned unchanged after retries are exhausted.
func Connect(ctx context.Context, cfg ConnectionConfig, logger zerolog.Logger) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseDelaySeconds == 0 {
		cfg.BaseDelaySeconds = defaultBaseDelaySeconds
	}

	s := &Session{cfg: cfg, logger: logger}
	if err := s.open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// open dials and authenticates, retrying transient failures. Called with no
// locks held by Connect, and with s.mu held by Reconnect.
func (s *Session) open(ctx context.Context) error {
	sfCfg, err := s.driverConfig()
	if err != nil {
		return err
	}

	connector := gosnowflake.NewConnector(gosnowflake.SnowflakeDriver{}, *sfCfg)
	db := sqlx.NewDb(sql.OpenDB(connector), "snowflake").Unsafe()
	// Single session: all statements share one authenticated connection so
	// USE DATABASE and session parameters apply to every tool call.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		lastErr = db.PingContext(ctx)
		if lastErr == nil {
			break
		}
		s.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", s.cfg.MaxAttempts).
			Msg("snowflake connect failed")
		if attempt == s.cfg.MaxAttempts {
			db.Close()
			return lastErr
		}
		delay := time.Duration(attempt*s.cfg.BaseDelaySeconds) * time.Second
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			db.Close()
			return ctx.Err()
		}
	}

	s.db = db
	s.bootstrap(ctx)
	s.logger.Info().
		Str("account", s.cfg.Account).
		Str("user", s.cfg.User).
		Str("role", s.cfg.Role).
		Str("warehouse", s.cfg.Warehouse).
		Msg("connected to snowflake")
	return nil
}

// driverConfig maps ConnectionConfig onto the gosnowflake driver config,
// selecting the authentication mode. A configured private key path wins over
// a password.
func (s *Session) driverConfig() (*gosnowflake.Config, error) {
	sfCfg := &gosnowflake.Config{
		Account:     s.cfg.Account,
		User:        s.cfg.User,
		Role:        s.cfg.Role,
		Warehouse:   s.cfg.Warehouse,
		Database:    s.cfg.Database,
		Schema:      s.cfg.Schema,
		Application: "snowflake-mcp-server",
	}
	if s.cfg.PrivateKeyPath != "" {
		key, err := loadPrivateKey(s.cfg.PrivateKeyPath, s.cfg.PrivateKeyPassphrase)
		if err != nil {
			return nil, err
		}
		sfCfg.Authenticator = gosnowflake.AuthTypeJwt
		sfCfg.PrivateKey = key
	} else {
		sfCfg.Authenticator = gosnowflake.AuthTypeSnowflake
		sfCfg.Password = s.cfg.Password
	}
	return sfCfg, nil
}

// loadPrivateKey reads and parses a PKCS#8 RSA private key in PEM form.
// Any failure is an AuthenticationError: the credential material exists in
// config but cannot be used.
func loadPrivateKey(path, passphrase string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &AuthenticationError{Reason: fmt.Sprintf("cannot read private key file %s", path), Err: err}
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, &AuthenticationError{Reason: fmt.Sprintf("private key file %s is not PEM-encoded", path)}
	}

	var parsed any
	if passphrase != "" {
		parsed, err = pkcs8.ParsePKCS8PrivateKey(block.Bytes, []byte(passphrase))
	} else {
		parsed, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	}
	if err != nil {
		return nil, &AuthenticationError{Reason: fmt.Sprintf("cannot parse private key file %s", path), Err: err}
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, &AuthenticationError{Reason: fmt.Sprintf("private key file %s does not contain an RSA key", path)}
	}
	return key, nil
}

// bootstrap applies session parameters after connect, mirroring warehouse
// conventions: a query tag for tracking, UTC timezone, and a server-side
// statement timeout. Failures are logged, never fatal.
func (s *Session) bootstrap(ctx context.Context) {
	for _, stmt := range []string{
		"ALTER SESSION SET QUERY_TAG = 'snowflake-mcp-server'",
		"ALTER SESSION SET TIMEZONE = 'UTC'",
		"ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = 300",
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.logger.Warn().Err(err).Str("statement", stmt).Msg("session parameter not applied")
		}
	}
}

// ExecuteRaw executes one SQL statement and returns its result. Row-returning
// statement classes (SELECT, SHOW, DESCRIBE, UNKNOWN) are executed as
// queries; everything else as a command with an affected-row count. Database
// failures are returned as *ExecutionError.
func (s *Session) ExecuteRaw(ctx context.Context, sqlText string) (*RowSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, &ExecutionError{SQL: sqlText, Err: fmt.Errorf("session is closed")}
	}

	switch Classify(sqlText) {
	case StatementSelect, StatementShow, StatementDescribe, StatementUnknown:
		return s.query(ctx, sqlText)
	default:
		return s.exec(ctx, sqlText)
	}
}

func (s *Session) query(ctx context.Context, sqlText string) (*RowSet, error) {
	rows, err := s.db.QueryxContext(ctx, sqlText)
	if err != nil {
		return nil, &ExecutionError{SQL: sqlText, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &ExecutionError{SQL: sqlText, Err: err}
	}

	result := &RowSet{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, &ExecutionError{SQL: sqlText, Err: err}
		}
		for k, v := range row {
			row[k] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecutionError{SQL: sqlText, Err: err}
	}
	return result, nil
}

func (s *Session) exec(ctx context.Context, sqlText string) (*RowSet, error) {
	res, err := s.db.ExecContext(ctx, sqlText)
	if err != nil {
		return nil, &ExecutionError{SQL: sqlText, Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return &RowSet{RowsAffected: affected}, nil
}

// normalizeValue converts driver-returned values into JSON-friendly types.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return v
	}
}

// Close closes the underlying session. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Reconnect tears down the current session and establishes a fresh one under
// the same configuration. Useful after credential or network problems.
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return s.open(ctx)
}
