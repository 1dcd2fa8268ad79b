package sfmcp

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"

	"github.com/matt-atadata/snowflake-mcp-server/internal/memo"
	"github.com/matt-atadata/snowflake-mcp-server/internal/suggest"
)

// SnowflakeMcp is the core engine behind every tool and resource. It routes
// validated requests through the Session, formats results, and converts
// failures into actionable diagnostics. All exported methods are safe for
// concurrent use; statement execution itself is serialized by the Session.
type SnowflakeMcp struct {
	config      Config
	exec        Executor
	insights    *memo.Memo
	suggestions *suggest.Matcher
	redactions  []compiledRedaction
	cache       *ttlcache.Cache[string, *RowSet]
	logger      zerolog.Logger
}

type compiledRedaction struct {
	pattern     *regexp.Regexp
	replacement string
}

// New creates a SnowflakeMcp engine on top of an Executor (normally a
// *Session; tests pass fakes). Panics on invalid config — misconfiguration
// in library mode is a programmer error.
func New(exec Executor, config Config, logger zerolog.Logger) *SnowflakeMcp {
	if exec == nil {
		panic("sfmcp: exec must be non-nil")
	}
	config.applyDefaults()
	if config.Query.TimeoutSeconds < 0 {
		panic("sfmcp: query.timeout_seconds must be > 0")
	}
	if config.Insights.MaxEntries < 0 {
		panic("sfmcp: insights.max_entries must be > 0")
	}

	redactions := make([]compiledRedaction, len(config.Redaction))
	for i, r := range config.Redaction {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			panic(fmt.Sprintf("sfmcp: invalid redaction pattern %q: %v", r.Pattern, err))
		}
		redactions[i] = compiledRedaction{pattern: re, replacement: r.Replacement}
	}

	var cache *ttlcache.Cache[string, *RowSet]
	if config.Cache.Enabled {
		// Touch-on-hit would extend hot entries indefinitely; staleness must
		// stay bounded by the TTL.
		cache = ttlcache.New(
			ttlcache.WithTTL[string, *RowSet](time.Duration(config.Cache.TTLSeconds)*time.Second),
			ttlcache.WithDisableTouchOnHit[string, *RowSet](),
		)
		go cache.Start()
	}

	return &SnowflakeMcp{
		config:      config,
		exec:        exec,
		insights:    memo.New(config.Insights.MaxEntries),
		suggestions: suggest.NewMatcher(suggest.DefaultRules),
		redactions:  redactions,
		cache:       cache,
		logger:      logger,
	}
}

// Close releases engine-owned resources. It does not close the Executor;
// the caller owns the Session lifecycle.
func (s *SnowflakeMcp) Close() {
	if s.cache != nil {
		s.cache.Stop()
	}
}

// Insights exposes the memo for the resource provider and tests.
func (s *SnowflakeMcp) Insights() *memo.Memo {
	return s.insights
}

// run executes one statement through the Executor with the configured
// timeout and logs the outcome. The single path every tool and resource
// uses to reach the database.
func (s *SnowflakeMcp) run(ctx context.Context, sqlText string) (*RowSet, error) {
	if len(sqlText) > s.config.Query.MaxSQLLength {
		return nil, &ValidationError{Reason: fmt.Sprintf("SQL query too long: %d bytes exceeds maximum of %d bytes", len(sqlText), s.config.Query.MaxSQLLength)}
	}

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.Query.TimeoutSeconds)*time.Second)
	defer cancel()

	start := time.Now()
	result, err := s.exec.ExecuteRaw(queryCtx, sqlText)
	if err != nil {
		s.logger.Error().Err(err).Str("sql", truncateForLog(sqlText, 200)).Msg("statement failed")
		return nil, err
	}

	s.logger.Info().
		Str("sql", truncateForLog(sqlText, 200)).
		Dur("duration", time.Since(start)).
		Int("row_count", len(result.Rows)).
		Int64("rows_affected", result.RowsAffected).
		Msg("statement executed")
	return result, nil
}

// runCached memoizes row-returning metadata statements when the cache is
// enabled. Entries expire after the fixed TTL and are never invalidated by
// writes.
func (s *SnowflakeMcp) runCached(ctx context.Context, sqlText string) (*RowSet, error) {
	if s.cache == nil {
		return s.run(ctx, sqlText)
	}
	if item := s.cache.Get(sqlText); item != nil {
		s.logger.Debug().Str("sql", truncateForLog(sqlText, 200)).Msg("metadata cache hit")
		return item.Value(), nil
	}
	result, err := s.run(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	s.cache.Set(sqlText, result, ttlcache.DefaultTTL)
	return result, nil
}

// redactRows applies the configured redaction rules to every string cell.
func (s *SnowflakeMcp) redactRows(rows []map[string]any) []map[string]any {
	if len(s.redactions) == 0 {
		return rows
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		clean := make(map[string]any, len(row))
		for k, v := range row {
			if str, ok := v.(string); ok {
				for _, r := range s.redactions {
					str = r.pattern.ReplaceAllString(str, r.replacement)
				}
				clean[k] = str
			} else {
				clean[k] = v
			}
		}
		out[i] = clean
	}
	return out
}

// diagnose renders err for the caller: the original message plus, where the
// error text is classifiable, a one-line remediation hint.
func (s *SnowflakeMcp) diagnose(err error) string {
	msg := err.Error()
	if hint := s.suggestions.Match(msg); hint != "" {
		return msg + "\nSuggestion: " + hint
	}
	return msg
}

// format renders a RowSet under the configured truncation thresholds.
func (s *SnowflakeMcp) format(v any) string {
	return FormatResult(v, s.config.Format.RowThreshold, s.config.Format.SampleRows)
}

// truncateForLog truncates a string for log output to avoid oversized log
// entries, respecting rune boundaries.
func truncateForLog(str string, maxLen int) string {
	if len(str) <= maxLen {
		return str
	}
	truncateAt := maxLen
	for truncateAt > 0 && str[truncateAt]&0xC0 == 0x80 {
		truncateAt--
	}
	return str[:truncateAt] + "...[truncated]"
}
