package sfmcp

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// identifierPattern validates unquoted Snowflake identifiers, optionally
// qualified as database.schema.object.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*){0,2}$`)

func validIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// ReadQuery executes a SELECT statement. Any other statement class is
// rejected before reaching the database.
func (s *SnowflakeMcp) ReadQuery(ctx context.Context, query string) (string, error) {
	if Classify(query) != StatementSelect {
		return "", &ValidationError{Tool: "read_query", Reason: "Only SELECT queries are allowed. Use write_query for INSERT/UPDATE/DELETE or create_table for DDL."}
	}
	result, err := s.run(ctx, query)
	if err != nil {
		return "", err
	}
	result.Rows = s.redactRows(result.Rows)
	return s.format(result), nil
}

// WriteQuery executes an INSERT, UPDATE, or DELETE statement. SELECT and DDL
// statements are rejected with a redirect to the right tool.
func (s *SnowflakeMcp) WriteQuery(ctx context.Context, query string) (string, error) {
	switch Classify(query) {
	case StatementInsert, StatementUpdate, StatementDelete:
	case StatementSelect:
		return "", &ValidationError{Tool: "write_query", Reason: "SELECT queries are not allowed here. Use read_query instead."}
	case StatementCreate, StatementAlter, StatementDrop:
		return "", &ValidationError{Tool: "write_query", Reason: "DDL statements are not allowed here. Use create_table instead."}
	default:
		return "", &ValidationError{Tool: "write_query", Reason: "Only INSERT, UPDATE, or DELETE statements are allowed."}
	}
	result, err := s.run(ctx, query)
	if err != nil {
		return "", err
	}
	return s.format(WriteResult{AffectedRows: result.RowsAffected}), nil
}

// CreateTable executes a DDL statement. The class check is mandatory: it is
// the safety boundary that keeps DML and reads out of this tool.
func (s *SnowflakeMcp) CreateTable(ctx context.Context, query string) (string, error) {
	switch Classify(query) {
	case StatementCreate, StatementAlter, StatementDrop:
	default:
		return "", &ValidationError{Tool: "create_table", Reason: "Only CREATE, ALTER, or DROP statements are allowed."}
	}
	if _, err := s.run(ctx, query); err != nil {
		return "", err
	}
	return s.format(DDLResult{Success: true, Message: "Statement executed successfully."}), nil
}

// ListDatabases lists all databases visible to the active role.
func (s *SnowflakeMcp) ListDatabases(ctx context.Context) (string, error) {
	return s.metadataQuery(ctx, "SHOW DATABASES")
}

// ListSchemas lists schemas, optionally scoped to one database.
func (s *SnowflakeMcp) ListSchemas(ctx context.Context, database string) (string, error) {
	stmt := "SHOW SCHEMAS"
	if database != "" {
		if !validIdentifier(database) {
			return "", &ValidationError{Tool: "list_schemas", Reason: fmt.Sprintf("invalid database name %q", database)}
		}
		stmt += " IN DATABASE " + database
	}
	return s.metadataQuery(ctx, stmt)
}

// ListTables lists tables, optionally scoped to a database or schema.
func (s *SnowflakeMcp) ListTables(ctx context.Context, database, schema string) (string, error) {
	stmt, err := scopedShow("list_tables", "TABLES", database, schema)
	if err != nil {
		return "", err
	}
	return s.metadataQuery(ctx, stmt)
}

// DescribeTable returns the column layout of a table. The table name may be
// qualified as database.schema.table.
func (s *SnowflakeMcp) DescribeTable(ctx context.Context, table string) (string, error) {
	if !validIdentifier(table) {
		return "", &ValidationError{Tool: "describe_table", Reason: fmt.Sprintf("invalid table name %q", table)}
	}
	return s.metadataQuery(ctx, "DESCRIBE TABLE "+table)
}

// GetUserRoles reports the session identity and every role available to it.
func (s *SnowflakeMcp) GetUserRoles(ctx context.Context) (string, error) {
	return s.metadataQuery(ctx, `SELECT CURRENT_USER() AS "USER", CURRENT_ROLE() AS "ROLE", CURRENT_AVAILABLE_ROLES() AS "AVAILABLE_ROLES"`)
}

// GetQueryHistory returns the most recent queries, newest first.
func (s *SnowflakeMcp) GetQueryHistory(ctx context.Context, limit int) (string, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 10000 {
		return "", &ValidationError{Tool: "get_query_history", Reason: fmt.Sprintf("limit %d exceeds maximum of 10000", limit)}
	}
	stmt := fmt.Sprintf(
		"SELECT query_id, query_text, database_name, schema_name, execution_status, start_time, total_elapsed_time "+
			"FROM TABLE(INFORMATION_SCHEMA.QUERY_HISTORY(RESULT_LIMIT => %d)) ORDER BY start_time DESC", limit)
	result, err := s.run(ctx, stmt)
	if err != nil {
		return "", err
	}
	result.Rows = s.redactRows(result.Rows)
	return s.format(result), nil
}

// GetTableSample returns up to limit rows from the named table.
func (s *SnowflakeMcp) GetTableSample(ctx context.Context, table string, limit int) (string, error) {
	if table == "" {
		return "", &ValidationError{Tool: "get_table_sample", Reason: "table_name is required"}
	}
	if !validIdentifier(table) {
		return "", &ValidationError{Tool: "get_table_sample", Reason: fmt.Sprintf("invalid table name %q", table)}
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 10000 {
		return "", &ValidationError{Tool: "get_table_sample", Reason: fmt.Sprintf("limit %d exceeds maximum of 10000", limit)}
	}
	result, err := s.run(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit))
	if err != nil {
		return "", err
	}
	result.Rows = s.redactRows(result.Rows)
	return s.format(result), nil
}

// showableObjects maps show_objects object types to SHOW targets.
var showableObjects = map[string]string{
	"alerts":             "ALERTS",
	"columns":            "COLUMNS",
	"connections":        "CONNECTIONS",
	"databases":          "DATABASES",
	"external_tables":    "EXTERNAL TABLES",
	"functions":          "FUNCTIONS",
	"grants":             "GRANTS",
	"integrations":       "INTEGRATIONS",
	"locks":              "LOCKS",
	"materialized_views": "MATERIALIZED VIEWS",
	"objects":            "OBJECTS",
	"parameters":         "PARAMETERS",
	"pipes":              "PIPES",
	"procedures":         "PROCEDURES",
	"regions":            "REGIONS",
	"roles":              "ROLES",
	"schemas":            "SCHEMAS",
	"sequences":          "SEQUENCES",
	"shares":             "SHARES",
	"stages":             "STAGES",
	"streams":            "STREAMS",
	"tables":             "TABLES",
	"tasks":              "TASKS",
	"transactions":       "TRANSACTIONS",
	"users":              "USERS",
	"views":              "VIEWS",
	"warehouses":         "WAREHOUSES",
}

// ShowObjects runs SHOW for one of the supported object types, optionally
// scoped to a database or schema.
func (s *SnowflakeMcp) ShowObjects(ctx context.Context, objectType, database, schema string) (string, error) {
	target, ok := showableObjects[strings.ToLower(objectType)]
	if !ok {
		return "", &ValidationError{Tool: "show_objects", Reason: fmt.Sprintf("unsupported object type %q; supported types: %s", objectType, strings.Join(sortedKeys(showableObjects), ", "))}
	}
	stmt, err := scopedShow("show_objects", target, database, schema)
	if err != nil {
		return "", err
	}
	return s.metadataQuery(ctx, stmt)
}

// describableObjects maps describe_object object types to DESCRIBE targets.
var describableObjects = map[string]string{
	"alert":             "ALERT",
	"database":          "DATABASE",
	"external_table":    "EXTERNAL TABLE",
	"function":          "FUNCTION",
	"integration":       "INTEGRATION",
	"materialized_view": "MATERIALIZED VIEW",
	"pipe":              "PIPE",
	"procedure":         "PROCEDURE",
	"schema":            "SCHEMA",
	"sequence":          "SEQUENCE",
	"share":             "SHARE",
	"stage":             "STAGE",
	"stream":            "STREAM",
	"table":             "TABLE",
	"task":              "TASK",
	"view":              "VIEW",
	"warehouse":         "WAREHOUSE",
}

// DescribeObject runs DESCRIBE for one of the supported object types. The
// name may be qualified; an unqualified name resolves in the session's
// current database and schema.
func (s *SnowflakeMcp) DescribeObject(ctx context.Context, objectType, name string) (string, error) {
	target, ok := describableObjects[strings.ToLower(objectType)]
	if !ok {
		return "", &ValidationError{Tool: "describe_object", Reason: fmt.Sprintf("unsupported object type %q; supported types: %s", objectType, strings.Join(sortedKeys(describableObjects), ", "))}
	}
	if !validIdentifier(name) {
		return "", &ValidationError{Tool: "describe_object", Reason: fmt.Sprintf("invalid object name %q", name)}
	}
	return s.metadataQuery(ctx, fmt.Sprintf("DESCRIBE %s %s", target, name))
}

// metadataQuery executes an introspection statement through the cache (when
// enabled) and formats the rows. Redaction happens on a copy so cached
// entries keep the raw values.
func (s *SnowflakeMcp) metadataQuery(ctx context.Context, stmt string) (string, error) {
	result, err := s.runCached(ctx, stmt)
	if err != nil {
		return "", err
	}
	return s.format(&RowSet{
		Columns:      result.Columns,
		Rows:         s.redactRows(result.Rows),
		RowsAffected: result.RowsAffected,
	}), nil
}

// scopedShow builds "SHOW <target>" with optional IN DATABASE / IN db.schema
// scoping, validating the identifiers.
func scopedShow(tool, target, database, schema string) (string, error) {
	if database != "" && !validIdentifier(database) {
		return "", &ValidationError{Tool: tool, Reason: fmt.Sprintf("invalid database name %q", database)}
	}
	if schema != "" && !validIdentifier(schema) {
		return "", &ValidationError{Tool: tool, Reason: fmt.Sprintf("invalid schema name %q", schema)}
	}
	stmt := "SHOW " + target
	switch {
	case database != "" && schema != "":
		stmt += fmt.Sprintf(" IN SCHEMA %s.%s", database, schema)
	case database != "":
		stmt += " IN DATABASE " + database
	case schema != "":
		stmt += " IN SCHEMA " + schema
	}
	return stmt, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AppendInsight records one insight in the memo, newest first.
func (s *SnowflakeMcp) AppendInsight(text, category string) (string, error) {
	if err := s.insights.Append(text, category); err != nil {
		return "", &ValidationError{Tool: "append_insight", Reason: err.Error()}
	}
	s.logger.Info().Str("category", category).Msg("insight recorded")
	return fmt.Sprintf("Insight added. Memo now holds %d entries.", s.insights.Len()), nil
}

// ClearInsights empties the memo and reports how many entries were removed.
func (s *SnowflakeMcp) ClearInsights() (string, error) {
	n := s.insights.Clear()
	s.logger.Info().Int("cleared", n).Msg("insights cleared")
	return fmt.Sprintf("Cleared %d insights.", n), nil
}
