package sfmcp

import (
	"context"

	"github.com/matt-atadata/snowflake-mcp-server/internal/memo"
)

// Resource URIs. The set is fixed and enumerable; unknown URIs are an error,
// never a silent empty result.
const (
	ResourceInsights  = "memo://insights"
	ResourceDatabases = "snowflake://metadata/databases"
	ResourceSchemas   = "snowflake://metadata/schemas"
	ResourceTables    = "snowflake://metadata/tables"
	ResourceUserInfo  = "snowflake://metadata/user_info"
)

// ListResources returns descriptors for every resource the server exposes.
// Always succeeds.
func (s *SnowflakeMcp) ListResources() []ResourceDescriptor {
	return []ResourceDescriptor{
		{
			URI:         ResourceInsights,
			Name:        "Data Insights Memo",
			Description: "Running log of insights recorded during analysis, newest first.",
			MIMEType:    "text/plain",
		},
		{
			URI:         ResourceDatabases,
			Name:        "Databases",
			Description: "All databases visible to the active role.",
			MIMEType:    "text/plain",
		},
		{
			URI:         ResourceSchemas,
			Name:        "Schemas",
			Description: "All schemas in the session's current database.",
			MIMEType:    "text/plain",
		},
		{
			URI:         ResourceTables,
			Name:        "Tables",
			Description: "All tables in the session's current database and schema.",
			MIMEType:    "text/plain",
		},
		{
			URI:         ResourceUserInfo,
			Name:        "User Info",
			Description: "Identity of the connected session: user, role, warehouse, database, schema, account.",
			MIMEType:    "text/plain",
		},
	}
}

// ReadResource resolves a resource URI to its content. Metadata resources
// perform a live round-trip through the Session on every read unless the
// metadata cache is enabled. Unknown URIs fail with *NotFoundError naming
// the URI.
func (s *SnowflakeMcp) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case ResourceInsights:
		return s.insights.Render(), nil
	case ResourceDatabases:
		return s.metadataQuery(ctx, "SHOW DATABASES")
	case ResourceSchemas:
		return s.metadataQuery(ctx, "SHOW SCHEMAS")
	case ResourceTables:
		return s.metadataQuery(ctx, "SHOW TABLES")
	case ResourceUserInfo:
		return s.metadataQuery(ctx, `SELECT CURRENT_USER() AS "USER", CURRENT_ROLE() AS "ROLE", CURRENT_WAREHOUSE() AS "WAREHOUSE", CURRENT_DATABASE() AS "DATABASE", CURRENT_SCHEMA() AS "SCHEMA", CURRENT_ACCOUNT() AS "ACCOUNT"`)
	default:
		return "", &NotFoundError{URI: uri}
	}
}

// InsightsEmptyMarker is the canonical content of memo://insights when no
// insights have been recorded.
const InsightsEmptyMarker = memo.EmptyMarker
