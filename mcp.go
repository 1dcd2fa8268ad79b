package sfmcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers every tool on the given MCP server. Write tools
// (write_query, create_table) are only registered when the engine was
// configured with AllowWrite.
func RegisterMCPTools(mcpServer *server.MCPServer, s *SnowflakeMcp) {
	readQueryTool := mcp.NewTool("read_query",
		mcp.WithDescription("Execute a SELECT query against Snowflake and return the results as formatted text."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The SELECT statement to execute"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(readQueryTool, s.loggedToolHandler("read_query", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query parameter is required"), nil
		}
		return s.textOrError(s.ReadQuery(ctx, query)), nil
	}))

	if s.config.AllowWrite {
		writeQueryTool := mcp.NewTool("write_query",
			mcp.WithDescription("Execute an INSERT, UPDATE, or DELETE statement against Snowflake."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("The INSERT, UPDATE, or DELETE statement to execute"),
			),
		)
		mcpServer.AddTool(writeQueryTool, s.loggedToolHandler("write_query", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			query, err := req.RequireString("query")
			if err != nil {
				return mcp.NewToolResultError("query parameter is required"), nil
			}
			return s.textOrError(s.WriteQuery(ctx, query)), nil
		}))

		createTableTool := mcp.NewTool("create_table",
			mcp.WithDescription("Execute a CREATE, ALTER, or DROP statement against Snowflake."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("The DDL statement to execute"),
			),
		)
		mcpServer.AddTool(createTableTool, s.loggedToolHandler("create_table", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			query, err := req.RequireString("query")
			if err != nil {
				return mcp.NewToolResultError("query parameter is required"), nil
			}
			return s.textOrError(s.CreateTable(ctx, query)), nil
		}))
	}

	listDatabasesTool := mcp.NewTool("list_databases",
		mcp.WithDescription("List all databases visible to the active role."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(listDatabasesTool, s.loggedToolHandler("list_databases", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.textOrError(s.ListDatabases(ctx)), nil
	}))

	listSchemasTool := mcp.NewTool("list_schemas",
		mcp.WithDescription("List schemas, optionally scoped to one database."),
		mcp.WithString("database",
			mcp.Description("Database to list schemas from (defaults to the session database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(listSchemasTool, s.loggedToolHandler("list_schemas", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.textOrError(s.ListSchemas(ctx, req.GetString("database", ""))), nil
	}))

	listTablesTool := mcp.NewTool("list_tables",
		mcp.WithDescription("List tables, optionally scoped to a database and schema."),
		mcp.WithString("database",
			mcp.Description("Database to list tables from"),
		),
		mcp.WithString("schema",
			mcp.Description("Schema to list tables from"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(listTablesTool, s.loggedToolHandler("list_tables", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.textOrError(s.ListTables(ctx, req.GetString("database", ""), req.GetString("schema", ""))), nil
	}))

	describeTableTool := mcp.NewTool("describe_table",
		mcp.WithDescription("Describe the columns of a table. The name may be qualified as database.schema.table."),
		mcp.WithString("table_name",
			mcp.Required(),
			mcp.Description("The table to describe"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(describeTableTool, s.loggedToolHandler("describe_table", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table_name")
		if err != nil {
			return mcp.NewToolResultError("table_name parameter is required"), nil
		}
		return s.textOrError(s.DescribeTable(ctx, table)), nil
	}))

	getUserRolesTool := mcp.NewTool("get_user_roles",
		mcp.WithDescription("Show the current user, active role, and all roles available to the session."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(getUserRolesTool, s.loggedToolHandler("get_user_roles", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.textOrError(s.GetUserRoles(ctx)), nil
	}))

	getQueryHistoryTool := mcp.NewTool("get_query_history",
		mcp.WithDescription("Show recent query history, most recent first."),
		mcp.WithNumber("limit",
			mcp.DefaultNumber(10),
			mcp.Description("Maximum number of history rows to return"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(getQueryHistoryTool, s.loggedToolHandler("get_query_history", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.textOrError(s.GetQueryHistory(ctx, req.GetInt("limit", 10))), nil
	}))

	getTableSampleTool := mcp.NewTool("get_table_sample",
		mcp.WithDescription("Return a bounded sample of rows from the named table."),
		mcp.WithString("table_name",
			mcp.Required(),
			mcp.Description("The table to sample"),
		),
		mcp.WithNumber("limit",
			mcp.DefaultNumber(10),
			mcp.Description("Maximum number of rows to return"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(getTableSampleTool, s.loggedToolHandler("get_table_sample", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table_name")
		if err != nil {
			return mcp.NewToolResultError("table_name parameter is required"), nil
		}
		return s.textOrError(s.GetTableSample(ctx, table, req.GetInt("limit", 10))), nil
	}))

	showObjectsTool := mcp.NewTool("show_objects",
		mcp.WithDescription("Run SHOW for a supported Snowflake object type (warehouses, views, stages, streams, tasks, roles, users, ...)."),
		mcp.WithString("object_type",
			mcp.Required(),
			mcp.Description("Object type to show, e.g. warehouses, views, stages"),
		),
		mcp.WithString("database",
			mcp.Description("Optional database scope"),
		),
		mcp.WithString("schema",
			mcp.Description("Optional schema scope"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(showObjectsTool, s.loggedToolHandler("show_objects", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objectType, err := req.RequireString("object_type")
		if err != nil {
			return mcp.NewToolResultError("object_type parameter is required"), nil
		}
		return s.textOrError(s.ShowObjects(ctx, objectType, req.GetString("database", ""), req.GetString("schema", ""))), nil
	}))

	describeObjectTool := mcp.NewTool("describe_object",
		mcp.WithDescription("Run DESCRIBE for a supported Snowflake object type."),
		mcp.WithString("object_type",
			mcp.Required(),
			mcp.Description("Object type to describe, e.g. table, view, warehouse, stage"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Object name, optionally qualified as database.schema.name"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(describeObjectTool, s.loggedToolHandler("describe_object", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objectType, err := req.RequireString("object_type")
		if err != nil {
			return mcp.NewToolResultError("object_type parameter is required"), nil
		}
		name, err := req.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError("name parameter is required"), nil
		}
		return s.textOrError(s.DescribeObject(ctx, objectType, name)), nil
	}))

	appendInsightTool := mcp.NewTool("append_insight",
		mcp.WithDescription("Record an insight in the in-memory memo, newest first."),
		mcp.WithString("insight",
			mcp.Required(),
			mcp.Description("The insight text to record"),
		),
		mcp.WithString("category",
			mcp.Description("Optional category label for the insight"),
		),
	)
	mcpServer.AddTool(appendInsightTool, s.loggedToolHandler("append_insight", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("insight")
		if err != nil {
			return mcp.NewToolResultError("insight parameter is required"), nil
		}
		return s.textOrError(s.AppendInsight(text, req.GetString("category", ""))), nil
	}))

	clearInsightsTool := mcp.NewTool("clear_insights",
		mcp.WithDescription("Clear the insights memo and report how many entries were removed."),
	)
	mcpServer.AddTool(clearInsightsTool, s.loggedToolHandler("clear_insights", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.textOrError(s.ClearInsights()), nil
	}))
}

// RegisterMCPResources registers the fixed resource set on the MCP server.
func RegisterMCPResources(mcpServer *server.MCPServer, s *SnowflakeMcp) {
	for _, desc := range s.ListResources() {
		uri := desc.URI
		mcpServer.AddResource(mcp.NewResource(uri, desc.Name,
			mcp.WithResourceDescription(desc.Description),
			mcp.WithMIMEType(desc.MIMEType),
		), func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			text, err := s.ReadResource(ctx, req.Params.URI)
			if err != nil {
				s.logger.Error().Err(err).Str("uri", req.Params.URI).Msg("resource read failed")
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      uri,
					MIMEType: desc.MIMEType,
					Text:     text,
				},
			}, nil
		})
	}
}

// textOrError converts a tool method result into a CallToolResult: text on
// success, or an error content block carrying the original message plus a
// remediation hint where the failure is classifiable.
func (s *SnowflakeMcp) textOrError(text string, err error) *mcp.CallToolResult {
	if err != nil {
		return mcp.NewToolResultError(s.diagnose(err))
	}
	return mcp.NewToolResultText(text)
}

// loggedToolHandler wraps a tool handler to log request and response lengths.
func (s *SnowflakeMcp) loggedToolHandler(tool string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqLen := requestLength(req)
		result, err := handler(ctx, req)
		respLen := resultLength(result)
		s.logger.Info().
			Str("tool", tool).
			Int("request_bytes", reqLen).
			Int("response_bytes", respLen).
			Msg("tool call")
		return result, err
	}
}

// requestLength returns the JSON-encoded byte length of the request arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}
