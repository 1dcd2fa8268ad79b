// Package sfmcp exposes a Snowflake warehouse to AI agents through the
// Model Context Protocol (MCP).
//
// It provides query tools (read_query, write_query, create_table), metadata
// tools (list_databases, list_schemas, list_tables, describe_table,
// show_objects, describe_object, get_user_roles, get_query_history,
// get_table_sample), an in-memory insights memo (append_insight,
// clear_insights), and a fixed set of MCP resources for the memo and
// session metadata.
//
// Statements are routed by a shallow first-keyword classifier: read_query
// only accepts SELECT (including WITH), write_query only INSERT, UPDATE, and
// DELETE, and create_table only CREATE, ALTER, and DROP. Write tools are
// disabled unless Config.AllowWrite is set.
//
// # Library Usage
//
//	session, err := sfmcp.Connect(ctx, sfmcp.ConnectionConfigFromEnv(), logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer session.Close()
//
//	engine := sfmcp.New(session, sfmcp.Config{AllowWrite: false}, logger)
//	defer engine.Close()
//
//	// Use directly
//	text, err := engine.ReadQuery(ctx, "SELECT * FROM orders LIMIT 10")
//
//	// Or register on an MCP server
//	sfmcp.RegisterMCPTools(mcpServer, engine)
//	sfmcp.RegisterMCPResources(mcpServer, engine)
//
// All statements run on a single serialized connection, so the Snowflake
// session state (USE DATABASE, USE ROLE, session parameters) is shared and
// consistent across tool calls.
package sfmcp
