package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("snowflake-mcp-server — Snowflake MCP Server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  snowflake-mcp-server serve      Start the MCP server")
	fmt.Println("  snowflake-mcp-server --help     Show this help message")
	fmt.Println()
	fmt.Println("Configuration is read from the environment (a .env file in the")
	fmt.Println("working directory is loaded if present):")
	fmt.Println()
	fmt.Println("  SNOWFLAKE_ACCOUNT               Account identifier (required)")
	fmt.Println("  SNOWFLAKE_USER                  Username (required)")
	fmt.Println("  SNOWFLAKE_PASSWORD              Password authentication")
	fmt.Println("  SNOWFLAKE_PRIVATE_KEY_PATH      Key-pair authentication (takes precedence)")
	fmt.Println("  SNOWFLAKE_PRIVATE_KEY_PASSPHRASE  Passphrase for an encrypted key")
	fmt.Println("  SNOWFLAKE_ROLE, SNOWFLAKE_WAREHOUSE, SNOWFLAKE_DATABASE, SNOWFLAKE_SCHEMA")
	fmt.Println("  MCP_TRANSPORT                   stdio (default) or http")
	fmt.Println("  MCP_PORT                        HTTP port (default 8000)")
	fmt.Println("  MCP_ALLOW_WRITE                 Enable write_query and create_table")
	fmt.Println("  LOG_LEVEL, LOG_FORMAT, LOG_FILE Logging settings (stderr by default)")
}
