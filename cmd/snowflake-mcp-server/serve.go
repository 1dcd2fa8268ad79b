package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	sfmcp "github.com/matt-atadata/snowflake-mcp-server"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const serverVersion = "1.0.0"

func runServe() error {
	ctx := context.Background()

	// Best effort: running without a .env file is normal in container
	// deployments where the environment is injected directly.
	_ = godotenv.Load()

	serverConfig := sfmcp.ServerConfigFromEnv()

	// 1. Setup logger. Never stdout by default: on the stdio transport
	// stdout carries the JSON-RPC stream.
	logger := setupLogger(serverConfig.Logging)

	// 2. Fill in credentials interactively when nothing was configured and
	// we are attached to a terminal.
	if serverConfig.Connection.Password == "" && serverConfig.Connection.PrivateKeyPath == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		if serverConfig.Connection.User == "" {
			serverConfig.Connection.User = promptInput("Username: ")
		}
		serverConfig.Connection.Password = promptPassword("Password: ")
	}

	// 3. Connect to Snowflake.
	session, err := sfmcp.Connect(ctx, serverConfig.Connection, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to Snowflake")
		return fmt.Errorf("failed to connect to Snowflake: %w", err)
	}
	defer session.Close()

	// 4. Create the engine.
	engine := sfmcp.New(session, serverConfig.Config, logger)
	defer engine.Close()

	// 5. Create MCP server with initialize lifecycle logging.
	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, result *mcp.InitializeResult) {
		logger.Info().
			Str("client_name", req.Params.ClientInfo.Name).
			Str("client_version", req.Params.ClientInfo.Version).
			Msg("AI agent connected (MCP initialize)")
	})

	mcpServer := server.NewMCPServer("snowflake-mcp-server", serverVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithHooks(hooks),
	)

	sfmcp.RegisterMCPTools(mcpServer, engine)
	sfmcp.RegisterMCPResources(mcpServer, engine)

	switch serverConfig.Server.Transport {
	case "stdio", "":
		logger.Info().Msg("starting snowflake-mcp-server on stdio")
		return server.ServeStdio(mcpServer)
	case "http":
		return serveHTTP(mcpServer, serverConfig.Server, logger)
	default:
		return fmt.Errorf("unknown transport %q: expected stdio or http", serverConfig.Server.Transport)
	}
}

func serveHTTP(mcpServer *server.MCPServer, settings sfmcp.ServerSettings, logger zerolog.Logger) error {
	if settings.Port <= 0 {
		return fmt.Errorf("MCP_PORT must be > 0, got %d", settings.Port)
	}

	addr := fmt.Sprintf(":%d", settings.Port)
	mux := http.NewServeMux()

	// Health check endpoint (process liveness only, not warehouse connectivity).
	if settings.HealthCheckEnabled {
		mux.HandleFunc(settings.HealthCheckPath, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
	}

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	streamableServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
		server.WithStreamableHTTPServer(httpSrv),
	)

	// Manually register the MCP handler — Start() does NOT register
	// when a custom *http.Server is provided via WithStreamableHTTPServer.
	mux.Handle("/mcp", streamableServer)

	logger.Info().Int("port", settings.Port).Msg("starting snowflake-mcp-server on http")
	return streamableServer.Start(addr)
}

func setupLogger(config sfmcp.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(config.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output io.Writer = os.Stderr
	if config.Output != "" && config.Output != "stderr" {
		f, err := os.OpenFile(config.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			output = f
		}
	}

	if config.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func promptInput(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	var input string
	fmt.Scanln(&input)
	return input
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(password)
}
