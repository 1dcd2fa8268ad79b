package sfmcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	sfmcp "github.com/matt-atadata/snowflake-mcp-server"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// stubExecutor satisfies sfmcp.Executor without a warehouse. It records
// statements and replies with a single fixed row.
type stubExecutor struct {
	mu    sync.Mutex
	calls []string
}

func (e *stubExecutor) ExecuteRaw(ctx context.Context, sqlText string) (*sfmcp.RowSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, sqlText)
	return &sfmcp.RowSet{
		Columns: []string{"NAME"},
		Rows:    []map[string]any{{"NAME": "DEMO_DB"}},
	}, nil
}

// mcpTestServer bundles everything needed for an MCP HTTP server test.
type mcpTestServer struct {
	engine     *sfmcp.SnowflakeMcp
	exec       *stubExecutor
	baseURL    string
	httpServer *server.StreamableHTTPServer
}

// startMCPTestServer creates an engine over a stub executor, registers
// tools and resources, and serves MCP over HTTP on a free port.
func startMCPTestServer(t *testing.T, config sfmcp.Config) *mcpTestServer {
	t.Helper()

	exec := &stubExecutor{}
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	engine := sfmcp.New(exec, config, logger)
	t.Cleanup(engine.Close)

	// Find a free port.
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	mcpServer := server.NewMCPServer("snowflake-mcp-server-test", "1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
	)
	sfmcp.RegisterMCPTools(mcpServer, engine)
	sfmcp.RegisterMCPResources(mcpServer, engine)

	addr := fmt.Sprintf(":%d", port)
	mux := http.NewServeMux()
	httpSrv := &http.Server{Addr: addr, Handler: mux}

	streamableServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
		server.WithStreamableHTTPServer(httpSrv),
	)
	mux.Handle("/mcp", streamableServer)

	go func() {
		if err := streamableServer.Start(addr); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	time.Sleep(200 * time.Millisecond)
	t.Cleanup(func() { streamableServer.Shutdown(context.Background()) })

	return &mcpTestServer{
		engine:     engine,
		exec:       exec,
		baseURL:    fmt.Sprintf("http://localhost:%d", port),
		httpServer: streamableServer,
	}
}

// jsonRPC sends a JSON-RPC request to the MCP endpoint and returns the parsed response.
func (s *mcpTestServer) jsonRPC(t *testing.T, method string, params any) map[string]any {
	t.Helper()

	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		reqBody["params"] = params
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	resp, err := http.Post(s.baseURL+"/mcp", "application/json", strings.NewReader(string(bodyBytes)))
	if err != nil {
		t.Fatalf("JSON-RPC request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		t.Fatalf("failed to parse response JSON: %v; body: %s", err, string(respBody))
	}
	return result
}

// listedToolNames extracts the tool names from a tools/list response.
func listedToolNames(t *testing.T, result map[string]any) map[string]bool {
	t.Helper()
	res, ok := result["result"].(map[string]any)
	if !ok {
		t.Fatalf("missing result in response: %v", result)
	}
	tools, ok := res["tools"].([]any)
	if !ok {
		t.Fatalf("missing tools in response: %v", res)
	}
	names := map[string]bool{}
	for _, tool := range tools {
		entry := tool.(map[string]any)
		names[entry["name"].(string)] = true
	}
	return names
}

// callToolText extracts the concatenated text content of a tools/call response.
func callToolText(t *testing.T, result map[string]any) (string, bool) {
	t.Helper()
	res, ok := result["result"].(map[string]any)
	if !ok {
		t.Fatalf("missing result in response: %v", result)
	}
	isError, _ := res["isError"].(bool)
	content, ok := res["content"].([]any)
	if !ok {
		t.Fatalf("missing content in response: %v", res)
	}
	text := ""
	for _, c := range content {
		entry := c.(map[string]any)
		if entry["type"] == "text" {
			text += entry["text"].(string)
		}
	}
	return text, isError
}

func TestMCPServer_WriteToolsHiddenByDefault(t *testing.T) {
	t.Parallel()
	s := startMCPTestServer(t, sfmcp.Config{})

	names := listedToolNames(t, s.jsonRPC(t, "tools/list", nil))
	for _, name := range []string{"read_query", "list_databases", "describe_table", "append_insight"} {
		if !names[name] {
			t.Errorf("expected tool %s to be registered", name)
		}
	}
	for _, name := range []string{"write_query", "create_table"} {
		if names[name] {
			t.Errorf("tool %s must not be registered without write access", name)
		}
	}
}

func TestMCPServer_WriteToolsRegisteredWhenAllowed(t *testing.T) {
	t.Parallel()
	s := startMCPTestServer(t, sfmcp.Config{AllowWrite: true})

	names := listedToolNames(t, s.jsonRPC(t, "tools/list", nil))
	for _, name := range []string{"write_query", "create_table"} {
		if !names[name] {
			t.Errorf("expected tool %s to be registered with write access", name)
		}
	}
}

func TestMCPServer_ReadQueryTool(t *testing.T) {
	t.Parallel()
	s := startMCPTestServer(t, sfmcp.Config{})

	result := s.jsonRPC(t, "tools/call", map[string]any{
		"name": "read_query",
		"arguments": map[string]any{
			"query": "SELECT name FROM demo",
		},
	})
	text, isError := callToolText(t, result)
	if isError {
		t.Fatalf("expected success, got error: %s", text)
	}
	if !strings.Contains(text, "DEMO_DB") {
		t.Errorf("expected stub row in output, got %q", text)
	}
}

func TestMCPServer_ReadQueryRejectsWrite(t *testing.T) {
	t.Parallel()
	s := startMCPTestServer(t, sfmcp.Config{})

	result := s.jsonRPC(t, "tools/call", map[string]any{
		"name": "read_query",
		"arguments": map[string]any{
			"query": "DELETE FROM demo",
		},
	})
	text, isError := callToolText(t, result)
	if !isError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(text, "Only SELECT queries are allowed") {
		t.Errorf("unexpected error text %q", text)
	}

	s.exec.mu.Lock()
	calls := len(s.exec.calls)
	s.exec.mu.Unlock()
	if calls != 0 {
		t.Fatalf("rejected statement must not reach the executor, got %d calls", calls)
	}
}

func TestMCPServer_MissingRequiredArgument(t *testing.T) {
	t.Parallel()
	s := startMCPTestServer(t, sfmcp.Config{})

	result := s.jsonRPC(t, "tools/call", map[string]any{
		"name":      "describe_table",
		"arguments": map[string]any{},
	})
	text, isError := callToolText(t, result)
	if !isError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(text, "table_name") {
		t.Errorf("expected missing-argument message, got %q", text)
	}
}

func TestMCPServer_InsightsRoundTrip(t *testing.T) {
	t.Parallel()
	s := startMCPTestServer(t, sfmcp.Config{})

	result := s.jsonRPC(t, "tools/call", map[string]any{
		"name": "append_insight",
		"arguments": map[string]any{
			"insight":  "most traffic comes from the ORDERS table",
			"category": "usage",
		},
	})
	text, isError := callToolText(t, result)
	if isError {
		t.Fatalf("append_insight failed: %s", text)
	}

	readResult := s.jsonRPC(t, "resources/read", map[string]any{
		"uri": "memo://insights",
	})
	res, ok := readResult["result"].(map[string]any)
	if !ok {
		t.Fatalf("missing result in response: %v", readResult)
	}
	contents, ok := res["contents"].([]any)
	if !ok || len(contents) == 0 {
		t.Fatalf("missing contents in response: %v", res)
	}
	entry := contents[0].(map[string]any)
	body, _ := entry["text"].(string)
	if !strings.Contains(body, "most traffic comes from the ORDERS table") {
		t.Errorf("expected recorded insight in resource, got %q", body)
	}
	if !strings.Contains(body, "[usage]") {
		t.Errorf("expected category label in resource, got %q", body)
	}
}

func TestMCPServer_ResourcesListed(t *testing.T) {
	t.Parallel()
	s := startMCPTestServer(t, sfmcp.Config{})

	result := s.jsonRPC(t, "resources/list", nil)
	res, ok := result["result"].(map[string]any)
	if !ok {
		t.Fatalf("missing result in response: %v", result)
	}
	resources, ok := res["resources"].([]any)
	if !ok {
		t.Fatalf("missing resources in response: %v", res)
	}
	if len(resources) != 5 {
		t.Fatalf("expected 5 resources, got %d", len(resources))
	}
}
