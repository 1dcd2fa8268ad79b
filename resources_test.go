package sfmcp

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestListResources_FixedSet(t *testing.T) {
	t.Parallel()
	s := newTestEngine(&fakeExecutor{}, Config{})

	descriptors := s.ListResources()
	if len(descriptors) != 5 {
		t.Fatalf("expected 5 resources, got %d", len(descriptors))
	}

	seen := map[string]bool{}
	for _, d := range descriptors {
		if d.URI == "" || d.Name == "" || d.Description == "" || d.MIMEType == "" {
			t.Errorf("incomplete descriptor: %+v", d)
		}
		seen[d.URI] = true
	}
	for _, uri := range []string{ResourceInsights, ResourceDatabases, ResourceSchemas, ResourceTables, ResourceUserInfo} {
		if !seen[uri] {
			t.Errorf("missing resource %s", uri)
		}
	}
}

func TestReadResource_UnknownURI(t *testing.T) {
	t.Parallel()
	exec := &fakeExecutor{}
	s := newTestEngine(exec, Config{})

	_, err := s.ReadResource(context.Background(), "snowflake://metadata/nope")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %T", err)
	}
	if !strings.Contains(err.Error(), "snowflake://metadata/nope") {
		t.Errorf("error must name the URI, got %q", err.Error())
	}
	if len(exec.calls) != 0 {
		t.Fatal("unknown URI must not reach the executor")
	}
}

func TestReadResource_InsightsEmptyAndFilled(t *testing.T) {
	t.Parallel()
	s := newTestEngine(&fakeExecutor{}, Config{})

	out, err := s.ReadResource(context.Background(), ResourceInsights)
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	if out != InsightsEmptyMarker {
		t.Errorf("expected empty marker, got %q", out)
	}

	if _, err := s.AppendInsight("revenue dips on Mondays", "seasonality"); err != nil {
		t.Fatal(err)
	}
	out, err = s.ReadResource(context.Background(), ResourceInsights)
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	if !strings.Contains(out, "revenue dips on Mondays") {
		t.Errorf("expected recorded insight, got %q", out)
	}
	if !strings.Contains(out, "[seasonality]") {
		t.Errorf("expected category label, got %q", out)
	}
}

func TestReadResource_MetadataStatements(t *testing.T) {
	t.Parallel()
	exec := &fakeExecutor{}
	s := newTestEngine(exec, Config{})

	tests := []struct {
		uri  string
		want string
	}{
		{ResourceDatabases, "SHOW DATABASES"},
		{ResourceSchemas, "SHOW SCHEMAS"},
		{ResourceTables, "SHOW TABLES"},
	}
	for _, tt := range tests {
		if _, err := s.ReadResource(context.Background(), tt.uri); err != nil {
			t.Fatalf("ReadResource(%s) failed: %v", tt.uri, err)
		}
		if exec.lastSQL() != tt.want {
			t.Errorf("ReadResource(%s) executed %q, want %q", tt.uri, exec.lastSQL(), tt.want)
		}
	}
}

func TestReadResource_UserInfoQueriesSessionFunctions(t *testing.T) {
	t.Parallel()
	exec := &fakeExecutor{}
	s := newTestEngine(exec, Config{})

	if _, err := s.ReadResource(context.Background(), ResourceUserInfo); err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	sql := exec.lastSQL()
	for _, fn := range []string{"CURRENT_USER()", "CURRENT_ROLE()", "CURRENT_WAREHOUSE()", "CURRENT_DATABASE()", "CURRENT_SCHEMA()", "CURRENT_ACCOUNT()"} {
		if !strings.Contains(sql, fn) {
			t.Errorf("expected %s in statement, got %q", fn, sql)
		}
	}
}

func TestReadResource_MetadataFailureSurfaced(t *testing.T) {
	t.Parallel()
	exec := &fakeExecutor{err: errors.New("390114 (08001): Authentication token has expired")}
	s := newTestEngine(exec, Config{})

	_, err := s.ReadResource(context.Background(), ResourceDatabases)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Authentication token has expired") {
		t.Errorf("original error must be preserved, got %q", err.Error())
	}
}
