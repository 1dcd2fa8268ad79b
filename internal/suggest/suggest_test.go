package suggest

import (
	"strings"
	"testing"
)

func TestMatch_KnownFragments(t *testing.T) {
	t.Parallel()
	m := NewMatcher(DefaultRules)
	cases := []struct {
		errMsg   string
		wantPart string
	}{
		{"SQL compilation error: Object 'FOO' does not exist or not authorized.", "fully qualified"},
		{"Insufficient privileges to operate on table 'BAR'", "active role"},
		{"syntax error line 1 at position 7 unexpected 'FORM'", "SQL syntax"},
		{"No active warehouse selected in the current session", "SNOWFLAKE_WAREHOUSE"},
	}
	for _, tc := range cases {
		hint := m.Match(tc.errMsg)
		if hint == "" {
			t.Errorf("Match(%q) returned no hint", tc.errMsg)
			continue
		}
		if !strings.Contains(hint, tc.wantPart) {
			t.Errorf("Match(%q) = %q, want hint containing %q", tc.errMsg, hint, tc.wantPart)
		}
	}
}

func TestMatch_FirstRuleWins(t *testing.T) {
	t.Parallel()
	m := NewMatcher([]Rule{
		{"does not exist", "first"},
		{"does not exist", "second"},
	})
	if got := m.Match("table does not exist"); got != "first" {
		t.Fatalf("expected first matching rule, got %q", got)
	}
}

func TestMatch_CaseInsensitive(t *testing.T) {
	t.Parallel()
	m := NewMatcher(DefaultRules)
	if m.Match("SYNTAX ERROR AT POSITION 3") == "" {
		t.Fatal("matching should be case-insensitive")
	}
}

func TestMatch_NoMatch(t *testing.T) {
	t.Parallel()
	m := NewMatcher(DefaultRules)
	if got := m.Match("some totally novel failure"); got != "" {
		t.Fatalf("expected empty hint for unknown error, got %q", got)
	}
}
