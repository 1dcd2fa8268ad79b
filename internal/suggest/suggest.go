// Package suggest maps database error text to one-line remediation hints.
// Matching is heuristic: case-insensitive substring checks against known
// Snowflake failure phrases, checked top to bottom, first match wins.
package suggest

import "strings"

// Rule pairs an error-text fragment with a remediation hint.
type Rule struct {
	Fragment string
	Hint     string
}

// DefaultRules covers the common classes of Snowflake rejections.
var DefaultRules = []Rule{
	{"insufficient privileges", "Check that the active role has been granted access to this object, or switch roles."},
	{"permission", "Check that the active role has been granted access to this object, or switch roles."},
	{"does not exist or not authorized", "Verify the object name (database.schema.table) and that the active role can see it."},
	{"does not exist", "Verify the object name and use a fully qualified database.schema.table identifier."},
	{"syntax error", "Check the SQL syntax near the position reported in the error."},
	{"no active warehouse", "Set SNOWFLAKE_WAREHOUSE or run the query with a warehouse that the role can use."},
	{"authentication", "Verify the Snowflake credentials and reconnect."},
	{"statement reached its statement or warehouse timeout", "The query timed out; add filters or limits to reduce the work."},
	{"cannot perform operation", "This operation may not be allowed on this object type in the current context."},
}

// Matcher resolves error messages to hints.
type Matcher struct {
	rules []Rule
}

// NewMatcher creates a Matcher from the given rules. Pass DefaultRules, or
// append custom rules after them — earlier rules win.
func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{rules: rules}
}

// Match returns the hint for the first rule whose fragment occurs in errMsg,
// case-insensitively, or "" when no rule matches.
func (m *Matcher) Match(errMsg string) string {
	lower := strings.ToLower(errMsg)
	for _, r := range m.rules {
		if strings.Contains(lower, strings.ToLower(r.Fragment)) {
			return r.Hint
		}
	}
	return ""
}
