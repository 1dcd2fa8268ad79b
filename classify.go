package sfmcp

import "strings"

// StatementClass is the coarse category of a SQL statement, derived from its
// leading keyword. It exists for tool policy routing only — this is a lexical
// check, deliberately not a SQL parser.
type StatementClass int

const (
	StatementUnknown StatementClass = iota
	StatementSelect
	StatementInsert
	StatementUpdate
	StatementDelete
	StatementCreate
	StatementAlter
	StatementDrop
	StatementMerge
	StatementTruncate
	StatementShow
	StatementDescribe
)

// String returns the canonical uppercase keyword for the class.
func (c StatementClass) String() string {
	switch c {
	case StatementSelect:
		return "SELECT"
	case StatementInsert:
		return "INSERT"
	case StatementUpdate:
		return "UPDATE"
	case StatementDelete:
		return "DELETE"
	case StatementCreate:
		return "CREATE"
	case StatementAlter:
		return "ALTER"
	case StatementDrop:
		return "DROP"
	case StatementMerge:
		return "MERGE"
	case StatementTruncate:
		return "TRUNCATE"
	case StatementShow:
		return "SHOW"
	case StatementDescribe:
		return "DESCRIBE"
	default:
		return "UNKNOWN"
	}
}

var keywordClasses = map[string]StatementClass{
	"SELECT":   StatementSelect,
	"INSERT":   StatementInsert,
	"UPDATE":   StatementUpdate,
	"DELETE":   StatementDelete,
	"CREATE":   StatementCreate,
	"ALTER":    StatementAlter,
	"DROP":     StatementDrop,
	"MERGE":    StatementMerge,
	"TRUNCATE": StatementTruncate,
	"SHOW":     StatementShow,
	"DESCRIBE": StatementDescribe,
	"DESC":     StatementDescribe,
	// CTE-prefixed read queries classify as SELECT so they remain eligible
	// for read_query. Snowflake requires WITH to be followed by a SELECT.
	"WITH": StatementSelect,
}

// Classify returns the StatementClass of sql by inspecting its first keyword,
// case-insensitively, after trimming whitespace, leading comments, and
// opening parentheses.
// Unrecognized or empty input returns StatementUnknown.
func Classify(sql string) StatementClass {
	s := stripLeadingComments(sql)
	if s == "" {
		return StatementUnknown
	}
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == ';' || r == '/' || r == '-'
	})
	word := s
	if end >= 0 {
		word = s[:end]
	}
	if class, ok := keywordClasses[strings.ToUpper(word)]; ok {
		return class
	}
	return StatementUnknown
}

// stripLeadingComments removes whitespace, line comments (-- ...), block
// comments (/* ... */), and opening parentheses from the start of sql.
func stripLeadingComments(sql string) string {
	s := strings.TrimSpace(sql)
	for {
		switch {
		case strings.HasPrefix(s, "--"):
			idx := strings.IndexByte(s, '\n')
			if idx < 0 {
				return ""
			}
			s = strings.TrimSpace(s[idx+1:])
		case strings.HasPrefix(s, "/*"):
			idx := strings.Index(s, "*/")
			if idx < 0 {
				return ""
			}
			s = strings.TrimSpace(s[idx+2:])
		case strings.HasPrefix(s, "("):
			// Parenthesized queries, e.g. set operands: (SELECT ...) UNION ...
			s = strings.TrimSpace(s[1:])
		default:
			return s
		}
	}
}
