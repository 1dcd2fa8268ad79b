package sfmcp

import "fmt"

// ConfigurationError indicates missing or contradictory startup configuration.
// It is fatal: the CLI logs it and exits non-zero.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// AuthenticationError indicates invalid or unreadable credential material
// (bad password, unreadable private key file, unparseable key). Fatal at
// startup; recoverable at runtime via Session.Reconnect once credentials
// are fixed.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication error: %s: %v", e.Reason, e.Err)
	}
	return "authentication error: " + e.Reason
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// ValidationError indicates malformed or policy-violating tool arguments,
// such as the wrong statement class for a tool or a missing required field.
// Always caught at the dispatcher boundary.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("%s: %s", e.Tool, e.Reason)
	}
	return e.Reason
}

// NotFoundError indicates an unknown resource URI or tool name.
type NotFoundError struct {
	URI string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown resource URI: %s", e.URI)
}

// ExecutionError wraps an error returned by Snowflake for a synthesized or
// raw statement (syntax error, missing object, insufficient privileges).
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
