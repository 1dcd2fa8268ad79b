package sfmcp

// RowSet is the uniform result of executing a statement through the Session.
// Row-returning statements populate Columns and Rows; DML and DDL statements
// populate RowsAffected.
type RowSet struct {
	Columns      []string         `json:"columns,omitempty"`
	Rows         []map[string]any `json:"rows,omitempty"`
	RowsAffected int64            `json:"rows_affected,omitempty"`
}

// WriteResult is the serialized output shape for write_query.
type WriteResult struct {
	AffectedRows int64 `json:"affected_rows"`
}

// DDLResult is the serialized output shape for create_table and other DDL.
type DDLResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ResourceDescriptor describes one URI-addressable resource exposed by the
// server. The set is fixed and statically known.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mime_type"`
}
