package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldUserID    = "user_id"
	FieldUsername  = "username"
	FieldID        = "id"
	FieldCategory  = "category"
	FieldType      = "type"
	FieldAmount    = "amount"
	FieldPath      = "path"
	FieldCount     = "count"
)

// Components
const (
	ComponentApp     = "app"
	ComponentAuth    = "auth"
	ComponentStorage = "storage"
	ComponentCLI     = "cli"
)

// Operations
const (
	OpCreate  = "create"
	OpRead    = "read"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpList    = "list"
	OpSummary = "summary"
	OpMigrate = "migrate"
	OpSeed    = "seed"
	OpLogin   = "login"
	OpLogout  = "logout"
)

// Fields provides a builder for structured log fields
type Fields map[string]any

// NewFields creates a new Fields instance
func NewFields() Fields {
	return make(Fields)
}

// WithOperation adds operation field
func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// With adds an arbitrary field
func (f Fields) With(key string, value any) Fields {
	f[key] = value
	return f
}

// ToSlice converts Fields to a key/value slice for slog, sorted by key
func (f Fields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
