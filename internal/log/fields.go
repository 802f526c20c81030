package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldRecordID   = "record_id"
	FieldRecordType = "record_type"
	FieldCategory   = "category"
	FieldImportMode = "import_mode"
	FieldImported   = "imported"
	FieldRejected   = "rejected"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentInventory = "inventory"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentBackup    = "backup"
	ComponentScheduler = "scheduler"
	ComponentCLI       = "cli"
	ComponentSecurity  = "security"
)

// Operations defines standard operation names
const (
	OpCreate = "create"
	OpRead   = "read"
	OpUpdate = "update"
	OpDelete = "delete"
	OpList   = "list"
	OpImport = "import"
	OpExport = "export"
	OpSync   = "sync"
	OpRender = "render"
)

// Fields is an ordered builder for structured log attributes.
type Fields struct {
	kv []any
}

// NewFields creates an empty field set.
func NewFields() *Fields {
	return &Fields{}
}

func (f *Fields) add(key string, value any) *Fields {
	f.kv = append(f.kv, key, value)
	return f
}

func (f *Fields) WithComponent(component string) *Fields {
	return f.add(FieldComponent, component)
}

func (f *Fields) WithRequestID(requestID string) *Fields {
	return f.add(FieldRequestID, requestID)
}

func (f *Fields) WithClientIP(ip string) *Fields {
	return f.add(FieldClientIP, ip)
}

// WithError adds the error message; nil errors are skipped.
func (f *Fields) WithError(err error) *Fields {
	if err == nil {
		return f
	}
	return f.add(FieldError, err.Error())
}

func (f *Fields) WithOperation(op string) *Fields {
	return f.add(FieldOperation, op)
}

// WithRecord adds the identifying fields of a record.
func (f *Fields) WithRecord(id, recordType, category string) *Fields {
	return f.add(FieldRecordID, id).
		add(FieldRecordType, recordType).
		add(FieldCategory, category)
}

// WithImport adds the outcome of a bulk import.
func (f *Fields) WithImport(mode string, imported, rejected int) *Fields {
	return f.add(FieldImportMode, mode).
		add(FieldImported, imported).
		add(FieldRejected, rejected)
}

// WithHTTPRequest adds HTTP request fields. Empty query and user agent are
// left out.
func (f *Fields) WithHTTPRequest(method, path, query, userAgent string) *Fields {
	f.add(FieldMethod, method).add(FieldPath, path)
	if query != "" {
		f.add(FieldQuery, query)
	}
	if userAgent != "" {
		f.add(FieldUserAgent, userAgent)
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f *Fields) WithHTTPResponse(statusCode int, durationMs int64) *Fields {
	return f.add(FieldStatusCode, statusCode).
		add(FieldDuration, durationMs).
		add(FieldSuccess, statusCode < 400)
}

// ToSlice returns the key/value pairs in insertion order for slog.
func (f *Fields) ToSlice() []any {
	return append([]any(nil), f.kv...)
}
