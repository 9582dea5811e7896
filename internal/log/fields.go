package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldCategory      = "category"
	FieldMonth         = "month"
	FieldAmount        = "amount"
	FieldAlertID       = "alert_id"
	FieldAlertKind     = "alert_kind"
	FieldTrigger       = "trigger"
	FieldSessionID     = "session_id"
	FieldRowsSkipped   = "rows_skipped"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentCategorizer = "categorizer"
	ComponentAnalytics   = "analytics"
	ComponentAlerts      = "alerts"
	ComponentAdvisor     = "advisor"
	ComponentIngest      = "ingest"
	ComponentNotify      = "notify"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentBackend     = "backend"
	ComponentCLI         = "cli"
)

// Operations defines standard operation names
const (
	OpImport       = "import"
	OpRecategorize = "recategorize"
	OpStartup      = "startup"
	OpShutdown     = "shutdown"
	OpDeliver      = "deliver"
	OpMigrate      = "migrate"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError is a no-op for nil errors.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithTransaction(id, category string) LogFields {
	f[FieldTransactionID] = id
	if category != "" {
		f[FieldCategory] = category
	}
	return f
}

func (f LogFields) WithAlert(id, kind string) LogFields {
	f[FieldAlertID] = id
	f[FieldAlertKind] = kind
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to slog key-value pairs, sorted by key.
func (f LogFields) ToSlice() []any {
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
