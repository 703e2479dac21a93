package log

import (
	"errors"

	"spendwise/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldReferer       = "referer"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldExpenseID     = "expense_id"
	FieldAmount        = "amount"
	FieldCategory      = "category"
	FieldBudgetType    = "budget_type"
	FieldBillID        = "bill_id"
	FieldBillName      = "bill_name"
	FieldDueDate       = "due_date"
	FieldNotifier      = "notifier"
	FieldAttempt       = "attempt"
	FieldQueue         = "queue"
	FieldSheetsRef     = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentLedger    = "ledger"
	ComponentAnalytics = "analytics"
	ComponentChat      = "chat"
	ComponentReminder  = "reminder"
	ComponentNotify    = "notify"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpUpsert   = "upsert"
	OpAppend   = "append"
	OpPublish  = "publish"
	OpNotify   = "notify"
	OpValidate = "validate"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes mirror core.Kind so log queries and HTTP error bodies agree.
const (
	ErrorTypeValidation    = string(core.KindValidation)
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = string(core.KindStore)
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = string(core.KindAuth)
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeNotFound      = string(core.KindNotFound)
	ErrorTypeConflict      = string(core.KindConflict)
	ErrorTypeNotification  = string(core.KindNotification)
	ErrorTypeInternal      = string(core.KindInternal)
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithUser adds the authenticated user id.
func (f LogFields) WithUser(userID int64) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithError adds the error message and, when known, its kind.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		var ce *core.Error
		if errors.As(err, &ce) {
			f[FieldErrorType] = string(ce.Kind)
		}
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(e core.Expense) LogFields {
	f[FieldExpenseID] = e.ID
	f[FieldUserID] = e.UserID
	f[FieldAmount] = e.Amount.StringFixed(2)
	f[FieldCategory] = string(e.Category)
	return f
}

// WithBill adds bill-related fields
func (f LogFields) WithBill(b core.Bill) LogFields {
	f[FieldBillID] = b.ID
	f[FieldUserID] = b.UserID
	f[FieldBillName] = b.Name
	f[FieldDueDate] = b.DueDate.String()
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
