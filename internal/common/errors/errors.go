// internal/common/errors/errors.go

// Package errors provides standardized error handling for the notification
// dispatcher, including conversion to BPMN errors for the queue transport.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeEnrichmentFailed   ErrorCode = "ENRICHMENT_FAILED"
	ErrCodeGatewayNotFound    ErrorCode = "GATEWAY_NOT_FOUND"
	ErrCodeGatewayUnavailable ErrorCode = "GATEWAY_UNAVAILABLE"

	ErrCodeCalendarBuildFailed ErrorCode = "CALENDAR_BUILD_FAILED"

	ErrCodeTemplateNotFound  ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeCatalogIncomplete ErrorCode = "CATALOG_INCOMPLETE"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeEventParseFailed ErrorCode = "EVENT_PARSE_FAILED"
	ErrCodeEventDuplicate   ErrorCode = "EVENT_DUPLICATE"

	ErrCodeAuditWriteFailed ErrorCode = "AUDIT_WRITE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewEnrichmentFailedError wraps a gateway failure that aborts event processing.
// Retry is the transport's concern, so the error stays retryable for the job.
func NewEnrichmentFailedError(eventType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEnrichmentFailed,
		Message:   "Directory gateway could not supply required records",
		Details:   fmt.Sprintf("eventType: %s, error: %s", eventType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGatewayNotFoundError creates a non-retryable missing-record error.
func NewGatewayNotFoundError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayNotFound,
		Message:   "Record not found in directory gateway",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGatewayUnavailableError creates a retryable gateway transport error.
func NewGatewayUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayUnavailable,
		Message:   "Directory gateway unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCalendarBuildFailedError creates a non-retryable calendar serialization error.
// The same input will fail the same way, so retrying is pointless.
func NewCalendarBuildFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCalendarBuildFailed,
		Message:   "Calendar attachment could not be built",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(templateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found in catalog",
		Details:   fmt.Sprintf("templateId: %s", templateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogIncompleteError reports templates the resolver can emit but the
// catalog does not carry. Raised at startup, before any job is accepted.
func NewCatalogIncompleteError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogIncomplete,
		Message:   "Template catalog is missing required templates",
		Details:   fmt.Sprintf("missing: %s", strings.Join(missing, ", ")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(templateID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("templateId: %s, error: %s", templateID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventParseFailedError creates a non-retryable envelope parse error.
func NewEventParseFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventParseFailed,
		Message:   "Inbound event envelope could not be parsed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventDuplicateError marks an already-processed event. Not a failure in
// the dispatch sense; callers record it and complete the job.
func NewEventDuplicateError(eventID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventDuplicate,
		Message:   "Event already processed",
		Details:   fmt.Sprintf("eventId: %s", eventID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditWriteFailedError creates a retryable audit persistence error.
func NewAuditWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditWriteFailed,
		Message:   "Audit record could not be written",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeEnrichmentFailed:       "ENRICHMENT_FAILED",
	ErrCodeGatewayNotFound:        "GATEWAY_NOT_FOUND",
	ErrCodeGatewayUnavailable:     "GATEWAY_UNAVAILABLE",
	ErrCodeCalendarBuildFailed:    "CALENDAR_BUILD_FAILED",
	ErrCodeTemplateNotFound:       "TEMPLATE_NOT_FOUND",
	ErrCodeCatalogIncomplete:      "CATALOG_INCOMPLETE",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeEventParseFailed:       "EVENT_PARSE_FAILED",
	ErrCodeEventDuplicate:         "EVENT_DUPLICATE",
	ErrCodeAuditWriteFailed:       "AUDIT_WRITE_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeEnrichmentFailed,
		ErrCodeGatewayUnavailable,
		ErrCodeNotificationSendFailed,
		ErrCodeAuditWriteFailed:
		return 3 // Retryable technical errors

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// CodeOf extracts the ErrorCode of err when it is a StandardError.
func CodeOf(err error) (ErrorCode, bool) {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code, true
	}
	return "", false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "GATEWAY") || strings.Contains(codeStr, "ENRICHMENT"):
		return "GATEWAY"
	case strings.Contains(codeStr, "TEMPLATE") || strings.Contains(codeStr, "CATALOG"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "CALENDAR"):
		return "CALENDAR"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "EVENT"):
		return "EVENT"
	case strings.Contains(codeStr, "AUDIT"):
		return "AUDIT"
	default:
		return "OTHER"
	}
}
