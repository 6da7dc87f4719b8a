// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
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
	ErrCodeClientNotFound      ErrorCode = "CLIENT_NOT_FOUND"
	ErrCodeInvalidCreditReport ErrorCode = "INVALID_CREDIT_REPORT"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"

	ErrCodeRecordLookupFailed       ErrorCode = "RECORD_LOOKUP_FAILED"
	ErrCodeAnalysisPersistFailed    ErrorCode = "ANALYSIS_PERSIST_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeEconomicDataUnavailable ErrorCode = "ECONOMIC_DATA_UNAVAILABLE"
	ErrCodeScoringModelInvalid     ErrorCode = "SCORING_MODEL_INVALID"

	ErrCodeAnalysisNotFound    ErrorCode = "ANALYSIS_NOT_FOUND"
	ErrCodeAnalysisIndexFailed ErrorCode = "ANALYSIS_INDEX_FAILED"

	ErrCodeRiskAlertSendFailed ErrorCode = "RISK_ALERT_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// AsStandardError finds a StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
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
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewClientNotFoundError(clientID string) *StandardError {
	return newError(ErrCodeClientNotFound, "Client credit record not found",
		fmt.Sprintf("clientId: %s", clientID), false, nil)
}

// NewInvalidCreditReportError is raised when a supplied report fails schema validation.
func NewInvalidCreditReportError(details string) *StandardError {
	return newError(ErrCodeInvalidCreditReport, "Credit report failed validation", details, false, nil)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

func NewRecordLookupFailedError(clientID string, err error) *StandardError {
	return newError(ErrCodeRecordLookupFailed, "Client record lookup failed",
		fmt.Sprintf("clientId: %s, error: %s", clientID, err.Error()), true, err)
}

func NewAnalysisPersistFailedError(clientID string, err error) *StandardError {
	return newError(ErrCodeAnalysisPersistFailed, "Analysis could not be persisted",
		fmt.Sprintf("clientId: %s, error: %s", clientID, err.Error()), true, err)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

func NewQueryTimeoutError(operation string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout",
		fmt.Sprintf("operation: %s", operation), true, nil)
}

func NewEconomicDataUnavailableError(err error) *StandardError {
	return newError(ErrCodeEconomicDataUnavailable, "Economic data unavailable", err.Error(), true, err)
}

// NewScoringModelInvalidError reports a model table that failed validation at startup.
func NewScoringModelInvalidError(err error) *StandardError {
	return newError(ErrCodeScoringModelInvalid, "Scoring model is invalid", err.Error(), false, err)
}

func NewAnalysisNotFoundError(clientID string) *StandardError {
	return newError(ErrCodeAnalysisNotFound, "No stored analysis for client",
		fmt.Sprintf("clientId: %s", clientID), false, nil)
}

func NewAnalysisIndexFailedError(clientID string, err error) *StandardError {
	return newError(ErrCodeAnalysisIndexFailed, "Analysis indexing failed",
		fmt.Sprintf("clientId: %s, error: %s", clientID, err.Error()), true, err)
}

func NewRiskAlertSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeRiskAlertSendFailed, "Risk alert delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRecordLookupFailed,
		ErrCodeAnalysisPersistFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeAnalysisIndexFailed,
		ErrCodeRiskAlertSendFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeEconomicDataUnavailable:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda. BPMN codes equal the
// internal codes.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") ||
		strings.Contains(codeStr, "RECORD") || strings.Contains(codeStr, "PERSIST"):
		return "STORAGE"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "ECONOMIC") || strings.Contains(codeStr, "SCORING"):
		return "ANALYSIS"
	case strings.Contains(codeStr, "ALERT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "NOT_FOUND"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
