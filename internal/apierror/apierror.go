// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation error", Fields: fields}
}

// BatchError carries one message per failing line of a batch operation
// (deductions, reversals). Batches are all-or-nothing, so this envelope always
// means nothing was applied.
type BatchError struct {
	Detail string   `json:"detail"`
	Lines  []string `json:"lines"`
}

func NewBatch(detail string, lines []string) *BatchError {
	return &BatchError{Detail: detail, Lines: lines}
}
