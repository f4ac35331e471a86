// Package errors provides severity-aware error types.
package errors

import "fmt"

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// PipelineError is a structured error with context, used in run reports
// where a plain error string loses the input it belongs to.
type PipelineError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	Input       string   `json:"input,omitempty"`
	Recoverable bool     `json:"recoverable"`
}

func (e *PipelineError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("[%s] %s: %s (input: %s)", e.Severity, e.Code, e.Message, e.Input)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

// Error codes
const (
	ErrCodeUnknownChannel     = "UNKNOWN_CHANNEL"
	ErrCodeStructuralMismatch = "STRUCTURAL_MISMATCH"
	ErrCodeParseFailed        = "PARSE_FAILED"
	ErrCodeDuplicateInput     = "DUPLICATE_INPUT"
	ErrCodeLedgerFailed       = "LEDGER_FAILED"
)

// NewStructuralMismatchError marks a whole file rejected for missing columns.
func NewStructuralMismatchError(input, detail string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeStructuralMismatch,
		Message:     detail,
		Severity:    SeverityError,
		Input:       input,
		Recoverable: false,
	}
}

// NewDuplicateInputNote marks an already-processed input skip; informational.
func NewDuplicateInputNote(input string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeDuplicateInput,
		Message:     "content fingerprint already recorded in ledger",
		Severity:    SeverityInfo,
		Input:       input,
		Recoverable: true,
	}
}
