package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Thomvis/Construct-sub002/internal/compendium"
	"github.com/Thomvis/Construct-sub002/internal/loader"
	"github.com/Thomvis/Construct-sub002/internal/migration"
	"github.com/Thomvis/Construct-sub002/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (rejected metadata change, undecodable record, etc.)
	ExitCommandError = 2 // Command error (bad arguments, database cannot be opened, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeInvalidInput   = "E002" // Bad argument or flag value
	ErrCodeDatabase       = "E003" // Database cannot be opened
	ErrCodeDecode         = "E004" // Stored value cannot be decoded
	ErrCodeInvalidFixture = "E005" // Fixture rejected by the schema

	// Metadata errors
	ErrCodeNotFound       = "E101"
	ErrCodeAlreadyExists  = "E102"
	ErrCodeNotEmpty       = "E103"
	ErrCodeInvalidParent  = "E104"
	ErrCodeProtected      = "E105"
	ErrCodeKeyNotPresent  = "E106" // get/rm of a missing key
	ErrCodeInvalidMigrate = "E107" // Invalid conflict resolution
	ErrCodeInvalidID      = "E108" // Realm, document or item id contains "::"
)

// ErrorCode maps err to a CLI error code.
func ErrorCode(err error) string {
	if code, ok := compendium.IsMetadataError(err); ok {
		switch code {
		case compendium.CodeNotFound:
			return ErrCodeNotFound
		case compendium.CodeAlreadyExists:
			return ErrCodeAlreadyExists
		case compendium.CodeNotEmpty:
			return ErrCodeNotEmpty
		case compendium.CodeInvalidParent:
			return ErrCodeInvalidParent
		case compendium.CodeCannotRelocateProtectedResource:
			return ErrCodeProtected
		case compendium.CodeInvalidID:
			return ErrCodeInvalidID
		}
	}
	var ve *loader.ValidationError
	switch {
	case errors.As(err, &ve):
		return ErrCodeInvalidFixture
	case store.IsDecodeError(err):
		return ErrCodeDecode
	case errors.Is(err, errKeyNotPresent):
		return ErrCodeKeyNotPresent
	case errors.Is(err, migration.ErrInvalidConflictResolution):
		return ErrCodeInvalidMigrate
	}
	if GetExitCode(err) == ExitCommandError {
		return ErrCodeInvalidInput
	}
	return ErrCodeGeneric
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E101", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format. In text
// format data is printed with fmt, so result types implement fmt.Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// errorDetails returns structured context for err, if any.
func errorDetails(err error) any {
	var ve *loader.ValidationError
	if errors.As(err, &ve) {
		return ve.Details
	}
	var me *compendium.MetadataError
	if errors.As(err, &me) && me.Key != "" {
		return map[string]string{"key": me.Key}
	}
	var de *store.DecodeError
	if errors.As(err, &de) {
		return map[string]string{"key": de.Key, "raw": string(de.Raw)}
	}
	return nil
}
