package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the command ran but assets failed or were interrupted
	ExitCommandError = 2 // the command could not run: bad flags, project or host image
)

// errorCodes name exit codes in JSON error envelopes.
var errorCodes = map[int]string{
	ExitFailure:      "build_failed",
	ExitCommandError: "command_error",
}

// ExitError ends the process with Code. Message is what the user sees;
// Err, when set, is appended and kept for errors.Is. Reported is set
// when the command already wrote its result, so no error envelope
// follows it.
type ExitError struct {
	Code     int
	Message  string
	Err      error
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that are not an
// ExitError count as failures.
func GetExitCode(err error) int {
	var ee *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee):
		return ee.Code
	default:
		return ExitFailure
	}
}

// OutputFormatter renders command results in the selected --format.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response is the JSON envelope written for every result in json mode.
type Response struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Result writes data. Text mode calls text, or prints data when text is
// nil.
func (f *OutputFormatter) Result(data any, text func(w io.Writer) error) error {
	switch {
	case f.Format == "json":
		return f.encode(Response{Status: "ok", Data: data})
	case text != nil:
		return text(f.Writer)
	default:
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
}

// Error writes a failed result.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format != "json" {
		_, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
		return err
	}
	return f.encode(Response{
		Status: "error",
		Error:  &ResponseError{Code: code, Message: message, Details: details},
	})
}

// ReportError writes err as an error result named after its exit code.
func (f *OutputFormatter) ReportError(err error) error {
	var ee *ExitError
	if !errors.As(err, &ee) {
		return f.Error(errorCodes[ExitFailure], err.Error(), nil)
	}
	var details any
	if ee.Err != nil {
		details = map[string]string{"cause": ee.Err.Error()}
	}
	return f.Error(errorCodes[ee.Code], ee.Message, details)
}

func reported(err *ExitError) *ExitError {
	err.Reported = true
	return err
}

func (f *OutputFormatter) encode(r Response) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
