package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // every request succeeded
	ExitFailure      = 1 // at least one request failed
	ExitCommandError = 2 // bad flags, unreadable files, unreachable services
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Nil is ExitSuccess and
// anything that is not an ExitError is ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Record is one delivered item as printed by the CLI.
type Record struct {
	Seq    int    `json:"seq"`
	ID     string `json:"id"`
	Target string `json:"target"`
	Key    string `json:"key,omitempty"`
	OK     bool   `json:"ok"`
	Value  string `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Printer writes records as text lines or JSON lines.
type Printer struct {
	Format string
	Writer io.Writer
}

// Print writes one record.
func (p *Printer) Print(r Record) error {
	if p.Format == "json" {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.Writer, string(data))
		return err
	}

	status := "ok"
	detail := r.Value
	if !r.OK {
		status = "error"
		detail = r.Error
	}
	_, err := fmt.Fprintf(p.Writer, "%d\t%s\t%s\t%s\n", r.Seq, status, r.Target, detail)
	return err
}
