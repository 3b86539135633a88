package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// jsonOutput is set by --json. Every command then prints exactly one
// Response (watch prints one per pass).
var jsonOutput bool

// Response is the envelope agents and scripts parse.
type Response struct {
	OK       bool        `json:"ok"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Warnings []Warning   `json:"warnings,omitempty"`
	Meta     *Meta       `json:"meta,omitempty"`
}

// ErrorInfo describes a failed command. Code is one of the Err* constants.
// Details carries partial results, such as the directories a failed
// generation pass had already created.
type ErrorInfo struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Warning is a non-fatal finding; Code is one of the Warn* constants.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	Count int `json:"count,omitempty"`
}

func isJSONOutput() bool { return jsonOutput }

func writeResponse(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}

func outputSuccess(data interface{}, meta *Meta) {
	writeResponse(os.Stdout, Response{OK: true, Data: data, Meta: meta})
}

func outputSuccessWithWarnings(data interface{}, warnings []Warning, meta *Meta) {
	writeResponse(os.Stdout, Response{OK: true, Data: data, Warnings: warnings, Meta: meta})
}

func outputError(code, message string, details interface{}, suggestion string) {
	writeResponse(os.Stdout, Response{Error: &ErrorInfo{
		Code:       code,
		Message:    message,
		Details:    details,
		Suggestion: suggestion,
	}})
}

// handleError reports err. With --json it prints the error envelope and
// returns nil so cobra stays quiet; otherwise it returns err with the
// suggestion appended.
func handleError(code string, err error, suggestion string) error {
	return handleErrorWithDetails(code, err, suggestion, nil)
}

func handleErrorMsg(code, message, suggestion string) error {
	return handleError(code, fmt.Errorf("%s", message), suggestion)
}

// handleErrorWithDetails is handleError with a partial result attached to the
// JSON envelope.
func handleErrorWithDetails(code string, err error, suggestion string, details interface{}) error {
	if jsonOutput {
		outputError(code, err.Error(), details, suggestion)
		return nil
	}
	if suggestion == "" {
		return err
	}
	return fmt.Errorf("%w\n\n%s", err, suggestion)
}
