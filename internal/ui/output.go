package ui

import "fmt"

// Status symbols. Outcomes are marked with symbols, never with color.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
)

func Success(msg string) string { return SymbolSuccess + " " + msg }

func Successf(format string, args ...interface{}) string {
	return Success(fmt.Sprintf(format, args...))
}

func Error(msg string) string { return SymbolError + " " + msg }

func Errorf(format string, args ...interface{}) string {
	return Error(fmt.Sprintf(format, args...))
}

func Warning(msg string) string { return SymbolWarning + " " + msg }

func Warningf(format string, args ...interface{}) string {
	return Warning(fmt.Sprintf(format, args...))
}

// Header renders a section header.
func Header(msg string) string {
	return Bold.Render(msg)
}

// FilePath renders a path (canonical file or generated directory).
func FilePath(path string) string {
	return Accent.Render(path)
}

// LineNum renders a canonical-source line number.
func LineNum(n int) string {
	return Muted.Render(fmt.Sprintf("%4d", n))
}

func Hint(msg string) string {
	return Muted.Render(msg)
}

// Count renders "1 line" or "3 lines".
func Count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// ErrorWarningCounts renders "(3 errors, 2 warnings)", omitting a zero side.
func ErrorWarningCounts(errors, warnings int) string {
	switch {
	case errors > 0 && warnings > 0:
		return fmt.Sprintf("(%s, %s)", Count(errors, "error", "errors"), Count(warnings, "warning", "warnings"))
	case errors > 0:
		return "(" + Count(errors, "error", "errors") + ")"
	default:
		return "(" + Count(warnings, "warning", "warnings") + ")"
	}
}
