package models

import (
	"fmt"
	"sort"

	"github.com/toyz/ngmod/internal/errors"
)

// Severity grades a diagnostic
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	// SeverityFatal aborts the current pass
	SeverityFatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
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

// Diagnostic is a file-addressable record delivered to the diagnostics sink
type Diagnostic struct {
	FilePath string
	Message  string
	Severity Severity
	Code     errors.ErrorCode
}

// String renders the diagnostic on one line
func (d Diagnostic) String() string {
	if d.FilePath == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.FilePath, d.Severity, d.Message)
}

// NewDiagnostic builds a diagnostic from a typed error
func NewDiagnostic(err errors.NgmodError, severity Severity) Diagnostic {
	msg := err.Error()
	if be, ok := err.(*errors.BaseError); ok {
		msg = be.Message
		if be.Loc.Symbol != "" {
			msg = be.Loc.Symbol + ": " + msg
		}
		if be.Cause != nil {
			msg = fmt.Sprintf("%s: %v", msg, be.Cause)
		}
	}
	return Diagnostic{
		FilePath: err.Location().File,
		Message:  msg,
		Severity: severity,
		Code:     err.ErrorCode(),
	}
}

// Diagnostics accumulates the records of one pass
type Diagnostics []Diagnostic

// Add appends a diagnostic built from err
func (d *Diagnostics) Add(err errors.NgmodError, severity Severity) {
	*d = append(*d, NewDiagnostic(err, severity))
}

// HasFatal reports whether any record aborts the pass
func (d Diagnostics) HasFatal() bool {
	for _, diag := range d {
		if diag.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Count returns the number of records at the given severity
func (d Diagnostics) Count(severity Severity) int {
	n := 0
	for _, diag := range d {
		if diag.Severity == severity {
			n++
		}
	}
	return n
}

// Sorted returns a copy ordered by file path, then severity, then message
func (d Diagnostics) Sorted() Diagnostics {
	out := append(Diagnostics(nil), d...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].Message < out[j].Message
	})
	return out
}
