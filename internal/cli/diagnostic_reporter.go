package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/models"
)

// DiagnosticReporter prints pass diagnostics and command failures
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
}

// NewDiagnosticReporter creates a reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{verbose: verbose, out: os.Stderr}
}

// NewDiagnosticReporterTo creates a reporter writing to out
func NewDiagnosticReporterTo(verbose bool, out io.Writer) *DiagnosticReporter {
	return &DiagnosticReporter{verbose: verbose, out: out}
}

// ReportDiagnostics prints the records of one pass, one per line, ordered by
// file. Warnings are only printed in verbose mode.
func (r *DiagnosticReporter) ReportDiagnostics(diags models.Diagnostics) {
	for _, d := range diags.Sorted() {
		if d.Severity == models.SeverityWarning && !r.verbose {
			continue
		}
		r.severityColor(d.Severity).Fprintf(r.out, "%s ", strings.ToUpper(d.Severity.String()))
		if d.FilePath != "" {
			fmt.Fprintf(r.out, "%s: ", d.FilePath)
		}
		fmt.Fprintf(r.out, "%s\n", d.Message)
	}
	if hidden := diags.Count(models.SeverityWarning); hidden > 0 && !r.verbose {
		fmt.Fprintf(r.out, "%d warning(s) hidden, run with --verbose to show them\n", hidden)
	}
}

// ReportWarning prints a single warning line
func (r *DiagnosticReporter) ReportWarning(message string) {
	color.New(color.FgYellow, color.Bold).Fprint(r.out, "! ")
	fmt.Fprintf(r.out, "%s\n", message)
}

// ReportError provides comprehensive error reporting with user-friendly output
func (r *DiagnosticReporter) ReportError(err error) {
	fmt.Fprintf(r.out, "\nERROR: Generation Failed\n")
	fmt.Fprintf(r.out, "========================\n\n")

	if genErr := findGeneratorError(err); genErr != nil {
		r.reportGeneratorError(genErr)
	} else if ne, ok := err.(errors.NgmodError); ok {
		r.reportNgmodError(ne)
	} else {
		fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())
	}
}

func (r *DiagnosticReporter) reportGeneratorError(genErr *models.GeneratorError) {
	r.printErrorHeader(typeName(genErr.Type))
	fmt.Fprintf(r.out, "Message: %s\n\n", genErr.Message)
	if r.verbose && genErr.Cause != nil {
		fmt.Fprintf(r.out, "Underlying cause: %s\n\n", genErr.Cause.Error())
	}
	if genErr.File != "" {
		fmt.Fprintf(r.out, "File: %s\n\n", genErr.File)
	}
	if len(genErr.Context) > 0 {
		r.printContext(genErr.Context)
	}
	if len(genErr.Suggestions) > 0 {
		r.printSuggestions(genErr.Suggestions)
	}
}

func (r *DiagnosticReporter) reportNgmodError(err errors.NgmodError) {
	r.printErrorHeader(err.ErrorCode().String())
	fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())
	if file := err.Location().File; file != "" {
		fmt.Fprintf(r.out, "File: %s\n\n", file)
	}
	if ctx := err.Context(); len(ctx) > 0 {
		r.printContext(ctx)
	}
	if suggestions := err.Suggestions(); len(suggestions) > 0 {
		r.printSuggestions(suggestions)
	}
}

func typeName(t models.ErrorType) string {
	switch t {
	case models.ErrorTypeConfiguration:
		return "Configuration Error"
	case models.ErrorTypeMetadata:
		return "Metadata Error"
	case models.ErrorTypeConflict:
		return "Export Conflict"
	case models.ErrorTypeGeneration:
		return "Code Generation Error"
	case models.ErrorTypeFileSystem:
		return "File System Error"
	default:
		return "Unknown Error"
	}
}

func (r *DiagnosticReporter) printErrorHeader(title string) {
	fmt.Fprintf(r.out, "Type: %s\n", title)
	fmt.Fprintf(r.out, "%s\n\n", strings.Repeat("-", len(title)+6))
}

// printContext prints context information in a readable format
func (r *DiagnosticReporter) printContext(context map[string]interface{}) {
	keys := make([]string, 0, len(context))
	for key := range context {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(r.out, "Context:\n")
	for _, key := range keys {
		fmt.Fprintf(r.out, "   %s: %v\n", formatContextKey(key), context[key])
	}
	fmt.Fprintf(r.out, "\n")
}

// formatContextKey converts snake_case keys to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

// printSuggestions prints actionable suggestions
func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	fmt.Fprintf(r.out, "Suggestions:\n")
	for i, suggestion := range suggestions {
		lines := strings.Split(suggestion, "\n")
		fmt.Fprintf(r.out, "   %d. %s\n", i+1, lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(r.out, "      %s\n", line)
			}
		}
	}
	fmt.Fprintf(r.out, "\n")
}

func (r *DiagnosticReporter) severityColor(s models.Severity) *color.Color {
	switch s {
	case models.SeverityFatal:
		return color.New(color.FgRed, color.Bold)
	case models.SeverityError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

// findGeneratorError searches the wrap chain for a GeneratorError
func findGeneratorError(err error) *models.GeneratorError {
	for err != nil {
		if genErr, ok := err.(*models.GeneratorError); ok {
			return genErr
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

// AbortedError describes a pass stopped by fatal diagnostics
func AbortedError(result *PassResult) *models.GeneratorError {
	var fatal []string
	for _, d := range result.Diagnostics.Sorted() {
		if d.Severity == models.SeverityFatal {
			fatal = append(fatal, d.String())
		}
	}
	return &models.GeneratorError{
		Type:    models.ErrorTypeConflict,
		Message: fmt.Sprintf("generation aborted with %d fatal diagnostic(s); previous output kept", len(fatal)),
		Suggestions: []string{
			"Make sure every exported class is declared by exactly one file or NgModule",
			"Run with --verbose to see every diagnostic of the pass",
		},
		Context: map[string]interface{}{
			"pass":  result.ID,
			"fatal": strings.Join(fatal, "; "),
		},
	}
}
