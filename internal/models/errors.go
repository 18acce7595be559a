package models

import "fmt"

// ErrorType represents different types of generator errors
type ErrorType int

const (
	ErrorTypeConfiguration ErrorType = iota
	ErrorTypeMetadata
	ErrorTypeConflict
	ErrorTypeGeneration
	ErrorTypeFileSystem
)

// GeneratorError represents an error that stopped the command
type GeneratorError struct {
	Type        ErrorType              // type of error
	File        string                 // file where error occurred
	Message     string                 // error message
	Cause       error                  // underlying error cause
	Suggestions []string               // hints printed by the reporter
	Context     map[string]interface{} // extra key/value context
}

// Error implements the error interface
func (e *GeneratorError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error cause
func (e *GeneratorError) Unwrap() error {
	return e.Cause
}
