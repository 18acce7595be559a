package fileops

import (
	"github.com/toyz/ngmod/internal/errors"
)

// ErrorWrapper provides consistent error wrapping for file operations
type ErrorWrapper struct{}

// NewErrorWrapper creates a new ErrorWrapper instance
func NewErrorWrapper() *ErrorWrapper {
	return &ErrorWrapper{}
}

// WrapFileReadError wraps file reading errors with context
func (ew *ErrorWrapper) WrapFileReadError(filePath string, err error) error {
	return errors.WrapFileSystemError("read", filePath, err)
}

// WrapFileWriteError wraps file writing errors with context
func (ew *ErrorWrapper) WrapFileWriteError(filePath string, err error) error {
	return errors.WrapFileSystemError("write", filePath, err)
}

// WrapDirectoryReadError wraps directory reading errors with context
func (ew *ErrorWrapper) WrapDirectoryReadError(dirPath string, err error) error {
	return errors.WrapFileSystemError("read directory", dirPath, err)
}

// WrapPathError wraps a path rejected by the validator
func (ew *ErrorWrapper) WrapPathError(path string, err error) error {
	return errors.WrapFileSystemError("resolve path", path, err)
}

// WrapFileRemovalError wraps file removal errors with context
func (ew *ErrorWrapper) WrapFileRemovalError(filePath string, err error) error {
	return errors.WrapFileSystemError("remove", filePath, err)
}

// WrapGlobError wraps file discovery errors with context
func (ew *ErrorWrapper) WrapGlobError(pattern string, err error) error {
	return errors.WrapFileSystemError("glob", pattern, err)
}
