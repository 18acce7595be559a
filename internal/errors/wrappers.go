package errors

import "fmt"

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapGenerateError wraps an error raised while rendering an artifact
func WrapGenerateError(artifact string, cause error) *BaseError {
	message := fmt.Sprintf("failed to generate %s", artifact)
	return Wrap(GenerationErrorCode, message, cause).
		WithContext("artifact", artifact)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// NewMetadataShapeError reports a metadata node that could not be classified
func NewMetadataShapeError(file, symbol, message string) *BaseError {
	return New(MetadataShapeErrorCode, message).
		WithLocation(SourceLocation{File: file, Symbol: symbol})
}

// NewResolutionError reports a reference that did not resolve to a real node
func NewResolutionError(file, symbol, module, name string) *BaseError {
	target := name
	if module != "" {
		target = fmt.Sprintf("%s from '%s'", name, module)
	}
	return Newf(ResolutionErrorCode, "cannot resolve %s", target).
		WithLocation(SourceLocation{File: file, Symbol: symbol}).
		WithContext("module", module).
		WithContext("name", name).
		WithSuggestion("Rebuild the metadata of the referenced package")
}

// NewDuplicateExportError reports a symbol claimed by two different owning files
func NewDuplicateExportError(module, symbol, firstOwner, secondOwner string) *BaseError {
	return Newf(DuplicateExportErrorCode, "%s from '%s' is exported by both %s and %s", symbol, module, firstOwner, secondOwner).
		WithLocation(SourceLocation{File: secondOwner, Symbol: symbol}).
		WithContext("module", module).
		WithContext("first_owner", firstOwner).
		WithContext("second_owner", secondOwner).
		WithSuggestions(
			"Declare the symbol in exactly one module",
			"Remove the symbol from the exports of one of the owning modules",
		)
}

// NewInvariantError reports an internal consistency failure
func NewInvariantError(format string, args ...interface{}) *BaseError {
	return Newf(InvariantErrorCode, format, args...)
}
