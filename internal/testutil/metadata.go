// Package testutil builds metadata documents and file trees for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// Object is a raw JSON object of a metadata document
type Object = map[string]any

// Module encodes a metadata document holding symbols and import statements
func Module(symbols Object, imports ...Object) []byte {
	doc := Object{
		"__symbolic": "module",
		"version":    4,
		"metadata":   symbols,
	}
	if len(imports) > 0 {
		doc["imports"] = imports
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

// Library encodes a metadata document published under importAs
func Library(importAs string, symbols Object) []byte {
	doc := Object{
		"__symbolic": "module",
		"version":    4,
		"importAs":   importAs,
		"metadata":   symbols,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

// Import is one import statement of the originating file
func Import(module string, names ...string) Object {
	return Object{"module": module, "names": names}
}

// Class is a class declaration with the given decorators
func Class(decorators ...Object) Object {
	cls := Object{"__symbolic": "class"}
	if len(decorators) > 0 {
		cls["decorators"] = decorators
	}
	return cls
}

// Decorator is a call of a framework decorator with an optional options object
func Decorator(name string, options Object) Object {
	call := Object{
		"__symbolic": "call",
		"expression": Ref("@angular/core", name),
	}
	if options != nil {
		call["arguments"] = []any{options}
	}
	return call
}

// Component decorates a component with a selector and an inline template
func Component(selector, template string) Object {
	options := Object{"selector": selector}
	if template != "" {
		options["template"] = template
	}
	return Decorator("Component", options)
}

// Ref is a reference to a symbol; an empty module makes it a global reference
func Ref(module, name string) Object {
	ref := Object{"__symbolic": "reference", "name": name}
	if module != "" {
		ref["module"] = module
	}
	return ref
}

// Function is a function whose metadata is value
func Function(value any) Object {
	return Object{"__symbolic": "function", "parameters": []string{}, "value": value}
}

// WriteArchive extracts a txtar archive into dir
func WriteArchive(t testing.TB, dir string, archive string) {
	t.Helper()
	for _, f := range txtar.Parse([]byte(archive)).Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, f.Data, 0644))
	}
}

// WriteFile writes data below dir, creating parent directories
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
