package models

import (
	"sort"

	"github.com/toyz/ngmod/internal/errors"
)

// ImportStatement is one import declaration of a compiled source file
type ImportStatement struct {
	Module string   `json:"module"`
	Names  []string `json:"names"`
}

// ModuleRecord is the parsed metadata of one compiled file
type ModuleRecord struct {
	FilePath    string
	FileKey     string // absolute path without metadata/declaration/source extension
	ModuleName  string
	Symbols     map[string]Node
	Imports     []ImportStatement
	IsLibrary   bool
	Revision    uint64
	ShapeErrors []*errors.BaseError
}

// SymbolNames returns the record's symbol names in lexical order
func (m *ModuleRecord) SymbolNames() []string {
	names := make([]string, 0, len(m.Symbols))
	for name := range m.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Class returns the named class declaration, if any
func (m *ModuleRecord) Class(name string) (*ClassNode, bool) {
	cls, ok := m.Symbols[name].(*ClassNode)
	return cls, ok
}
