package metadata

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/models"
)

const symbolicKey = "__symbolic"

// ParsedDocument is the decoded content of one metadata document
type ParsedDocument struct {
	ImportAs    string
	Symbols     map[string]models.Node
	Imports     []models.ImportStatement
	ShapeErrors []*errors.BaseError
}

// Parse decodes a raw metadata document. Nodes whose shape cannot be
// classified become ErrorNodes and are listed in ShapeErrors; only a
// document that is not JSON at all, or whose top level is not a module,
// returns an error.
func Parse(filePath string, raw []byte) (*ParsedDocument, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(errors.MetadataShapeErrorCode, "invalid metadata document", err).
			WithLocation(errors.SourceLocation{File: filePath})
	}

	var modules []map[string]interface{}
	switch v := doc.(type) {
	case map[string]interface{}:
		modules = append(modules, v)
	case []interface{}:
		for _, item := range v {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, errors.NewMetadataShapeError(filePath, "", "metadata array holds a non-object entry")
			}
			modules = append(modules, m)
		}
	default:
		return nil, errors.NewMetadataShapeError(filePath, "", "metadata document is not an object")
	}

	p := &nodeParser{filePath: filePath}
	out := &ParsedDocument{Symbols: make(map[string]models.Node)}
	for _, mod := range modules {
		if mod[symbolicKey] != "module" {
			return nil, errors.NewMetadataShapeError(filePath, "", fmt.Sprintf("expected a module document, got %v", mod[symbolicKey]))
		}
		if importAs, ok := mod["importAs"].(string); ok && out.ImportAs == "" {
			out.ImportAs = importAs
		}
		if symbols, ok := mod["metadata"].(map[string]interface{}); ok {
			for _, name := range sortedRawKeys(symbols) {
				raw := symbols[name]
				if isInterface(raw) {
					continue
				}
				if _, exists := out.Symbols[name]; exists {
					p.fail(name, fmt.Sprintf("symbol %s is declared twice", name))
					continue
				}
				out.Symbols[name] = p.parse(name, name, raw)
			}
		}
		out.Imports = append(out.Imports, parseImports(p, mod["imports"])...)
	}
	out.ShapeErrors = p.errs
	return out, nil
}

// FileKey strips the metadata, declaration and source extensions from a path
func FileKey(filePath string) string {
	key := filepath.Clean(filePath)
	for _, ext := range []string{".metadata.json", ".d.ts", ".ts"} {
		if strings.HasSuffix(key, ext) {
			return strings.TrimSuffix(key, ext)
		}
	}
	return key
}

type nodeParser struct {
	filePath string
	errs     []*errors.BaseError
}

func (p *nodeParser) fail(symbol, message string) *models.ErrorNode {
	p.errs = append(p.errs, errors.NewMetadataShapeError(p.filePath, symbol, message))
	return &models.ErrorNode{Message: message}
}

// parse converts one raw JSON value. symbol names the top-level symbol for
// error reporting; name is set only for top-level class and function values.
func (p *nodeParser) parse(symbol, name string, raw interface{}) models.Node {
	switch v := raw.(type) {
	case nil:
		return &models.LiteralNode{LiteralKind: models.LiteralNull}
	case string:
		return models.StringLiteral(v)
	case float64:
		return &models.LiteralNode{LiteralKind: models.LiteralNumber, Number: v}
	case bool:
		return &models.LiteralNode{LiteralKind: models.LiteralBool, Bool: v}
	case []interface{}:
		arr := &models.ArrayNode{Items: make([]models.Node, 0, len(v))}
		for _, item := range v {
			arr.Items = append(arr.Items, p.parse(symbol, "", item))
		}
		return arr
	case map[string]interface{}:
		kind, tagged := v[symbolicKey]
		if !tagged {
			obj := &models.ObjectNode{Entries: make(map[string]models.Node, len(v))}
			for _, key := range sortedRawKeys(v) {
				obj.Entries[key] = p.parse(symbol, "", v[key])
			}
			return obj
		}
		return p.parseSymbolic(symbol, name, kind, v)
	default:
		return p.fail(symbol, fmt.Sprintf("unsupported JSON value %T", raw))
	}
}

func (p *nodeParser) parseSymbolic(symbol, name string, kind interface{}, v map[string]interface{}) models.Node {
	switch kind {
	case "class":
		cls := &models.ClassNode{Name: name, Statics: make(map[string]models.Node)}
		if rawDecorators, present := v["decorators"]; present {
			list, ok := rawDecorators.([]interface{})
			if !ok {
				return p.fail(symbol, "class decorators are not a list")
			}
			for _, item := range list {
				cls.Decorators = append(cls.Decorators, p.parse(symbol, "", item))
			}
		}
		if statics, ok := v["statics"].(map[string]interface{}); ok {
			for _, key := range sortedRawKeys(statics) {
				cls.Statics[key] = p.parse(symbol, key, statics[key])
			}
		}
		if ext, ok := v["extends"]; ok && ext != nil {
			cls.Extends = p.parse(symbol, "", ext)
		}
		return cls

	case "function":
		fn := &models.FunctionNode{Name: name}
		if value, ok := v["value"]; ok {
			fn.Value = p.parse(symbol, "", value)
		} else {
			fn.Value = &models.ObjectNode{Entries: map[string]models.Node{}}
		}
		return fn

	case "call", "new":
		callee, ok := p.parse(symbol, "", v["expression"]).(*models.ReferenceNode)
		if !ok {
			return p.fail(symbol, fmt.Sprintf("%s expression is not a reference", kind))
		}
		call := &models.CallNode{Callee: callee.Ref}
		if args, ok := v["arguments"].([]interface{}); ok {
			for _, arg := range args {
				call.Arguments = append(call.Arguments, p.parse(symbol, "", arg))
			}
		}
		return call

	case "reference":
		refName, ok := v["name"].(string)
		if !ok || refName == "" {
			return p.fail(symbol, "reference without a name")
		}
		module, _ := v["module"].(string)
		return &models.ReferenceNode{Ref: models.SymbolRef{Module: module, Name: refName}}

	case "error":
		message, _ := v["message"].(string)
		if message == "" {
			message = "metadata error"
		}
		return p.fail(symbol, message)

	default:
		return p.fail(symbol, fmt.Sprintf("unsupported symbolic expression %v", kind))
	}
}

func parseImports(p *nodeParser, raw interface{}) []models.ImportStatement {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	var out []models.ImportStatement
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			p.fail("", "import entry is not an object")
			continue
		}
		module, _ := entry["module"].(string)
		if module == "" {
			p.fail("", "import entry without a module")
			continue
		}
		stmt := models.ImportStatement{Module: module}
		if names, ok := entry["names"].([]interface{}); ok {
			for _, n := range names {
				if s, ok := n.(string); ok {
					stmt.Names = append(stmt.Names, s)
				}
			}
		}
		out = append(out, stmt)
	}
	return out
}

func isInterface(raw interface{}) bool {
	m, ok := raw.(map[string]interface{})
	return ok && m[symbolicKey] == "interface"
}

func sortedRawKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
