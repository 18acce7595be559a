package models

import "sort"

// NodeKind identifies the variant of a metadata node
type NodeKind int

const (
	NodeClass NodeKind = iota
	NodeFunction
	NodeCall
	NodeArray
	NodeObject
	NodeLiteral
	NodeReference
	NodeError
)

// String returns the string representation of the node kind
func (k NodeKind) String() string {
	switch k {
	case NodeClass:
		return "class"
	case NodeFunction:
		return "function"
	case NodeCall:
		return "call"
	case NodeArray:
		return "array"
	case NodeObject:
		return "object"
	case NodeLiteral:
		return "literal"
	case NodeReference:
		return "reference"
	case NodeError:
		return "error"
	default:
		return "unknown"
	}
}

// Node is a parsed metadata node. The set of implementations is closed:
// *ClassNode, *FunctionNode, *CallNode, *ArrayNode, *ObjectNode,
// *LiteralNode, *ReferenceNode and *ErrorNode.
type Node interface {
	Kind() NodeKind
	sealed()
}

// SymbolRef names a symbol, optionally qualified by the module it comes from.
// An empty Module means a global reference inside the owning module.
type SymbolRef struct {
	Module string
	Name   string
}

// IsImported reports whether the reference points into another module
func (r SymbolRef) IsImported() bool {
	return r.Module != ""
}

// ClassNode is a class declaration
type ClassNode struct {
	Name       string
	Decorators []Node
	Statics    map[string]Node
	Extends    Node
}

// FunctionNode is a function whose metadata is its returned value
type FunctionNode struct {
	Name  string
	Value Node
}

// CallNode is a call or construction expression
type CallNode struct {
	Callee    SymbolRef
	Arguments []Node
}

// ArrayNode is a list literal
type ArrayNode struct {
	Items []Node
}

// ObjectNode is an object literal
type ObjectNode struct {
	Entries map[string]Node
}

// LiteralKind tells which field of a LiteralNode holds the value
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBool
	LiteralNull
)

// LiteralNode is a scalar value
type LiteralNode struct {
	LiteralKind LiteralKind
	String      string
	Number      float64
	Bool        bool
}

// ReferenceNode points at another symbol; resolution dereferences it
type ReferenceNode struct {
	Ref SymbolRef
}

// ErrorNode replaces a node whose shape could not be classified
type ErrorNode struct {
	Message string
}

func (*ClassNode) Kind() NodeKind     { return NodeClass }
func (*FunctionNode) Kind() NodeKind  { return NodeFunction }
func (*CallNode) Kind() NodeKind      { return NodeCall }
func (*ArrayNode) Kind() NodeKind     { return NodeArray }
func (*ObjectNode) Kind() NodeKind    { return NodeObject }
func (*LiteralNode) Kind() NodeKind   { return NodeLiteral }
func (*ReferenceNode) Kind() NodeKind { return NodeReference }
func (*ErrorNode) Kind() NodeKind     { return NodeError }

func (*ClassNode) sealed()     {}
func (*FunctionNode) sealed()  {}
func (*CallNode) sealed()      {}
func (*ArrayNode) sealed()     {}
func (*ObjectNode) sealed()    {}
func (*LiteralNode) sealed()   {}
func (*ReferenceNode) sealed() {}
func (*ErrorNode) sealed()     {}

// StringLiteral returns a string literal node
func StringLiteral(s string) *LiteralNode {
	return &LiteralNode{LiteralKind: LiteralString, String: s}
}

// AsString returns the value of a string literal node
func AsString(n Node) (string, bool) {
	lit, ok := n.(*LiteralNode)
	if !ok || lit.LiteralKind != LiteralString {
		return "", false
	}
	return lit.String, true
}

// Entry returns an object entry, or nil when n is not an object or lacks key
func Entry(n Node, key string) Node {
	obj, ok := n.(*ObjectNode)
	if !ok {
		return nil
	}
	return obj.Entries[key]
}

// SortedKeys returns the keys of an object entry map in lexical order
func SortedKeys(m map[string]Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
