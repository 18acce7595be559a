package selector

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// SelectorList is a comma separated list of compound selectors
type SelectorList struct {
	Compounds []*Compound `parser:"@@ ( ',' @@ )*"`
}

// Compound is an optional element name followed by attribute, class and
// negation parts, all of which must match the same element
type Compound struct {
	Element string  `parser:"( @Ident | @'*' )?"`
	Parts   []*Part `parser:"@@*"`
}

// Part is one qualifier of a compound selector
type Part struct {
	Attribute *Attribute `parser:"  @@"`
	Class     *string    `parser:"| '.' @Ident"`
	Not       *Compound  `parser:"| ':' 'not' '(' @@ ')'"`
}

// Attribute is an [name] or [name=value] qualifier
type Attribute struct {
	Name  string  `parser:"'[' @Ident"`
	Value *string `parser:"( '=' ( @String | @Ident ) )? ']'"`
}

var selectorParser = participle.MustBuild[SelectorList](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `"[^"]*"|'[^']*'`},
		{Name: "Ident", Pattern: `-?[_a-zA-Z][-_a-zA-Z0-9]*`},
		{Name: "Punct", Pattern: `[\[\]=,.:()*]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Selector is a parsed template selector
type Selector struct {
	Raw  string
	list *SelectorList
}

// Parse parses a template selector such as "sd-button", "[sdFoo]" or
// "input[type=text], textarea"
func Parse(raw string) (*Selector, error) {
	list, err := selectorParser.ParseString("", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse selector %q: %w", raw, err)
	}
	for _, c := range list.Compounds {
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("failed to parse selector %q: %w", raw, err)
		}
	}
	return &Selector{Raw: raw, list: list}, nil
}

func (c *Compound) validate() error {
	if c.Element == "" && len(c.Parts) == 0 {
		return fmt.Errorf("empty compound selector")
	}
	for _, part := range c.Parts {
		if part.Attribute != nil && part.Attribute.Value != nil {
			v := *part.Attribute.Value
			if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') {
				v = v[1 : len(v)-1]
				part.Attribute.Value = &v
			}
		}
		if part.Not != nil {
			if err := part.Not.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Matches reports whether any element of the markup matches the selector
func (s *Selector) Matches(m *Markup) bool {
	matched := false
	m.Walk(func(el *Element) bool {
		for _, c := range s.list.Compounds {
			if c.matches(el) {
				matched = true
				return false
			}
		}
		return true
	})
	return matched
}

func (c *Compound) matches(el *Element) bool {
	if c.Element != "" && c.Element != "*" && !strings.EqualFold(c.Element, el.Tag) {
		return false
	}
	for _, part := range c.Parts {
		switch {
		case part.Attribute != nil:
			if !part.Attribute.matches(el) {
				return false
			}
		case part.Class != nil:
			if !el.HasClass(*part.Class) {
				return false
			}
		case part.Not != nil:
			if part.Not.matches(el) {
				return false
			}
		}
	}
	return true
}

// bindingSpellings lists the ways a template can set an attribute or input:
// plain, property binding, two-way binding, event binding and structural directive
var bindingSpellings = []string{"%s", "[%s]", "[(%s)]", "(%s)", "*%s"}

func (a *Attribute) matches(el *Element) bool {
	name := strings.ToLower(a.Name)
	if a.Value != nil {
		value, ok := el.Attrs[name]
		return ok && value == *a.Value
	}
	for _, spelling := range bindingSpellings {
		if _, ok := el.Attrs[fmt.Sprintf(spelling, name)]; ok {
			return true
		}
	}
	return false
}
