package selector

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Element is one tag of a template
type Element struct {
	Tag      string
	Attrs    map[string]string // lower-cased attribute names as written, e.g. "[(ngmodel)]"
	Children []*Element
	Parent   *Element
}

// HasClass reports whether the element carries a CSS class statically or through a class binding
func (e *Element) HasClass(name string) bool {
	name = strings.ToLower(name)
	for _, c := range strings.Fields(strings.ToLower(e.Attrs["class"])) {
		if c == name {
			return true
		}
	}
	_, bound := e.Attrs["[class."+name+"]"]
	return bound
}

// Markup is a lightweight tag tree parsed from template text
type Markup struct {
	Root *Element
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true,
	"track": true, "wbr": true,
}

// ParseMarkup tokenizes template text into a tag tree. Unbalanced end tags
// are tolerated; an end tag closes the nearest open element with that name.
func ParseMarkup(text string) (*Markup, error) {
	root := &Element{Attrs: map[string]string{}}
	stack := []*Element{root}
	z := html.NewTokenizer(strings.NewReader(text))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return &Markup{Root: root}, nil
			}
			return nil, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			el := &Element{Tag: string(name), Attrs: map[string]string{}, Parent: stack[len(stack)-1]}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				el.Attrs[string(key)] = string(val)
			}
			el.Parent.Children = append(el.Parent.Children, el)
			if tt == html.StartTagToken && !voidElements[el.Tag] {
				stack = append(stack, el)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Tag == string(name) {
					stack = stack[:i]
					break
				}
			}
		}
	}
}

// Walk visits every element depth first until fn returns false
func (m *Markup) Walk(fn func(*Element) bool) {
	var walk func(*Element) bool
	walk = func(el *Element) bool {
		for _, child := range el.Children {
			if !fn(child) || !walk(child) {
				return false
			}
		}
		return true
	}
	walk(m.Root)
}

// PipeMatcher returns a pattern that finds "| name" pipe usages in template text
func PipeMatcher(name string) *regexp.Regexp {
	return regexp.MustCompile(`\|\s*` + regexp.QuoteMeta(name) + `\b`)
}
