package metadata

import (
	"strings"

	"github.com/toyz/ngmod/internal/models"
)

// FrameworkModule is the module the recognised decorators are imported from
const FrameworkModule = "@angular/core"

// EligibleSuffixes are the class-name suffixes that opt a decorated class
// into a generated aggregation module
var EligibleSuffixes = []string{
	"Page",
	"Component",
	"Modal",
	"Control",
	"Template",
	"Toast",
	"Directive",
	"Provider",
	"Pipe",
}

// DecoratorKind identifies a framework decorator
type DecoratorKind int

const (
	DecoratorUnknown DecoratorKind = iota
	DecoratorComponent
	DecoratorDirective
	DecoratorPipe
	DecoratorInjectable
	DecoratorNgModule
)

var decoratorKinds = map[string]DecoratorKind{
	"Component":  DecoratorComponent,
	"Directive":  DecoratorDirective,
	"Pipe":       DecoratorPipe,
	"Injectable": DecoratorInjectable,
	"NgModule":   DecoratorNgModule,
}

// String returns the decorator name
func (k DecoratorKind) String() string {
	for name, kind := range decoratorKinds {
		if kind == k {
			return name
		}
	}
	return "Unknown"
}

// Decorator is a framework decorator call with its resolved options argument
type Decorator struct {
	Kind    DecoratorKind
	Options *models.ObjectNode    // nil when the call has no object argument
	Record  *models.ModuleRecord // record the options were declared in
}

// Classification is the outcome of the eligibility test for one class
type Classification struct {
	Primary    Decorator
	IsNgModule bool
	Eligible   bool
}

// Decorators resolves the framework decorators of a class declared in rec
func (s *Snapshot) Decorators(rec *models.ModuleRecord, cls *models.ClassNode) ([]Decorator, error) {
	var out []Decorator
	for _, node := range cls.Decorators {
		resolved, _, err := s.Resolve(rec, node)
		if err != nil {
			return nil, err
		}
		call, ok := resolved.(*models.CallNode)
		if !ok || call.Callee.Module != FrameworkModule {
			continue
		}
		kind, ok := decoratorKinds[call.Callee.Name]
		if !ok {
			continue
		}

		dec := Decorator{Kind: kind, Record: rec}
		if len(call.Arguments) > 0 {
			arg, argRec, err := s.Resolve(rec, call.Arguments[0])
			if err != nil {
				return nil, err
			}
			if obj, ok := arg.(*models.ObjectNode); ok {
				dec.Options = obj
				dec.Record = argRec
			}
		}
		out = append(out, dec)
	}
	return out, nil
}

// StringOption resolves a string-valued entry of the decorator options.
// A missing or non-string entry reports false without error.
func (s *Snapshot) StringOption(dec Decorator, key string) (string, bool, error) {
	if dec.Options == nil {
		return "", false, nil
	}
	node, ok := dec.Options.Entries[key]
	if !ok {
		return "", false, nil
	}
	resolved, _, err := s.Resolve(dec.Record, node)
	if err != nil {
		return "", false, err
	}
	value, ok := models.AsString(resolved)
	return value, ok, nil
}

// Classify applies the eligibility test to a class declared in rec
func (s *Snapshot) Classify(rec *models.ModuleRecord, cls *models.ClassNode) (Classification, error) {
	decorators, err := s.Decorators(rec, cls)
	if err != nil {
		return Classification{}, err
	}

	var result Classification
	found := false
	for _, dec := range decorators {
		if dec.Kind == DecoratorNgModule {
			result.IsNgModule = true
			continue
		}
		if !found {
			result.Primary = dec
			found = true
		}
	}
	if !found || result.IsNgModule || !HasEligibleSuffix(cls.Name) {
		return result, nil
	}

	if result.Primary.Kind == DecoratorInjectable {
		providedIn, ok, err := s.StringOption(result.Primary, "providedIn")
		if err != nil {
			return Classification{}, err
		}
		if ok && providedIn == "root" {
			return result, nil
		}
	}

	result.Eligible = true
	return result, nil
}

// HasEligibleSuffix reports whether a class name ends in a recognised suffix
func HasEligibleSuffix(name string) bool {
	for _, suffix := range EligibleSuffixes {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return true
		}
	}
	return false
}
