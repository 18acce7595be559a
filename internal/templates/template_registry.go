package templates

// TemplateRegistry provides a centralized way to access all templates
type TemplateRegistry struct {
	templates map[string]string
}

// NewTemplateRegistry creates a new template registry with all templates
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{
		templates: make(map[string]string),
	}

	registry.registerModuleTemplates()
	registry.registerRouteTemplates()

	return registry
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (string, bool) {
	template, exists := tr.templates[name]
	return template, exists
}

// MustGet retrieves a template by name, panics if not found
func (tr *TemplateRegistry) MustGet(name string) string {
	template, exists := tr.templates[name]
	if !exists {
		panic("template not found: " + name)
	}
	return template
}

// registerModuleTemplates registers the aggregation module template
func (tr *TemplateRegistry) registerModuleTemplates() {
	tr.templates["aggregation-module"] = `{{.ImportLines}}
@NgModule({
  imports: {{list .Modules}},
  declarations: {{list .Declarations}},
  exports: {{list .Exports}},
  entryComponents: {{list .EntryComponents}},
  providers: {{list .Providers}}
})
export class {{.ClassName}} {
}
`
}

// registerRouteTemplates registers the route module, route list and lazy registry templates
func (tr *TemplateRegistry) registerRouteTemplates() {
	tr.templates["routing-module"] = `{{.ImportLines}}
@NgModule({
  imports: [
    {{.PageModule}},
    RouterModule.forChild([
      {
        path: "",
        component: {{.PageClass}}{{if .Children}},
        children: {{routes .FilePath .Children 8}}{{end}}
      }
    ])
  ]
})
export class {{.ClassName}} {
}
`

	tr.templates["route-list"] = `export const routes = {{routes .FilePath .Children 0}};
`

	tr.templates["lazy-registry"] = `export const lazyPages = {{lazy .FilePath .Entries}};
`
}

// DefaultTemplateRegistry is the global template registry instance
var DefaultTemplateRegistry = NewTemplateRegistry()
