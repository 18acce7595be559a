package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// ConfigBaseName is the file name, without extension, of project config files
const ConfigBaseName = "ngmod"

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Generate a configuration template"`
}

// ConfigInit scaffolds a project configuration file.
type ConfigInit struct {
	Format string `help:"Output format" enum:"json,yaml,yml,toml" default:"yaml"`
	Output string `help:"Destination file path (defaults to ngmod.<format> in the current directory)"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

// Run writes the defaults of the project flags in the requested format.
func (c *ConfigInit) Run(globals *Globals) error {
	format := normalizeFormat(c.Format)
	if format == "" {
		return fmt.Errorf("unsupported format: %s", c.Format)
	}

	dest := c.Output
	if dest == "" {
		dest = ConfigBaseName + "." + format
	}
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}

	data, err := MarshalDefaults(format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return err
	}
	globals.Diagnostics().Success("Wrote %s", dest)
	return nil
}

// MarshalDefaults renders the project flag defaults as a config document
func MarshalDefaults(format string) ([]byte, error) {
	project := reflect.TypeOf(Project{})
	switch normalizeFormat(format) {
	case "json":
		return json.MarshalIndent(buildMapFromStruct(project, '_'), "", "  ")
	case "yaml":
		return yaml.Marshal(buildMapFromStruct(project, '-'))
	case "toml":
		return toml.Marshal(buildMapFromStruct(project, '-'))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return ""
	}
}

// configKey turns a field name into the key a config loader looks up: the
// JSON loader matches snake_case, the yaml and toml loaders the flag name
func configKey(s string, sep byte) string {
	var b strings.Builder
	r := []rune(s)
	for i, c := range r {
		if unicode.IsUpper(c) {
			if i > 0 && (unicode.IsLower(r[i-1]) || (i+1 < len(r) && unicode.IsLower(r[i+1]))) {
				b.WriteByte(sep)
			}
			c = unicode.ToLower(c)
		}
		b.WriteRune(c)
	}
	return b.String()
}

func buildMapFromStruct(t reflect.Type, sep byte) map[string]any {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("kong") == "-" {
			continue
		}
		if _, ok := f.Tag.Lookup("embed"); ok {
			prefix := strings.ReplaceAll(f.Tag.Get("prefix"), "-", string(sep))
			for k, v := range buildMapFromStruct(f.Type, sep) {
				out[prefix+k] = v
			}
			continue
		}
		if val := defaultValueForField(f.Type, f.Tag.Get("default")); val != nil {
			out[configKey(f.Name, sep)] = val
		}
	}
	return out
}

func defaultValueForField(t reflect.Type, def string) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "time" && t.Name() == "Duration" {
		if def != "" {
			return def
		}
		return "0s"
	}
	switch t.Kind() {
	case reflect.String:
		return def
	case reflect.Bool:
		b, _ := strconv.ParseBool(def)
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.ParseInt(def, 10, 64)
		return n
	case reflect.Slice:
		if t.Elem().Kind() != reflect.String {
			return nil
		}
		values := []string{}
		if def != "" {
			values = strings.Split(def, ",")
		}
		return values
	default:
		return nil
	}
}
