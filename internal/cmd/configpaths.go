package cmd

import (
	"os"
	"path/filepath"
	"strings"
)

// ConfigEnv names the config file when --config is not given
const ConfigEnv = "NGMOD_CONFIG"

// FindUserConfig returns the --config value of args, falling back to the
// environment
func FindUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv(ConfigEnv)
}

// ConfigCandidatePaths lists the config files to load per format in priority
// order: the user's file first, then ngmod.* in dir
func ConfigCandidatePaths(userPath, dir string) (jsonPaths, yamlPaths, tomlPaths []string) {
	seen := map[string]bool{}
	add := func(list *[]string, p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		*list = append(*list, p)
	}

	if userPath != "" {
		switch filepath.Ext(userPath) {
		case ".yaml", ".yml":
			add(&yamlPaths, userPath)
		case ".toml":
			add(&tomlPaths, userPath)
		default:
			add(&jsonPaths, userPath)
		}
	}

	base := filepath.Join(dir, ConfigBaseName)
	add(&jsonPaths, base+".json")
	add(&yamlPaths, base+".yaml")
	add(&yamlPaths, base+".yml")
	add(&tomlPaths, base+".toml")
	return jsonPaths, yamlPaths, tomlPaths
}
