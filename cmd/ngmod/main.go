package main

import (
	"os"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/joho/godotenv"

	"github.com/toyz/ngmod/internal/cmd"
	"github.com/toyz/ngmod/internal/log"
)

func main() {
	_ = godotenv.Load()

	wd, _ := os.Getwd()
	jsonPaths, yamlPaths, tomlPaths := cmd.ConfigCandidatePaths(cmd.FindUserConfig(os.Args[1:]), wd)

	var cli cmd.CLI
	ctx := kong.Parse(&cli,
		kong.Name("ngmod"),
		kong.Description("Generates Angular NgModules and routes from compiled component metadata"),
		kong.UsageOnError(),
		kong.DefaultEnvars("NGMOD"),
		// Flags and environment override config file values.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx.Bind(logger, &cli.Globals, &cli.Project)
	err = ctx.Run()

	for _, c := range closeFiles {
		_ = c.Close()
	}
	if err != nil {
		cli.Reporter().ReportError(err)
		os.Exit(1)
	}
}
