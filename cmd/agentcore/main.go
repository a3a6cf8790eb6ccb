// Command agentcore is the CLI entrypoint for the local-first, multi-model
// coding assistant core described in spec.md/SPEC_FULL.md.
//
// Usage:
//
//	agentcore run "fix the failing test in pkg/foo" --workdir .
//	agentcore cycle tasks.yaml --workdir .
//	agentcore sessions list
//	agentcore sessions show <session-id>
//	agentcore serve --config config.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	agentcore "github.com/ollamabot/agentcore"
	"github.com/ollamabot/agentcore/pkg/logger"
)

func versionString() string {
	return agentcore.GetVersion().String()
}

// CLI defines the command-line interface.
type CLI struct {
	Run      RunCmd      `cmd:"" help:"Run a single task through the agent loop."`
	Cycle    CycleCmd    `cmd:"" help:"Run a batch of tasks through the cycle manager."`
	Sessions SessionsCmd `cmd:"" help:"Inspect recorded sessions."`
	Serve    ServeCmd    `cmd:"" help:"Start the loopback telemetry server and block."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file (YAML). Empty uses built-in defaults." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, or custom)." default:"simple"`
}

// VersionCmd prints build version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	fmt.Println(versionString())
	return nil
}

func main() {
	_ = godotenv.Load()

	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("agentcore"),
		kong.Description("agentcore - local-first, multi-model coding assistant core"),
		kong.UsageOnError(),
	)

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(1)
	}

	output := os.Stderr
	var cleanup func()
	if cli.LogFile != "" {
		f, c, ferr := logger.OpenLogFile(cli.LogFile)
		if ferr != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", ferr)
			os.Exit(1)
		}
		output = f
		cleanup = c
	}
	logger.Init(level, output, cli.LogFormat)
	if cleanup != nil {
		defer cleanup()
	}

	err = kctx.Run(&cli)
	if err != nil {
		slog.Error("agentcore command failed", "error", err)
	}
	kctx.FatalIfErrorf(err)
}
