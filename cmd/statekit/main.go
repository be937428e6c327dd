package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/tailored-agentic-units/statekit/app"
	"github.com/tailored-agentic-units/statekit/orchestrate/config"
)

const usage = `Usage: statekit <command> [flags]

Commands:
  run     invoke a workflow once (or -times N) and print the record
  batch   invoke a workflow on every JSON record read from stdin
  chat    multi-turn conversation on the complex workflow
  serve   serve the workflows over Connect RPC
  call    invoke a workflow on a running server

Run 'statekit <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := environment{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "run":
		err = runCommand(ctx, env, args)
	case "batch":
		err = batchCommand(ctx, env, args)
	case "chat":
		err = chatCommand(ctx, env, args)
	case "serve":
		err = serveCommand(ctx, env, args)
	case "call":
		err = callCommand(ctx, env, args)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// common holds the flags every command that builds a runtime accepts.
type common struct {
	configFile string
	engine     string
	verbose    bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configFile, "config", "", "Path to statekit config file, JSON or YAML (optional)")
	fs.StringVar(&c.engine, "engine", "", fmt.Sprintf("Graph engine %v (overrides config)", config.Engines()))
	fs.BoolVar(&c.verbose, "verbose", false, "Enable verbose logging to stderr")
}

func (c *common) config() (*app.Config, error) {
	cfg := app.DefaultConfig()
	if c.configFile != "" {
		loaded, err := app.LoadConfig(c.configFile)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if c.engine != "" {
		cfg.SetEngine(c.engine)
	}
	return &cfg, nil
}

func (c *common) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (c *common) runtime(env environment) (*app.Runtime, *app.Config, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, nil, err
	}

	rt, err := app.New(cfg, app.WithLogger(c.logger(env.stderr)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create runtime: %w", err)
	}
	return rt, cfg, nil
}
