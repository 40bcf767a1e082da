package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/riverfjs/marginalia-go"
)

// Global carries state shared by every command.
type Global struct {
	Logger *zap.Logger
}

// CLI is the command line definition with its global flags.
type CLI struct {
	Config  string `short:"c" help:"YAML configuration file" type:"existingfile"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Render RenderCmd `cmd:"" help:"Render Markdown with annotations to HTML"`
	Check  CheckCmd  `cmd:"" help:"Report annotations that render as plain text"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("marginalia"),
		kong.Description("Markdown renderer with sidenotes, marginal notes and sidebars."),
		kong.UsageOnError(),
	)

	logger, err := newLogger(cli.Verbose)
	ctx.FatalIfErrorf(err)
	defer func() { _ = logger.Sync() }()
	marginalia.SetLogger(logger)

	ctx.FatalIfErrorf(ctx.Run(&Global{Logger: logger}, &cli))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// options loads the configuration file, if any.
func (c *CLI) options() ([]marginalia.Option, error) {
	if c.Config == "" {
		return nil, nil
	}
	cfg, err := marginalia.LoadConfig(c.Config)
	if err != nil {
		return nil, err
	}
	return []marginalia.Option{marginalia.WithConfig(cfg)}, nil
}

func readInput(file string) (string, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(file)
	return string(data), err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
