package main

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/riverfjs/marginalia-go"
)

// RenderCmd renders one Markdown file.
type RenderCmd struct {
	File   string `arg:"" optional:"" default:"-" help:"Markdown file, - for stdin"`
	Output string `short:"o" help:"Output file instead of stdout"`
	Tokens bool   `help:"Write the token stream as YAML instead of HTML"`
	Watch  bool   `short:"w" help:"Render again whenever the file changes"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	opts, err := root.options()
	if err != nil {
		return err
	}
	conv, err := marginalia.NewConverter(opts...)
	if err != nil {
		return err
	}
	if err := r.renderOnce(conv); err != nil {
		return err
	}
	if !r.Watch {
		return nil
	}
	if r.File == "" || r.File == "-" {
		return errors.New("--watch needs a file argument")
	}

	ctx, cancel := signalContext()
	defer cancel()
	return watchFile(ctx, r.File, g.Logger, func() {
		if err := r.renderOnce(conv); err != nil {
			g.Logger.Error("render failed", zap.String("file", r.File), zap.Error(err))
			return
		}
		g.Logger.Info("rendered", zap.String("file", r.File))
	})
}

func (r *RenderCmd) renderOnce(conv *marginalia.Converter) error {
	input, err := readInput(r.File)
	if err != nil {
		return errors.Wrap(err, "read input")
	}

	var out []byte
	if r.Tokens {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(conv.Tokens(input)); err != nil {
			return errors.Wrap(err, "encode tokens")
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, "encode tokens")
		}
		out = buf.Bytes()
	} else {
		html, err := conv.Convert(input)
		if err != nil {
			return err
		}
		out = []byte(html)
	}

	if r.Output == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return errors.Wrapf(os.WriteFile(r.Output, out, 0o644), "write %s", r.Output)
}
