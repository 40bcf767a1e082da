package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/riverfjs/marginalia-go"
)

// CheckCmd lists annotation candidates that did not render as annotations.
type CheckCmd struct {
	File   string `arg:"" optional:"" default:"-" help:"Markdown file, - for stdin"`
	Strict bool   `help:"Also report marker characters that are never closed, e.g. the % in \"50% off\""`
}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	opts, err := root.options()
	if err != nil {
		return err
	}
	input, err := readInput(c.File)
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	diags, err := marginalia.Check(input, opts...)
	if err != nil {
		return err
	}
	if n := report(os.Stdout, c.File, reportable(diags, c.Strict)); n > 0 {
		return errors.Errorf("%d annotation problem(s)", n)
	}
	return nil
}

// reportable drops unclosed candidates unless strict is set. Those are
// mostly ordinary punctuation in prose.
func reportable(diags []marginalia.Diagnostic, strict bool) []marginalia.Diagnostic {
	if strict {
		return diags
	}
	out := diags[:0:0]
	for _, d := range diags {
		if !d.Unclosed() {
			out = append(out, d)
		}
	}
	return out
}

func report(w io.Writer, file string, diags []marginalia.Diagnostic) int {
	for _, d := range diags {
		fmt.Fprintf(w, "%s:%s\n", file, d)
	}
	return len(diags)
}
