package marginalia

import (
	"go.uber.org/zap"

	"github.com/riverfjs/marginalia-go/internal/annotation"
)

// ConvertOptions holds options for markdown conversion.
type ConvertOptions struct {
	Config      *RenderConfig
	Logger      *zap.Logger
	Diagnostics func(Diagnostic)
}

// Option is a function that configures ConvertOptions.
type Option func(*ConvertOptions)

// WithConfig sets a custom RenderConfig.
func WithConfig(config *RenderConfig) Option {
	return func(opts *ConvertOptions) {
		if config != nil {
			opts.Config = config.Clone()
		}
	}
}

// WithLogger sets the logger for this conversion instead of the package logger.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *ConvertOptions) {
		opts.Logger = logger
	}
}

// WithWindow sets how many bytes after an opening marker are searched for
// the closing marker.
func WithWindow(n int) Option {
	return func(opts *ConvertOptions) {
		opts.Config.Window = n
	}
}

// WithMaxDepth sets how deeply annotation content may nest before it is
// kept as literal text.
func WithMaxDepth(n int) Option {
	return func(opts *ConvertOptions) {
		opts.Config.MaxDepth = n
	}
}

// WithClasses overrides the CSS classes of one annotation kind
// (sidenote, marginnote, sidebar_left, sidebar_right).
func WithClasses(kind string, classes ClassNames) Option {
	return func(opts *ConvertOptions) {
		opts.Config.Classes[kind] = classes
	}
}

// WithHardWraps renders soft line breaks as <br>.
func WithHardWraps(enable bool) Option {
	return func(opts *ConvertOptions) {
		opts.Config.HardWraps = enable
	}
}

// WithUnsafe lets raw HTML through.
func WithUnsafe(enable bool) Option {
	return func(opts *ConvertOptions) {
		opts.Config.Unsafe = enable
	}
}

// WithDiagnostics installs a callback for rejected or degraded annotations.
// Line and column are only filled in by Check.
func WithDiagnostics(fn func(Diagnostic)) Option {
	return func(opts *ConvertOptions) {
		opts.Diagnostics = fn
	}
}

// defaultConvertOptions returns the default conversion options.
func defaultConvertOptions() *ConvertOptions {
	return &ConvertOptions{
		Config: DefaultConfig().Clone(),
	}
}

// applyOptions applies the given options to the default options.
func applyOptions(opts ...Option) *ConvertOptions {
	options := defaultConvertOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func (o *ConvertOptions) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return Logger
}

// hooks returns the logging and diagnostics options of the annotation parser.
func (o *ConvertOptions) hooks(source []byte) []annotation.Option {
	aopts := []annotation.Option{annotation.WithLogger(o.logger())}
	if fn := o.Diagnostics; fn != nil {
		aopts = append(aopts, annotation.WithDiagnostics(func(d annotation.Diagnostic) {
			fn(newDiagnostic(d, source))
		}))
	}
	return aopts
}

// annotationOptions validates the config and translates it for the
// annotation extension.
func (o *ConvertOptions) annotationOptions() ([]annotation.Option, error) {
	if err := ValidateConfig(o.Config); err != nil {
		return nil, err
	}
	table, err := annotation.NewTable(o.Config.Classes)
	if err != nil {
		return nil, err
	}
	aopts := []annotation.Option{
		annotation.WithTable(table),
		annotation.WithWindow(o.Config.Window),
		annotation.WithMaxDepth(o.Config.MaxDepth),
	}
	return append(aopts, o.hooks(nil)...), nil
}
