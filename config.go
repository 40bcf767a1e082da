package marginalia

import (
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/riverfjs/marginalia-go/internal/annotation"
	"github.com/riverfjs/marginalia-go/internal/types"
)

// 导出类型别名
type RenderConfig = types.RenderConfig
type ClassNames = types.ClassNames
type Token = types.Token

var (
	defaultConfig     *RenderConfig
	defaultConfigOnce sync.Once
)

// DefaultConfig returns the default render configuration (singleton).
// Callers that want to change it should Clone it first.
func DefaultConfig() *RenderConfig {
	defaultConfigOnce.Do(func() {
		defaultConfig = types.DefaultRenderConfig()
	})
	return defaultConfig
}

// LoadConfig reads a YAML configuration file. Missing fields keep their
// defaults.
func LoadConfig(path string) (*RenderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// ParseConfig decodes YAML configuration on top of the defaults and
// validates the result.
//
//	window: 1000
//	max_depth: 3
//	classes:
//	  sidenote:
//	    wrapper: note
//	    reference: note-ref
//	    content: note-body
func ParseConfig(data []byte) (*RenderConfig, error) {
	cfg := DefaultConfig().Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	if cfg.Classes == nil {
		cfg.Classes = map[string]ClassNames{}
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig checks limits and class overrides.
func ValidateConfig(cfg *RenderConfig) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if cfg.Window <= 0 {
		return errors.Errorf("window must be positive, got %d", cfg.Window)
	}
	if cfg.MaxDepth < 1 || cfg.MaxDepth > types.MaxMaxDepth {
		return errors.Errorf("max_depth must be between 1 and %d, got %d", types.MaxMaxDepth, cfg.MaxDepth)
	}
	for name := range cfg.Classes {
		if _, ok := annotation.ParseKind(name); !ok {
			return errors.Errorf("unknown annotation kind %q in classes (want %s)", name, strings.Join(kindNames(), ", "))
		}
	}
	_, err := annotation.NewTable(cfg.Classes)
	return err
}

func kindNames() []string {
	var names []string
	for _, m := range annotation.DefaultTable().Markers() {
		names = append(names, m.Kind.String())
	}
	return names
}
