package types

// Token is one entry of the flat token stream recovered from the AST.
//
// Nesting is +1 for opening tokens, -1 for closing tokens and 0 for leaves.
// Markup carries the literal marker text on annotation open tokens.
type Token struct {
	Type    string `json:"type" yaml:"type"`
	Tag     string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Nesting int    `json:"nesting" yaml:"nesting"`
	Level   int    `json:"level" yaml:"level"`
	Markup  string `json:"markup,omitempty" yaml:"markup,omitempty"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// ClassNames overrides the CSS classes of one annotation kind.
// Empty fields keep the built-in class.
type ClassNames struct {
	Wrapper   string `yaml:"wrapper,omitempty"`
	Reference string `yaml:"reference,omitempty"`
	Content   string `yaml:"content,omitempty"`
}

// RenderConfig 渲染配置
type RenderConfig struct {
	// Window bounds the closing marker search, in bytes after the opening marker.
	Window int `yaml:"window"`
	// MaxDepth is the number of nested fragment parses allowed per document.
	MaxDepth int `yaml:"max_depth"`
	// Classes is keyed by annotation kind name: sidenote, marginnote,
	// sidebar_left, sidebar_right.
	Classes map[string]ClassNames `yaml:"classes,omitempty"`
	// HardWraps renders soft line breaks as <br>.
	HardWraps bool `yaml:"hard_wraps"`
	// Unsafe lets raw HTML through the renderer.
	Unsafe bool `yaml:"unsafe"`
}

const (
	DefaultWindow   = 1000
	DefaultMaxDepth = 3
	MaxMaxDepth     = 16
)

// DefaultRenderConfig 返回默认渲染配置
func DefaultRenderConfig() *RenderConfig {
	return &RenderConfig{
		Window:   DefaultWindow,
		MaxDepth: DefaultMaxDepth,
		Classes:  map[string]ClassNames{},
	}
}

// Clone returns a deep copy so callers can tweak a shared default.
func (c *RenderConfig) Clone() *RenderConfig {
	out := *c
	out.Classes = make(map[string]ClassNames, len(c.Classes))
	for k, v := range c.Classes {
		out.Classes[k] = v
	}
	return &out
}
