package annotation

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/riverfjs/marginalia-go/internal/types"
)

// Kind identifies one of the four annotation constructs.
type Kind int

const (
	Sidenote Kind = iota
	MarginalNote
	LeftSidebar
	RightSidebar

	numKinds
)

var kindNames = [numKinds]string{"sidenote", "marginnote", "sidebar_left", "sidebar_right"}

// String returns the token prefix of the kind, e.g. "sidenote".
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind maps a token prefix back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Family is the discriminant shared by all kinds: notes carry a reference
// and a body, sidebars carry a body only.
type Family int

const (
	FamilyNote Family = iota
	FamilySidebar
)

// Family reports whether k is a note or a sidebar.
func (k Kind) Family() Family {
	switch k {
	case Sidenote, MarginalNote:
		return FamilyNote
	default:
		return FamilySidebar
	}
}

// Role is the structural position of a node inside one annotation.
type Role int

const (
	RoleWrapper Role = iota
	RoleReference
	RoleContent

	numRoles
)

var roleSuffix = [numRoles]string{"", "_ref", "_content"}

func (r Role) String() string {
	switch r {
	case RoleWrapper:
		return "wrapper"
	case RoleReference:
		return "reference"
	case RoleContent:
		return "content"
	}
	return "unknown"
}

// Marker is the immutable configuration of one annotation kind.
type Marker struct {
	Kind  Kind
	Open  string
	Close string
	// Lead is Open[0], used for constant time dispatch.
	Lead byte
	// Separator splits reference from body. Zero for sidebars.
	Separator byte

	WrapperClass string
	RefClass     string
	Class        string
}

// IsNote reports whether the marker has a reference/body split.
func (m *Marker) IsNote() bool {
	return m.Kind.Family() == FamilyNote
}

// Roles lists the structural roles a match of this marker produces, outermost
// first.
func (m *Marker) Roles() []Role {
	if m.IsNote() {
		return []Role{RoleWrapper, RoleReference, RoleContent}
	}
	return []Role{RoleWrapper}
}

// ClassFor returns the CSS class rendered on the span of the given role.
// Sidebars have a single span that carries the body class.
func (m *Marker) ClassFor(r Role) string {
	switch {
	case !m.IsNote():
		return m.Class
	case r == RoleReference:
		return m.RefClass
	case r == RoleContent:
		return m.Class
	default:
		return m.WrapperClass
	}
}

// TokenType returns the token type name for the role and nesting direction,
// e.g. "sidenote_ref_open".
func (m *Marker) TokenType(r Role, opening bool) string {
	suffix := "_close"
	if opening {
		suffix = "_open"
	}
	return m.Kind.String() + roleSuffix[r] + suffix
}

var builtinMarkers = [numKinds]Marker{
	Sidenote: {
		Kind: Sidenote, Open: "++", Close: "++", Separator: '|',
		WrapperClass: "sidenote", RefClass: "sidenote-ref", Class: "sidenote-content",
	},
	MarginalNote: {
		Kind: MarginalNote, Open: "!!", Close: "!!", Separator: '|',
		WrapperClass: "marginnote", RefClass: "marginnote-ref", Class: "marginnote-content",
	},
	LeftSidebar: {
		Kind: LeftSidebar, Open: "$", Close: "$",
		Class: "sidebar-left",
	},
	RightSidebar: {
		Kind: RightSidebar, Open: "%", Close: "%",
		Class: "sidebar-right",
	},
}

// Table holds the four markers and the lead byte dispatch index.
// A Table is never modified after construction.
type Table struct {
	markers [numKinds]Marker
	lead    [256]*Marker
}

var defaultTable = mustTable(nil)

// DefaultTable returns the built-in marker table.
func DefaultTable() *Table {
	return defaultTable
}

// NewTable builds a table from the built-in markers with the given class
// overrides applied. Keys are kind names as returned by Kind.String.
func NewTable(classes map[string]types.ClassNames) (*Table, error) {
	t := &Table{markers: builtinMarkers}
	for name, cn := range classes {
		k, ok := ParseKind(name)
		if !ok {
			return nil, errors.Errorf("unknown annotation kind %q", name)
		}
		m := &t.markers[k]
		if err := override(&m.WrapperClass, cn.Wrapper); err != nil {
			return nil, errors.Wrapf(err, "%s wrapper class", name)
		}
		if err := override(&m.RefClass, cn.Reference); err != nil {
			return nil, errors.Wrapf(err, "%s reference class", name)
		}
		if err := override(&m.Class, cn.Content); err != nil {
			return nil, errors.Wrapf(err, "%s content class", name)
		}
	}
	for i := range t.markers {
		m := &t.markers[i]
		m.Lead = m.Open[0]
		t.lead[m.Lead] = m
	}
	return t, nil
}

func mustTable(classes map[string]types.ClassNames) *Table {
	t, err := NewTable(classes)
	if err != nil {
		panic(err)
	}
	return t
}

func override(dst *string, v string) error {
	if v == "" {
		return nil
	}
	if strings.ContainsAny(v, "\"'<>&") {
		return errors.Errorf("invalid class name %q", v)
	}
	*dst = v
	return nil
}

// Marker returns the marker for k.
func (t *Table) Marker(k Kind) *Marker {
	return &t.markers[k]
}

// Markers returns all markers in Kind order.
func (t *Table) Markers() []*Marker {
	out := make([]*Marker, 0, numKinds)
	for i := range t.markers {
		out = append(out, &t.markers[i])
	}
	return out
}

// Triggers returns the lead bytes of every marker.
func (t *Table) Triggers() []byte {
	out := make([]byte, 0, numKinds)
	for i := range t.markers {
		out = append(out, t.markers[i].Lead)
	}
	return out
}
