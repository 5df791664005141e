package route

import (
	"net/url"
	"strings"
)

// Value is a resolved route parameter value.
//
// A Value distinguishes an absent optional catch-all from an explicit empty
// segment list: both have no parts, but only one is Present. Segments that
// branch on that distinction must not have the two collapse into one cache
// entry.
type Value struct {
	// Present reports whether the parameter was provided at all.
	Present bool

	// Parts holds the path segments of the value. A plain parameter has
	// exactly one part; a catch-all may have zero or more.
	Parts []string
}

// StringValue returns a present single-part value.
func StringValue(s string) Value {
	return Value{Present: true, Parts: []string{s}}
}

// CatchAllValue returns a present catch-all value with the given parts.
// An empty call returns the explicit empty-sequence value.
func CatchAllValue(parts ...string) Value {
	if parts == nil {
		parts = []string{}
	}
	return Value{Present: true, Parts: parts}
}

// AbsentValue returns the value for an optional parameter that was not
// provided.
func AbsentValue() Value {
	return Value{}
}

// Encode returns a canonical string form of the value, suitable for key
// derivation. Absent values encode distinctly from present empty ones.
func (v Value) Encode() string {
	if !v.Present {
		return "-"
	}
	if len(v.Parts) == 0 {
		return "="
	}
	escaped := make([]string, len(v.Parts))
	for i, p := range v.Parts {
		escaped[i] = url.PathEscape(p)
	}
	return "=" + strings.Join(escaped, "/")
}

// Equal reports whether two values are identical.
func (v Value) Equal(o Value) bool {
	if v.Present != o.Present || len(v.Parts) != len(o.Parts) {
		return false
	}
	for i := range v.Parts {
		if v.Parts[i] != o.Parts[i] {
			return false
		}
	}
	return true
}

// Params is the resolved parameter mapping for a navigation.
type Params map[string]Value

// Get returns the value for name, or the absent value if the name was never
// resolved.
func (p Params) Get(name string) Value {
	if v, ok := p[name]; ok {
		return v
	}
	return AbsentValue()
}

// Subset returns a copy of p restricted to the given names. Names missing
// from p appear in the result as absent values.
func (p Params) Subset(names []string) Params {
	out := make(Params, len(names))
	for _, name := range names {
		out[name] = p.Get(name)
	}
	return out
}
