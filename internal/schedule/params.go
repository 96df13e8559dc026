package schedule

// Params maps a parameter name to an ordered sequence of values.
type Params map[string][]any

// Merge appends every value sequence of other onto the matching key of p.
// Existing values are never replaced.
func (p Params) Merge(other Params) {
	for name, values := range other {
		p[name] = append(p[name], values...)
	}
}

// Clone returns a copy of p that shares no slices with it.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for name, values := range p {
		cp := make([]any, len(values))
		copy(cp, values)
		out[name] = cp
	}
	return out
}
