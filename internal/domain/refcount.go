package domain

// RefCount is the number of live relations pointing at a shared row
// (tag usage, map/country attributions, likes). It never drops below zero.
type RefCount int

// Attach returns the count after one more relation was added.
func (c RefCount) Attach() RefCount {
	return c + 1
}

// Detach returns the count after one relation was removed, floored at zero.
func (c RefCount) Detach() RefCount {
	if c <= 0 {
		return 0
	}
	return c - 1
}

// Released reports whether no relation points at the row anymore.
func (c RefCount) Released() bool {
	return c <= 0
}
