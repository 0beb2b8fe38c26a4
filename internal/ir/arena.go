package ir

// Arena is a growable byte-slab builder, used by internal/sqltemplate in
// place of incremental string concatenation when synthesizing SQL text
// (spec.md §4.4, §9 "a bump allocator pattern"). It is a deliberately
// unsafe-free adaptation of that idea: ordinary Go slices already give the
// "ordered sequence of owned entities" ownership semantics spec.md §9 calls
// for, so Arena only needs to avoid repeated reallocation, not emulate
// pointer arithmetic.
type Arena struct {
	buf []byte
}

// NewArena returns an Arena whose backing slice is pre-sized to capacityHint
// bytes, avoiding incremental regrowth for the common case of rendering one
// SQL statement.
func NewArena(capacityHint int) *Arena {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Arena{buf: make([]byte, 0, capacityHint)}
}

// Reset empties the arena without releasing its backing array, so it can be
// reused across renders of successive queries.
func (a *Arena) Reset() {
	a.buf = a.buf[:0]
}

// WriteString appends s, matching strings.Builder's method so Arena is a
// drop-in replacement at every call site that previously held a
// strings.Builder.
func (a *Arena) WriteString(s string) (int, error) {
	a.buf = append(a.buf, s...)
	return len(s), nil
}

// WriteByte appends a single byte.
func (a *Arena) WriteByte(c byte) error {
	a.buf = append(a.buf, c)
	return nil
}

// Len returns the number of bytes written so far.
func (a *Arena) Len() int { return len(a.buf) }

// String returns the accumulated bytes as a string. Like strings.Builder,
// the returned string shares no further mutation with the arena: subsequent
// writes append to a.buf, which may or may not reallocate, but the string
// header returned here was already copied out by the Go runtime's string
// conversion.
func (a *Arena) String() string { return string(a.buf) }
