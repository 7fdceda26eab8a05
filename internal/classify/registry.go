package classify

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCapacityExceeded = errors.New("classify: class capacity exceeded")
	ErrUnknownClass     = errors.New("classify: unknown class")
	ErrInvalidWidth     = errors.New("classify: width must be 16, 32 or 64")
	ErrFrozen           = errors.New("classify: frozen")
)

// Registry hands out bit positions to class names, first come first
// served. Registration happens on one goroutine while a tileset loads;
// after Freeze the registry is read-only and safe for concurrent reads.
type Registry struct {
	width  int
	bits   map[string]int
	names  []string
	frozen bool
}

// NewRegistry creates a registry holding at most width classes.
func NewRegistry(width int) (*Registry, error) {
	switch width {
	case 16, 32, 64:
	default:
		return nil, fmt.Errorf("width %d: %w", width, ErrInvalidWidth)
	}
	return &Registry{width: width, bits: make(map[string]int)}, nil
}

func (r *Registry) Width() int { return r.width }

// Register returns the bit for name, assigning the next free one on first
// use. Registering the same name again returns the same bit.
func (r *Registry) Register(name string) (Classification, error) {
	name = normalize(name)
	if name == "" {
		return 0, fmt.Errorf("empty class name: %w", ErrUnknownClass)
	}
	if pos, ok := r.bits[name]; ok {
		return Bit(pos), nil
	}
	if r.frozen {
		return 0, fmt.Errorf("register %q: %w", name, ErrFrozen)
	}
	if len(r.names) >= r.width {
		return 0, fmt.Errorf("class %q needs bit %d of %d: %w", name, len(r.names), r.width, ErrCapacityExceeded)
	}
	pos := len(r.names)
	r.bits[name] = pos
	r.names = append(r.names, name)
	return Bit(pos), nil
}

// Freeze ends registration. Known names still resolve through Register.
func (r *Registry) Freeze() { r.frozen = true }

func (r *Registry) Frozen() bool { return r.frozen }

// RegisterAll registers every name in order.
func (r *Registry) RegisterAll(names ...string) error {
	for _, n := range names {
		if _, err := r.Register(n); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the bit for an already registered name.
func (r *Registry) Lookup(name string) (Classification, bool) {
	pos, ok := r.bits[normalize(name)]
	if !ok {
		return 0, false
	}
	return Bit(pos), true
}

// Compose merges the classes named. Unregistered names are an error.
func (r *Registry) Compose(names ...string) (Classification, error) {
	var c Classification
	for _, n := range names {
		b, ok := r.Lookup(n)
		if !ok {
			return 0, fmt.Errorf("class %q: %w", n, ErrUnknownClass)
		}
		c = c.Merge(b)
	}
	return c, nil
}

// Name returns the class name at bit pos.
func (r *Registry) Name(pos int) (string, bool) {
	if pos < 0 || pos >= len(r.names) {
		return "", false
	}
	return r.names[pos], true
}

// Names returns the class names present in c, in bit order.
func (r *Registry) Names(c Classification) []string {
	var out []string
	for _, pos := range c.Positions() {
		if pos < len(r.names) {
			out = append(out, r.names[pos])
		}
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.names)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
