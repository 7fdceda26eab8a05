package matcher

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// BuildFunc turns a model into a live matcher. Builders of combinators
// use f to build their children.
type BuildFunc func(m Model, env *Env, f *Factory) (Matcher, error)

var ErrDuplicateKind = errors.New("matcher: kind already registered")

// Factory maps kind strings to builders. New matcher kinds are added with
// Register.
type Factory struct {
	mu    sync.RWMutex
	kinds map[string]BuildFunc
}

// NewFactory returns a factory with every built-in kind registered.
func NewFactory() *Factory {
	f := &Factory{kinds: make(map[string]BuildFunc)}
	for kind, fn := range map[string]BuildFunc{
		"basic":     buildBasic,
		"cardinal":  buildCardinal,
		"corner":    buildCorner,
		"diagonal":  buildDiagonal,
		"cellgroup": buildCellGroup,
		"blend":     buildBlend,
		"list":      buildList,
		"choice":    buildChoice,
	} {
		f.kinds[kind] = fn
	}
	return f
}

func (f *Factory) Register(kind string, fn BuildFunc) error {
	kind = strings.ToLower(kind)
	if kind == "" || fn == nil {
		return fmt.Errorf("%w: empty kind or builder", ErrInvalidModel)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.kinds[kind]; ok {
		return fmt.Errorf("%q: %w", kind, ErrDuplicateKind)
	}
	f.kinds[kind] = fn
	return nil
}

// Kinds lists the registered kinds, sorted.
func (f *Factory) Kinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.kinds))
	for k := range f.kinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Build constructs the matcher tree described by m.
func (f *Factory) Build(m Model, env *Env) (Matcher, error) {
	if env == nil {
		return nil, fmt.Errorf("env: %w", ErrMissingEnv)
	}
	f.mu.RLock()
	fn, ok := f.kinds[strings.ToLower(m.Kind)]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", m.Kind, ErrUnknownKind)
	}
	built, err := fn(m, env, f)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", m.Kind, err)
	}
	return built, nil
}
