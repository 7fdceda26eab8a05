package classify

import (
	"fmt"

	"tileview/internal/tile"
)

// TagInfo is the static rule table entry for one graphic tag.
type TagInfo struct {
	Classes    Classification
	Flags      map[string]bool
	Properties map[string]string
}

// MetadataStore maps graphic tags to their TagInfo. It is filled with
// Define on one goroutine, then frozen; matchers read it without locks.
type MetadataStore struct {
	registry *Registry
	tags     map[tile.GraphicTag]TagInfo
	frozen   bool
}

func NewMetadataStore(r *Registry) *MetadataStore {
	return &MetadataStore{registry: r, tags: make(map[tile.GraphicTag]TagInfo)}
}

func (m *MetadataStore) Registry() *Registry { return m.registry }

// Define sets the classes, flags and properties of tag. Class names are
// registered on the fly.
func (m *MetadataStore) Define(tag tile.GraphicTag, classes []string, flags []string, props map[string]string) error {
	if m.frozen {
		return fmt.Errorf("define %q: %w", tag, ErrFrozen)
	}
	var c Classification
	for _, name := range classes {
		b, err := m.registry.Register(name)
		if err != nil {
			return fmt.Errorf("tag %q: %w", tag, err)
		}
		c = c.Merge(b)
	}
	info := TagInfo{Classes: c, Flags: make(map[string]bool, len(flags)), Properties: make(map[string]string, len(props))}
	for _, f := range flags {
		info.Flags[f] = true
	}
	for k, v := range props {
		info.Properties[k] = v
	}
	m.tags[tag] = info
	return nil
}

// Freeze makes the store and its registry read-only.
func (m *MetadataStore) Freeze() {
	m.frozen = true
	m.registry.Freeze()
}

func (m *MetadataStore) Frozen() bool { return m.frozen }

func (m *MetadataStore) Info(tag tile.GraphicTag) (TagInfo, bool) {
	info, ok := m.tags[tag]
	return info, ok
}

// Classification returns the classes of tag; unknown tags have none.
func (m *MetadataStore) Classification(tag tile.GraphicTag) Classification {
	info, _ := m.Info(tag)
	return info.Classes
}

func (m *MetadataStore) HasFlag(tag tile.GraphicTag, flag string) bool {
	info, _ := m.Info(tag)
	return info.Flags[flag]
}

func (m *MetadataStore) Property(tag tile.GraphicTag, key string) (string, bool) {
	info, _ := m.Info(tag)
	v, ok := info.Properties[key]
	return v, ok
}

// Tags returns every defined tag; order is unspecified.
func (m *MetadataStore) Tags() []tile.GraphicTag {
	out := make([]tile.GraphicTag, 0, len(m.tags))
	for t := range m.tags {
		out = append(out, t)
	}
	return out
}
