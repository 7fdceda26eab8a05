package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"tileview/internal/classify"
	"tileview/internal/layer"
	"tileview/internal/matcher"
	"tileview/internal/render"
	"tileview/internal/tile"
)

// Layer sources that are not map tile layers.
const (
	SourceObjects = "objects"
	SourceViewers = "viewers"
)

// TagSpec describes one graphic tag.
type TagSpec struct {
	Classes    []string          `yaml:"classes,omitempty"`
	Flags      []string          `yaml:"flags,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// LayerSpec binds a data source to a matcher tree. Source is a map layer
// name, SourceObjects or SourceViewers.
type LayerSpec struct {
	Name    string        `yaml:"name"`
	Source  string        `yaml:"source"`
	Sort    string        `yaml:"sort,omitempty"`
	Matcher matcher.Model `yaml:"matcher"`
}

// Tileset is the yaml file describing how map tags become sprites.
type Tileset struct {
	Width   int                         `yaml:"width,omitempty"`
	Classes []string                    `yaml:"classes,omitempty"`
	Tags    map[string]TagSpec          `yaml:"tags,omitempty"`
	Glyphs  map[string]render.GlyphSpec `yaml:"glyphs,omitempty"`

	// Images is a directory of <sprite>.png files, one glyph each.
	Images string      `yaml:"images,omitempty"`
	Layers []LayerSpec `yaml:"layers"`
}

// DefaultTileset draws every map layer, the map objects and the viewers
// with their own tags.
func DefaultTileset() *Tileset {
	basic := matcher.Model{Kind: "basic"}
	return &Tileset{
		Width: classify.MaxWidth,
		Layers: []LayerSpec{
			{Name: "ground", Source: "ground", Matcher: basic},
			{Name: SourceObjects, Source: SourceObjects, Matcher: basic},
			{Name: SourceViewers, Source: SourceViewers, Matcher: basic},
		},
	}
}

// LoadTileset reads a tileset file. An empty path yields DefaultTileset.
func LoadTileset(path string) (*Tileset, error) {
	if path == "" {
		return DefaultTileset(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tileset: %w", err)
	}
	ts, err := ParseTileset(data)
	if err != nil {
		return nil, fmt.Errorf("tileset %s: %w", path, err)
	}
	return ts, nil
}

// ParseTileset decodes yaml, rejecting unknown fields.
func ParseTileset(data []byte) (*Tileset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	ts := &Tileset{}
	if err := dec.Decode(ts); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if ts.Width == 0 {
		ts.Width = classify.MaxWidth
	}
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	return ts, nil
}

func (t *Tileset) Validate() error {
	if len(t.Layers) == 0 {
		return fmt.Errorf("tileset has no layers: %w", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(t.Layers))
	var order layer.SortOrder
	for i, l := range t.Layers {
		if l.Name == "" || l.Source == "" {
			return fmt.Errorf("layer %d needs a name and a source: %w", i, ErrInvalidConfig)
		}
		if seen[l.Name] {
			return fmt.Errorf("duplicate layer %q: %w", l.Name, ErrInvalidConfig)
		}
		seen[l.Name] = true
		if l.Matcher.Kind == "" {
			return fmt.Errorf("layer %q matcher has no kind: %w", l.Name, ErrInvalidConfig)
		}
		o, err := layer.ParseSortOrder(l.Sort)
		if err != nil {
			return fmt.Errorf("layer %q: %w: %w", l.Name, ErrInvalidConfig, err)
		}
		if i > 0 && o != order {
			return fmt.Errorf("layer %q sorts %s, want %s: %w", l.Name, o, order, ErrInvalidConfig)
		}
		order = o
	}
	return nil
}

// Order is the sort order shared by every layer.
func (t *Tileset) Order() layer.SortOrder {
	o, _ := layer.ParseSortOrder(t.Layers[0].Sort)
	return o
}

// Metadata registers the classes in declaration order, then defines the
// tags in name order so bit positions are stable between runs. The store
// comes back frozen.
func (t *Tileset) Metadata() (*classify.MetadataStore, error) {
	reg, err := classify.NewRegistry(t.Width)
	if err != nil {
		return nil, fmt.Errorf("tileset: %w", err)
	}
	if err := reg.RegisterAll(t.Classes...); err != nil {
		return nil, fmt.Errorf("tileset classes: %w", err)
	}
	meta := classify.NewMetadataStore(reg)
	names := make([]string, 0, len(t.Tags))
	for name := range t.Tags {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		spec := t.Tags[name]
		if err := meta.Define(tile.GraphicTag(name), spec.Classes, spec.Flags, spec.Properties); err != nil {
			return nil, fmt.Errorf("tileset tags: %w", err)
		}
	}
	meta.Freeze()
	return meta, nil
}

// Atlas layers the glyph specs over the image glyphs over the defaults.
func (t *Tileset) Atlas() (*render.Atlas, error) {
	a := render.DefaultAtlas()
	if t.Images != "" {
		n, err := a.LoadImages(t.Images)
		if err != nil {
			return nil, fmt.Errorf("tileset images: %w", err)
		}
		logrus.WithFields(logrus.Fields{"dir": t.Images, "glyphs": n}).Debug("loaded image glyphs")
	}
	if err := a.DefineSpecs(t.Glyphs); err != nil {
		return nil, err
	}
	return a, nil
}
