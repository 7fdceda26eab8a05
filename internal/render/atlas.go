package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"tileview/internal/maps"
	"tileview/internal/tile"
)

var ErrInvalidGlyph = errors.New("render: invalid glyph")

// Glyph is how a sprite looks in a terminal. A nil Bg keeps whatever
// background is underneath.
type Glyph struct {
	Ch   rune
	Fg   RGB
	Bg   *RGB
	Bold bool
	// Box replaces Ch with a box-drawing rune chosen from a four digit
	// NESW connection qualifier.
	Box bool
}

// MissingGlyph marks sprites nothing in the atlas could resolve.
var MissingGlyph = Glyph{Ch: '?', Fg: RGB{255, 0, 255}, Bold: true}

// boxRunes is indexed by the connection mask N=8 E=4 S=2 W=1.
var boxRunes = [16]rune{
	'■', '╴', '╷', '┐',
	'╶', '─', '┌', '┬',
	'╵', '┘', '│', '┤',
	'└', '┴', '├', '┼',
}

// BoxRune returns the box-drawing rune for a qualifier such as "1010".
func BoxRune(qualifier string) (rune, bool) {
	if len(qualifier) != 4 {
		return 0, false
	}
	mask := 0
	for _, d := range qualifier {
		switch d {
		case '0':
			mask <<= 1
		case '1':
			mask = mask<<1 | 1
		default:
			return 0, false
		}
	}
	return boxRunes[mask], true
}

// GlyphSpec is the tileset file form of a Glyph. Colors are names
// ("bright_green") or hex ("#33aa55").
type GlyphSpec struct {
	Char string `yaml:"char"`
	Fg   string `yaml:"fg"`
	Bg   string `yaml:"bg,omitempty"`
	Bold bool   `yaml:"bold,omitempty"`
	Box  bool   `yaml:"box,omitempty"`
}

// ParseColor accepts an ANSI color name or #rrggbb.
func ParseColor(s string) (RGB, error) {
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 6 {
			return RGB{}, fmt.Errorf("color %q: %w", s, ErrInvalidGlyph)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return RGB{}, fmt.Errorf("color %q: %w", s, ErrInvalidGlyph)
		}
		return RGB{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
	}
	code := maps.ResolveColor(s)
	if code == 37 && s != "white" {
		return RGB{}, fmt.Errorf("color %q: %w", s, ErrInvalidGlyph)
	}
	return AnsiToRGB(code), nil
}

// Glyph converts the spec.
func (s GlyphSpec) Glyph() (Glyph, error) {
	runes := []rune(s.Char)
	if len(runes) != 1 && !(s.Box && len(runes) == 0) {
		return Glyph{}, fmt.Errorf("char %q must be one rune: %w", s.Char, ErrInvalidGlyph)
	}
	g := Glyph{Ch: '■', Bold: s.Bold, Box: s.Box}
	if len(runes) == 1 {
		g.Ch = runes[0]
	}
	var err error
	if g.Fg, err = ParseColor(s.Fg); err != nil {
		return Glyph{}, err
	}
	if s.Bg != "" {
		bg, err := ParseColor(s.Bg)
		if err != nil {
			return Glyph{}, err
		}
		g.Bg = &bg
	}
	return g, nil
}

// Atlas maps sprite tags to glyphs. Lookups fall back from the full tag
// to prefix+id, then the bare id, then the legend entry of a map cell,
// and finally MissingGlyph. It is safe for concurrent use.
type Atlas struct {
	mu     sync.RWMutex
	glyphs map[string]Glyph
}

func NewAtlas() *Atlas {
	return &Atlas{glyphs: make(map[string]Glyph)}
}

// DefaultAtlas knows the map object tags and nothing else.
func DefaultAtlas() *Atlas {
	a := NewAtlas()
	a.Define(string(maps.PortalTag), Glyph{Ch: 'Ω', Fg: RGB{220, 120, 255}, Bold: true})
	a.Define(string(maps.SpawnTag), Glyph{Ch: '✦', Fg: RGB{255, 220, 100}})
	return a
}

// NewAtlasFromSpecs builds DefaultAtlas plus specs.
func NewAtlasFromSpecs(specs map[string]GlyphSpec) (*Atlas, error) {
	a := DefaultAtlas()
	if err := a.DefineSpecs(specs); err != nil {
		return nil, err
	}
	return a, nil
}

// DefineSpecs converts and defines every spec, replacing existing glyphs.
func (a *Atlas) DefineSpecs(specs map[string]GlyphSpec) error {
	for tag, spec := range specs {
		g, err := spec.Glyph()
		if err != nil {
			return fmt.Errorf("glyph %s: %w", tag, err)
		}
		a.Define(tag, g)
	}
	return nil
}

func (a *Atlas) Define(tag string, g Glyph) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.glyphs[tag] = g
}

func (a *Atlas) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.glyphs)
}

func (a *Atlas) get(key string) (Glyph, bool) {
	if key == "" {
		return Glyph{}, false
	}
	g, ok := a.glyphs[key]
	return g, ok
}

// Lookup resolves the glyph for a sprite. entity is consulted for legend
// colors when the atlas has no entry.
func (a *Atlas) Lookup(tag tile.SpriteTag, entity any) Glyph {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, key := range []string{tag.String(), tag.Base().String(), tag.ID} {
		if g, ok := a.get(key); ok {
			if g.Box {
				if r, ok := BoxRune(tag.Qualifier); ok {
					g.Ch = r
				}
			}
			return g
		}
	}
	if cell, ok := entity.(maps.Cell); ok && tag.ID == cell.Def.Name {
		return legendGlyph(cell.Def)
	}
	return MissingGlyph
}

func legendGlyph(d maps.TileDef) Glyph {
	g := Glyph{Ch: d.Char, Fg: AnsiToRGB(d.Fg)}
	if d.Bg != 0 {
		bg := AnsiToRGB(d.Bg)
		g.Bg = &bg
	}
	return g
}
