package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tileview/internal/maps"
	"tileview/internal/tile"
)

func TestBoxRune(t *testing.T) {
	tests := []struct {
		qualifier string
		want      rune
		ok        bool
	}{
		{"0000", '■', true},
		{"1010", '│', true},
		{"0101", '─', true},
		{"0110", '┌', true},
		{"1001", '┘', true},
		{"1110", '├', true},
		{"1111", '┼', true},
		{"101", 0, false},
		{"10a0", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.qualifier, func(t *testing.T) {
			got, ok := BoxRune(tt.qualifier)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAtlasFallbackChain(t *testing.T) {
	a := NewAtlas()
	full := Glyph{Ch: 'F'}
	base := Glyph{Ch: 'B'}
	bare := Glyph{Ch: 'I'}
	a.Define("wall_1010", full)
	a.Define("blendwater", base)
	a.Define("grass", bare)

	water := maps.TileDef{Char: '~', Fg: 34, Bg: 44, Name: "water"}
	blue := RGB{0, 0, 170}

	tests := []struct {
		name   string
		tag    tile.SpriteTag
		entity any
		want   Glyph
	}{
		{"full tag", tile.SpriteTag{ID: "wall", Qualifier: "1010"}, nil, full},
		{"prefix and id", tile.SpriteTag{Prefix: "blend", ID: "water", Qualifier: "up"}, nil, base},
		{"bare id", tile.SpriteTag{Prefix: "x", ID: "grass", Qualifier: "q"}, nil, bare},
		{"legend", tile.Sprite("water"), maps.Cell{Def: water}, Glyph{Ch: '~', Fg: blue, Bg: &blue}},
		{"legend of another tile", tile.Sprite("lava"), maps.Cell{Def: water}, MissingGlyph},
		{"missing", tile.Sprite("lava"), nil, MissingGlyph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Lookup(tt.tag, tt.entity))
		})
	}
}

func TestAtlasBoxGlyphs(t *testing.T) {
	a := NewAtlas()
	a.Define("wall", Glyph{Ch: '#', Box: true})

	assert.Equal(t, '│', a.Lookup(tile.Sprite("wall").WithQualifier("1010"), nil).Ch)
	assert.Equal(t, '┌', a.Lookup(tile.Sprite("wall").WithQualifier("0110"), nil).Ch)
	assert.Equal(t, '#', a.Lookup(tile.Sprite("wall").WithQualifier("d1010"), nil).Ch)
	assert.Equal(t, '#', a.Lookup(tile.Sprite("wall"), nil).Ch)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"#33aa55", RGB{0x33, 0xaa, 0x55}, false},
		{"bright_red", RGB{255, 85, 85}, false},
		{"white", RGB{170, 170, 170}, false},
		{"nope", RGB{}, true},
		{"#12", RGB{}, true},
		{"#zzzzzz", RGB{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidGlyph)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewAtlasFromSpecs(t *testing.T) {
	a, err := NewAtlasFromSpecs(map[string]GlyphSpec{
		"grass": {Char: "\"", Fg: "green", Bg: "#102010"},
		"wall":  {Fg: "gray", Box: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, a.Len(), "defaults plus two")

	g := a.Lookup(tile.Sprite("grass"), nil)
	assert.Equal(t, '"', g.Ch)
	require.NotNil(t, g.Bg)
	assert.Equal(t, RGB{0x10, 0x20, 0x10}, *g.Bg)
	assert.Equal(t, '─', a.Lookup(tile.Sprite("wall").WithQualifier("0101"), nil).Ch)
	assert.Equal(t, 'Ω', a.Lookup(tile.Sprite(string(maps.PortalTag)), nil).Ch)

	t.Run("invalid specs", func(t *testing.T) {
		for name, spec := range map[string]GlyphSpec{
			"two runes": {Char: "ab", Fg: "red"},
			"no rune":   {Fg: "red"},
			"bad fg":    {Char: "x", Fg: "mauve"},
			"bad bg":    {Char: "x", Fg: "red", Bg: "#1"},
		} {
			_, err := NewAtlasFromSpecs(map[string]GlyphSpec{name: spec})
			assert.ErrorIs(t, err, ErrInvalidGlyph, name)
		}
	})
}
