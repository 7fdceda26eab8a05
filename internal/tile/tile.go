// Package tile holds the vocabulary shared between data sources,
// matchers, layers and renderers.
package tile

import (
	"context"
	"strings"

	"tileview/internal/nav"
	"tileview/internal/plan"
	"tileview/internal/view"
)

// GraphicTag names what abstract thing occupies a cell, e.g. "grass".
type GraphicTag string

// SpriteTag names a concrete sprite variant: prefix + id + qualifier.
type SpriteTag struct {
	Prefix    string
	ID        string
	Qualifier string
}

// Sprite builds a SpriteTag for an unqualified id.
func Sprite(id string) SpriteTag {
	return SpriteTag{ID: id}
}

func (s SpriteTag) WithQualifier(q string) SpriteTag {
	s.Qualifier = q
	return s
}

func (s SpriteTag) WithPrefix(p string) SpriteTag {
	s.Prefix = p
	return s
}

// Base drops the qualifier.
func (s SpriteTag) Base() SpriteTag {
	return SpriteTag{Prefix: s.Prefix, ID: s.ID}
}

func (s SpriteTag) IsZero() bool {
	return s == SpriteTag{}
}

// String renders the tag the way tilesets key sprites:
// prefix+id, then "_"+qualifier when there is one.
func (s SpriteTag) String() string {
	var b strings.Builder
	b.WriteString(s.Prefix)
	b.WriteString(s.ID)
	if s.Qualifier != "" {
		b.WriteByte('_')
		b.WriteString(s.Qualifier)
	}
	return b.String()
}

// ParseSpriteTag splits "id_qualifier" at the first underscore. Prefixes
// cannot be recovered from the string form.
func ParseSpriteTag(s string) SpriteTag {
	id, q, _ := strings.Cut(s, "_")
	return SpriteTag{ID: id, Qualifier: q}
}

// SpritePosition says which part of a cell a sprite covers.
type SpritePosition int

const (
	Whole SpritePosition = iota
	Up
	Right
	Down
	Left
	CellNorthWest
	CellNorthEast
	CellSouthEast
	CellSouthWest
)

var positionNames = [...]string{"whole", "up", "right", "down", "left", "nw", "ne", "se", "sw"}

func (p SpritePosition) String() string {
	if p < 0 || int(p) >= len(positionNames) {
		return "invalid"
	}
	return positionNames[p]
}

// Offset is the sub-tile offset of the sprite's top-left, in cells.
func (p SpritePosition) Offset() nav.ContinuousMapCoordinate {
	switch p {
	case Right, CellNorthEast:
		return nav.AtF(0.5, 0)
	case Down, CellSouthWest:
		return nav.AtF(0, 0.5)
	case CellSouthEast:
		return nav.AtF(0.5, 0.5)
	}
	return nav.AtF(0, 0)
}

// Scale is the fraction of the cell the sprite covers on each axis.
func (p SpritePosition) Scale() (float64, float64) {
	switch p {
	case Up, Down:
		return 1, 0.5
	case Left, Right:
		return 0.5, 1
	case CellNorthWest, CellNorthEast, CellSouthEast, CellSouthWest:
		return 0.5, 0.5
	}
	return 1, 1
}

// EdgePosition returns the half-cell position touching direction d.
func EdgePosition(d nav.Direction) SpritePosition {
	switch d {
	case nav.North:
		return Up
	case nav.East:
		return Right
	case nav.South:
		return Down
	case nav.West:
		return Left
	}
	return Whole
}

// QueryResult is one entity found by a data source.
type QueryResult struct {
	Tag      GraphicTag
	Entity   any
	Position nav.ContinuousMapCoordinate
}

// TileDataSet is a source of entities for one layer. Both queries clear
// out and return it repopulated.
type TileDataSet interface {
	QuerySparse(area plan.Area, z int, out []QueryResult) []QueryResult
	QueryPoint(c nav.MapCoordinate, z int, out []QueryResult) []QueryResult
	IsThreadSafe() bool
}

// RenderInstruction is an entity resolved to a sprite.
type RenderInstruction struct {
	Entity      any
	Tag         SpriteTag
	Offset      SpritePosition
	MapPosition nav.ContinuousMapCoordinate
}

// ScreenRenderInstruction is a RenderInstruction placed on screen. Order
// breaks ties between instructions at the same position.
type ScreenRenderInstruction struct {
	RenderInstruction
	Screen view.ScreenPosition
	Order  int
}

// TileRenderer draws one sorted frame.
type TileRenderer interface {
	RenderBatch(ctx context.Context, v view.Viewport, batch []ScreenRenderInstruction) error
}
