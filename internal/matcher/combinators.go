package matcher

import (
	"fmt"

	"tileview/internal/tile"
)

// List runs every child and collects all of their selections.
type List struct {
	children []Matcher
}

func NewList(children ...Matcher) *List {
	return &List{children: children}
}

func buildList(m Model, env *Env, f *Factory) (Matcher, error) {
	if len(m.Children) == 0 {
		return nil, fmt.Errorf("%w: list without children", ErrInvalidModel)
	}
	children := make([]Matcher, 0, len(m.Children))
	for i, cm := range m.Children {
		c, err := f.Build(cm, env)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		children = append(children, c)
	}
	return NewList(children...), nil
}

func (l *List) Match(in tile.QueryResult, z int, out Collector) bool {
	matched := false
	for _, c := range l.children {
		if c.Match(in, z, out) {
			matched = true
		}
	}
	return matched
}

func (l *List) IsThreadSafe() bool {
	for _, c := range l.children {
		if !c.IsThreadSafe() {
			return false
		}
	}
	return true
}

type branch struct {
	when filter
	then Matcher
}

// Chooser hands the input to the first branch whose condition accepts it.
type Chooser struct {
	branches []branch
}

func buildChoice(m Model, env *Env, f *Factory) (Matcher, error) {
	if len(m.Choices) == 0 {
		return nil, fmt.Errorf("%w: choice without branches", ErrInvalidModel)
	}
	c := &Chooser{}
	for i, ch := range m.Choices {
		when, err := newFilter(env, ch.Tags, ch.Classes, ch.Flag)
		if err != nil {
			return nil, fmt.Errorf("choice %d: %w", i, err)
		}
		then, err := f.Build(ch.Matcher, env)
		if err != nil {
			return nil, fmt.Errorf("choice %d: %w", i, err)
		}
		c.branches = append(c.branches, branch{when: when, then: then})
	}
	return c, nil
}

func (c *Chooser) Match(in tile.QueryResult, z int, out Collector) bool {
	for _, b := range c.branches {
		if b.when.accepts(in.Tag) {
			return b.then.Match(in, z, out)
		}
	}
	return false
}

func (c *Chooser) IsThreadSafe() bool {
	for _, b := range c.branches {
		if !b.then.IsThreadSafe() {
			return false
		}
	}
	return true
}
