package matcher

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Model is the serializable description of a matcher tree.
type Model struct {
	Kind   string `yaml:"kind"`
	Prefix string `yaml:"prefix,omitempty"`
	// ID overrides the sprite id; by default the input tag is used.
	ID string `yaml:"id,omitempty"`

	// Tags, Classes and Flag restrict which inputs the matcher handles.
	Tags    []string `yaml:"tags,omitempty"`
	Classes []string `yaml:"classes,omitempty"`
	Flag    string   `yaml:"flag,omitempty"`

	// Connect names the classes neighbors must carry to count as
	// connected. Empty means the input's own classes.
	Connect []string `yaml:"connect,omitempty"`
	Mode    string   `yaml:"mode,omitempty"`
	Groups  []string `yaml:"groups,omitempty"`
	Source  string   `yaml:"source,omitempty"`

	Children []Model  `yaml:"children,omitempty"`
	Choices  []Choice `yaml:"choices,omitempty"`
}

// Choice is one branch of a choice matcher. A choice without conditions
// always applies.
type Choice struct {
	Tags    []string `yaml:"tags,omitempty"`
	Classes []string `yaml:"classes,omitempty"`
	Flag    string   `yaml:"flag,omitempty"`
	Matcher Model    `yaml:"matcher"`
}

// ParseModel decodes a yaml matcher tree.
func ParseModel(data []byte) (Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Model{}, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if m.Kind == "" {
		return Model{}, fmt.Errorf("%w: missing kind", ErrInvalidModel)
	}
	return m, nil
}
