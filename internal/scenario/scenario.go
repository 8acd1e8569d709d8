// Package scenario loads fusion scenarios from YAML files: a function, the known facts about
// its symbolic dimensions, a set of patterns over its operations and the fusion queries to run.
//
// Example:
//
//	symbols: {equal: [[N, M]], bind: {K: 8}}
//	inputs: [{name: x, dtype: float32, dims: [N, 8]}]
//	ops:
//	  - {name: r, op: ReduceSum, inputs: [x], axes: [1]}
//	  - {name: e, op: Exp, inputs: [r]}
//	return: [e]
//	patterns:
//	  - {name: up, kind: reduce_tree, root: [r]}
//	  - {name: down, kind: trivial, ops: [e], sink: e}
//	queries: [{upstream: up, downstream: down, expect: true}]
//
// Dimensions are either integers (static) or identifiers (named dynamic axes). The signatures of
// the operations are inferred with axes.Infer.
package scenario

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Scenario is the content of a scenario file.
type Scenario struct {
	Symbols  Symbols   `yaml:"symbols"`
	Inputs   []Input   `yaml:"inputs"`
	Ops      []Op      `yaml:"ops"`
	Return   []string  `yaml:"return"`
	Patterns []Pattern `yaml:"patterns"`
	Queries  []Query   `yaml:"queries"`
}

// Symbols lists the facts known about the symbolic dimensions.
type Symbols struct {
	// Equal lists groups of symbols with the same size.
	Equal [][]string `yaml:"equal"`

	// Bind symbols to static sizes.
	Bind map[string]int64 `yaml:"bind"`
}

// Dim is a static dimension or the name of a dynamic axis.
type Dim struct {
	Size int
	Name string
}

// UnmarshalYAML implements yaml.Unmarshaler: integers are static dimensions, anything else a symbol.
func (d *Dim) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: dimension must be an integer or a symbol name", value.Line)
	}
	if value.ShortTag() == "!!int" {
		size, err := strconv.Atoi(value.Value)
		if err != nil {
			return errors.Wrapf(err, "line %d: invalid dimension %q", value.Line, value.Value)
		}
		*d = Dim{Size: size}
		return nil
	}
	*d = Dim{Name: value.Value}
	return nil
}

// Input of the function.
type Input struct {
	Name  string `yaml:"name"`
	DType string `yaml:"dtype"`
	Dims  []Dim  `yaml:"dims"`
}

// Op is one operation of the function. Its result is referred to by Name.
type Op struct {
	Name   string   `yaml:"name"`
	Op     string   `yaml:"op"`
	Inputs []string `yaml:"inputs"`

	// Axes are the reduced axes for reductions, the permutation for Transpose and the
	// mapping of operand axes for BroadcastInDim.
	Axes []int `yaml:"axes"`

	// Dims of the output for BroadcastInDim and Reshape.
	Dims []Dim `yaml:"dims"`
}

// Pattern groups operations (by the names of their results).
type Pattern struct {
	Name string `yaml:"name"`

	// Kind is one of "trivial", "reduce" or "reduce_tree".
	Kind string `yaml:"kind"`

	// Ops of trivial and reduce patterns.
	Ops []string `yaml:"ops"`

	// Sink of trivial patterns, it defaults to the last of Ops.
	Sink string `yaml:"sink"`

	// Root lists the ops of the root reduce pattern of a reduce_tree.
	Root []string `yaml:"root"`

	// Children of a reduce_tree: names of reduce_tree patterns defined earlier.
	Children []string `yaml:"children"`
}

// Query asks whether Upstream can be fused into Downstream.
type Query struct {
	Upstream   string `yaml:"upstream"`
	Downstream string `yaml:"downstream"`

	// Expect is the expected verdict, if set.
	Expect *bool `yaml:"expect"`
}

// Parse a scenario from its YAML content.
func Parse(data []byte) (*Scenario, error) {
	s := &Scenario{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(err, "failed to parse scenario")
	}
	return s, nil
}

// Load a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scenario %q", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "in file %q", path)
	}
	return s, nil
}
