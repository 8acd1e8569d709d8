// Package pattern defines the statement patterns the fusion engine decides about: clusters
// of operations already classified by their shape role.
//
// StmtPattern is a closed set of variants: *Trivial, *Reduce and *ReduceTree. Matching on it
// is done with a type switch, and it can't be implemented outside this package.
package pattern

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/fusion/internal/utils"
	"github.com/gomlx/fusion/ir"
	"github.com/pkg/errors"
)

// Kind of pattern.
type Kind int

//go:generate go tool enumer -type=Kind -trimprefix=Kind -transform=snake -output=kind_enumer.go pattern.go

const (
	// KindTrivial is a chain of elementwise and broadcast operations.
	KindTrivial Kind = iota

	// KindReduce is one reduction and its trivial producers.
	KindReduce

	// KindReduceTree is a root reduce pattern fed by other reduce trees.
	KindReduceTree
)

// StmtPattern is one of *Trivial, *Reduce or *ReduceTree.
type StmtPattern interface {
	// Kind of the pattern.
	Kind() Kind

	// Ops returns the operations in the pattern.
	Ops() []*ir.Operation

	// SinkOp returns the operation whose output is the output of the pattern.
	SinkOp() *ir.Operation

	sealed()
}

// Trivial pattern: elementwise, broadcast and reshape operations.
type Trivial struct {
	ops  []*ir.Operation
	sink *ir.Operation
}

// NewTrivial creates a trivial pattern with the given ops, sink must be one of them.
func NewTrivial(ops []*ir.Operation, sink *ir.Operation) (*Trivial, error) {
	if len(ops) == 0 {
		return nil, errors.New("trivial pattern must have at least one operation")
	}
	if !slices.Contains(ops, sink) {
		return nil, errors.Errorf("sink operation %s is not part of the trivial pattern", sink)
	}
	for _, op := range ops {
		if op.Type().IsReduce() {
			return nil, errors.Errorf("trivial pattern cannot contain the reduction %s", op)
		}
		if err := checkFusible(op); err != nil {
			return nil, err
		}
	}
	return &Trivial{ops: slices.Clone(ops), sink: sink}, nil
}

// checkFusible returns an error if op can't be part of any pattern: only elementwise, shape-only
// and reduce operations can.
func checkFusible(op *ir.Operation) error {
	opType := op.Type()
	if !opType.IsElementwise() && !opType.IsShapeOnly() && !opType.IsReduce() {
		return errors.Errorf("operation %s cannot be part of a fusion pattern", op)
	}
	return nil
}

func (p *Trivial) Kind() Kind { return KindTrivial }
func (p *Trivial) Ops() []*ir.Operation { return slices.Clone(p.ops) }
func (p *Trivial) SinkOp() *ir.Operation { return p.sink }
func (p *Trivial) sealed() {}

// Reduce pattern: exactly one reduction, plus the trivial operations feeding it.
type Reduce struct {
	ops      []*ir.Operation
	reduceOp *ir.Operation
}

// NewReduce creates a reduce pattern. Exactly one of the ops must be a reduction.
func NewReduce(ops []*ir.Operation) (*Reduce, error) {
	var reduceOp *ir.Operation
	for _, op := range ops {
		if err := checkFusible(op); err != nil {
			return nil, err
		}
		if !op.Type().IsReduce() {
			continue
		}
		if reduceOp != nil {
			return nil, errors.Errorf("reduce pattern must have exactly one reduction, got %s and %s", reduceOp, op)
		}
		reduceOp = op
	}
	if reduceOp == nil {
		return nil, errors.Errorf("reduce pattern must have exactly one reduction, got none in %d operations", len(ops))
	}
	return &Reduce{ops: slices.Clone(ops), reduceOp: reduceOp}, nil
}

func (p *Reduce) Kind() Kind { return KindReduce }
func (p *Reduce) Ops() []*ir.Operation { return slices.Clone(p.ops) }
func (p *Reduce) SinkOp() *ir.Operation { return p.reduceOp }
func (p *Reduce) sealed() {}

// ReduceOp returns the reduction operation of the pattern.
func (p *Reduce) ReduceOp() *ir.Operation { return p.reduceOp }

// ReduceTree pattern: a root Reduce fed by child trees.
type ReduceTree struct {
	root     *Reduce
	children []*ReduceTree
}

// NewReduceTree creates a reduce tree. A lone reduce pattern is a tree without children.
func NewReduceTree(root *Reduce, children ...*ReduceTree) *ReduceTree {
	return &ReduceTree{root: root, children: slices.Clone(children)}
}

func (p *ReduceTree) Kind() Kind { return KindReduceTree }
func (p *ReduceTree) sealed() {}

// SinkOp returns the reduction of the root pattern.
func (p *ReduceTree) SinkOp() *ir.Operation { return p.root.reduceOp }

// Root returns the root reduce pattern.
func (p *ReduceTree) Root() *Reduce { return p.root }

// Children returns the direct children of the tree.
func (p *ReduceTree) Children() []*ReduceTree { return slices.Clone(p.children) }

// FlattenReducePatterns returns all the reduce patterns in the tree, in pre-order.
func (p *ReduceTree) FlattenReducePatterns() []*Reduce {
	result := []*Reduce{p.root}
	for _, child := range p.children {
		result = append(result, child.FlattenReducePatterns()...)
	}
	return result
}

// Ops returns the operations of all reduce patterns in the tree, root first.
func (p *ReduceTree) Ops() []*ir.Operation {
	var ops []*ir.Operation
	for _, reduce := range p.FlattenReducePatterns() {
		ops = append(ops, reduce.ops...)
	}
	return ops
}

// InputValues returns the values consumed by operations of the pattern that are not produced
// inside it, in order of first use.
func InputValues(p StmtPattern) []*ir.Value {
	ops := p.Ops()
	inside := utils.MakeSet[*ir.Operation](len(ops))
	inside.Insert(ops...)
	seen := utils.MakeSet[*ir.Value]()
	var inputs []*ir.Value
	for _, op := range ops {
		for _, operand := range op.Operands() {
			if seen.Has(operand) || inside.Has(operand.Producer()) {
				continue
			}
			seen.Insert(operand)
			inputs = append(inputs, operand)
		}
	}
	return inputs
}

// Node is a candidate for fusion: it wraps one pattern.
type Node struct {
	pattern StmtPattern
}

// NewNode returns a node wrapping the given pattern.
func NewNode(p StmtPattern) *Node {
	return &Node{pattern: p}
}

// StmtPattern returns the wrapped pattern.
func (n *Node) StmtPattern() StmtPattern { return n.pattern }

// SinkOp returns the sink operation of the wrapped pattern.
func (n *Node) SinkOp() *ir.Operation { return n.pattern.SinkOp() }

// String implements fmt.Stringer, listing the kind and the operations of the pattern.
func (n *Node) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s{", n.pattern.Kind())
	for i, op := range n.pattern.Ops() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s", op.Type())
		if op.NumResults() > 0 {
			fmt.Fprintf(&sb, "->%s", op.Result(0))
		}
	}
	sb.WriteString("}")
	return sb.String()
}
