package scenario

import (
	"fmt"

	"github.com/gomlx/fusion"
	"github.com/gomlx/fusion/axes"
	"github.com/gomlx/fusion/internal/optypes"
	"github.com/gomlx/fusion/internal/utils"
	"github.com/gomlx/fusion/ir"
	"github.com/gomlx/fusion/pattern"
	"github.com/gomlx/fusion/shapeanalysis"
	"github.com/gomlx/fusion/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Program is a scenario built into the structures used by the fusion engine.
type Program struct {
	Function   *ir.Function
	Analysis   *shapeanalysis.Analysis
	Signatures *axes.Table
	Nodes      map[string]*pattern.Node
	Queries    []Query

	values map[string]*ir.Value
	trees  map[string]*pattern.ReduceTree
}

// Build the function, the shape analysis, the signatures and the pattern nodes of the scenario.
func (s *Scenario) Build(name string) (*Program, error) {
	p := &Program{
		Function: ir.NewFunction(name),
		Analysis: shapeanalysis.New(),
		Nodes:    make(map[string]*pattern.Node),
		Queries:  s.Queries,
		values:   make(map[string]*ir.Value),
		trees:    make(map[string]*pattern.ReduceTree),
	}
	if err := p.addSymbols(s.Symbols); err != nil {
		return nil, err
	}
	for _, input := range s.Inputs {
		if err := p.addInput(input); err != nil {
			return nil, err
		}
	}
	for _, op := range s.Ops {
		if err := p.addOp(op); err != nil {
			return nil, errors.WithMessagef(err, "in op %q", op.Name)
		}
	}
	if len(s.Return) == 0 {
		return nil, errors.New("scenario must return at least one value")
	}
	outputs, err := p.lookup(s.Return)
	if err != nil {
		return nil, errors.WithMessage(err, "in return")
	}
	if err = p.Function.Return(outputs[0], outputs[1:]...); err != nil {
		return nil, err
	}
	if klog.V(1).Enabled() {
		klog.Infof("scenario function:\n%s", p.Function)
	}
	p.Signatures, err = axes.Infer(p.Function)
	if err != nil {
		return nil, err
	}
	for _, pat := range s.Patterns {
		if err := p.addPattern(pat); err != nil {
			return nil, errors.WithMessagef(err, "in pattern %q", pat.Name)
		}
	}
	for i, q := range s.Queries {
		for _, nodeName := range []string{q.Upstream, q.Downstream} {
			if _, found := p.Nodes[nodeName]; !found {
				return nil, errors.Errorf("query #%d refers to unknown pattern %q", i, nodeName)
			}
		}
	}
	return p, nil
}

func (p *Program) addSymbols(symbols Symbols) error {
	for _, group := range symbols.Equal {
		for i := 1; i < len(group); i++ {
			if err := p.Analysis.AddEquality(group[0], group[i]); err != nil {
				return err
			}
		}
	}
	for symbol, value := range symbols.Bind {
		if err := p.Analysis.Bind(symbol, value); err != nil {
			return err
		}
	}
	return nil
}

// makeShape converts the dims to a shape, names become dynamic axes.
func makeShape(dtype dtypes.DType, dims []Dim) shapes.Shape {
	dimensions := make([]int, len(dims))
	names := make([]string, len(dims))
	for i, d := range dims {
		if d.Name != "" {
			dimensions[i] = shapes.DimDynamic
			names[i] = d.Name
		} else {
			dimensions[i] = d.Size
		}
	}
	return shapes.MakeDynamic(dtype, dimensions, names)
}

// checkDims validates dims, since shapes.MakeDynamic panics on invalid ones.
func checkDims(dims []Dim) error {
	for i, d := range dims {
		if d.Name == "" && d.Size <= 0 {
			return errors.Errorf("invalid dimension %d for axis %d, it must be positive", d.Size, i)
		}
		if d.Name != utils.NormalizeIdentifier(d.Name) {
			return errors.Errorf("invalid symbol %q for axis %d, only letters, digits and underscores are allowed", d.Name, i)
		}
	}
	return nil
}

func (p *Program) setValue(name string, v *ir.Value) error {
	if name == "" {
		return errors.New("missing name")
	}
	if _, found := p.values[name]; found {
		return errors.Errorf("name %q defined more than once", name)
	}
	p.values[name] = v
	return nil
}

func (p *Program) lookup(names []string) ([]*ir.Value, error) {
	values := make([]*ir.Value, len(names))
	for i, name := range names {
		v, found := p.values[name]
		if !found {
			return nil, errors.Errorf("unknown value %q", name)
		}
		values[i] = v
	}
	return values, nil
}

func (p *Program) addInput(input Input) error {
	dtype, err := dtypes.DTypeString(input.DType)
	if err != nil {
		return errors.Wrapf(err, "invalid dtype for input %q", input.Name)
	}
	if err = checkDims(input.Dims); err != nil {
		return errors.WithMessagef(err, "in input %q", input.Name)
	}
	return p.setValue(input.Name, p.Function.NamedInput(input.Name, makeShape(dtype, input.Dims)))
}

func (p *Program) addOp(op Op) error {
	opType, err := optypes.OpTypeString(op.Op)
	if err != nil {
		return errors.Wrapf(err, "unknown operation %q", op.Op)
	}
	operands, err := p.lookup(op.Inputs)
	if err != nil {
		return err
	}
	if err = checkDims(op.Dims); err != nil {
		return err
	}
	wantOperands := 1
	if optypes.BinaryElementwise.Has(opType) {
		wantOperands = 2
	}
	if len(operands) != wantOperands {
		return errors.Errorf("%s takes %d inputs, got %d", opType, wantOperands, len(operands))
	}

	var result *ir.Value
	switch {
	case optypes.UnaryElementwise.Has(opType):
		result, err = ir.UnaryOp(opType, operands[0])
	case optypes.BinaryElementwise.Has(opType):
		result, err = ir.BinaryOp(opType, operands[0], operands[1])
	case opType.IsReduce():
		result, err = ir.Reduce(opType, operands[0], op.Axes...)
	case opType == optypes.BroadcastInDim:
		result, err = ir.BroadcastInDim(operands[0], makeShape(operands[0].Shape().DType, op.Dims), op.Axes)
	case opType == optypes.Transpose:
		result, err = ir.Transpose(operands[0], op.Axes...)
	case opType == optypes.Reshape:
		result, err = ir.Reshape(operands[0], makeShape(operands[0].Shape().DType, op.Dims))
	default:
		err = errors.Errorf("operation %s can't be used in scenarios", opType)
	}
	if err != nil {
		return err
	}
	return p.setValue(op.Name, result)
}

func (p *Program) producers(names []string) ([]*ir.Operation, error) {
	values, err := p.lookup(names)
	if err != nil {
		return nil, err
	}
	ops := make([]*ir.Operation, len(values))
	for i, v := range values {
		if v.Producer() == nil {
			return nil, errors.Errorf("%q is an input, not an operation", names[i])
		}
		ops[i] = v.Producer()
	}
	return ops, nil
}

func (p *Program) addPattern(pat Pattern) error {
	if _, found := p.Nodes[pat.Name]; found || pat.Name == "" {
		return errors.New("patterns need a unique name")
	}
	kind, err := pattern.KindString(pat.Kind)
	if err != nil {
		return errors.Wrapf(err, "invalid kind %q", pat.Kind)
	}
	var stmt pattern.StmtPattern
	switch kind {
	case pattern.KindTrivial:
		ops, err := p.producers(pat.Ops)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			return errors.New("trivial pattern without ops")
		}
		sink := ops[len(ops)-1]
		if pat.Sink != "" {
			sinks, err := p.producers([]string{pat.Sink})
			if err != nil {
				return err
			}
			sink = sinks[0]
		}
		stmt, err = pattern.NewTrivial(ops, sink)
		if err != nil {
			return err
		}

	case pattern.KindReduce:
		ops, err := p.producers(pat.Ops)
		if err != nil {
			return err
		}
		stmt, err = pattern.NewReduce(ops)
		if err != nil {
			return err
		}

	case pattern.KindReduceTree:
		ops, err := p.producers(pat.Root)
		if err != nil {
			return err
		}
		root, err := pattern.NewReduce(ops)
		if err != nil {
			return err
		}
		children := make([]*pattern.ReduceTree, 0, len(pat.Children))
		for _, childName := range pat.Children {
			child, found := p.trees[childName]
			if !found {
				return errors.Errorf("child %q is not a reduce_tree pattern defined before", childName)
			}
			children = append(children, child)
		}
		tree := pattern.NewReduceTree(root, children...)
		p.trees[pat.Name] = tree
		stmt = tree
	}
	p.Nodes[pat.Name] = pattern.NewNode(stmt)
	return nil
}

// Result of one query.
type Result struct {
	Query   Query
	Verdict bool

	// Err is set if the engine found inconsistent patterns.
	Err error
}

// Mismatch returns whether the verdict differs from the expected one.
func (r Result) Mismatch() bool {
	return r.Err == nil && r.Query.Expect != nil && *r.Query.Expect != r.Verdict
}

// String implements fmt.Stringer, e.g. "up -> down: true".
func (r Result) String() string {
	s := fmt.Sprintf("%s -> %s: ", r.Query.Upstream, r.Query.Downstream)
	switch {
	case r.Err != nil:
		return s + "error: " + r.Err.Error()
	case r.Mismatch():
		return s + fmt.Sprintf("%v (expected %v)", r.Verdict, *r.Query.Expect)
	default:
		return s + fmt.Sprintf("%v", r.Verdict)
	}
}

// Run all the queries with the given fuser. If fuser is nil, a fusion.Policy is created.
func (p *Program) Run(fuser fusion.Fuser) []Result {
	if fuser == nil {
		fuser = p.NewPolicy()
	}
	results := make([]Result, len(p.Queries))
	for i, q := range p.Queries {
		verdict, err := fuser.CanFuse(p.Nodes[q.Upstream], p.Nodes[q.Downstream])
		results[i] = Result{Query: q, Verdict: verdict, Err: err}
		klog.V(1).Infof("query %s", results[i])
	}
	return results
}

// NewPolicy returns a fusion.Policy using the program's analysis and signatures.
func (p *Program) NewPolicy() *fusion.Policy {
	return fusion.NewPolicy(p.Analysis, p.Signatures)
}
