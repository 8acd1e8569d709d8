// Package shapeanalysis implements the symbolic shape oracle used by the fusion engine.
//
// Dynamic axes are named by symbols (see shapes.Shape.WithDynamicAxis). An Analysis records
// which symbols are known to be equal and which are bound to a static value, and with that
// it simplifies symbolic dimension expressions (DimExpr) and proves equalities between them.
//
// Once populated, an Analysis is only read, and it is safe for concurrent use by queries.
package shapeanalysis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/fusion/internal/utils"
	"github.com/gomlx/fusion/ir"
	"github.com/pkg/errors"
)

// Analysis holds the known facts about symbolic dimensions.
type Analysis struct {
	// parent implements a union-find over symbol names. Roots are missing from the map.
	parent map[string]string

	// bindings of equivalence class roots to static values.
	bindings map[string]int64
}

// New returns an empty Analysis: every symbol is only equal to itself.
func New() *Analysis {
	return &Analysis{
		parent:   make(map[string]string),
		bindings: make(map[string]int64),
	}
}

func checkSymbolName(name string) error {
	if name == "" || utils.NormalizeIdentifier(name) != name {
		return errors.Errorf("invalid symbol name %q: it must be a valid identifier (letters, digits and underscores)", name)
	}
	return nil
}

// find returns the root of the symbol's equivalence class.
func (a *Analysis) find(symbol string) string {
	for {
		p, found := a.parent[symbol]
		if !found {
			return symbol
		}
		symbol = p
	}
}

// AddEquality records that the two symbols have the same size.
//
// It fails if the symbols are bound to different values.
func (a *Analysis) AddEquality(sym1, sym2 string) error {
	if err := checkSymbolName(sym1); err != nil {
		return err
	}
	if err := checkSymbolName(sym2); err != nil {
		return err
	}
	root1, root2 := a.find(sym1), a.find(sym2)
	if root1 == root2 {
		return nil
	}
	value1, bound1 := a.bindings[root1]
	value2, bound2 := a.bindings[root2]
	if bound1 && bound2 && value1 != value2 {
		return errors.Errorf("cannot make %q equal to %q: they are bound to %d and %d respectively",
			sym1, sym2, value1, value2)
	}
	// The smaller name becomes the root, so simplified expressions don't depend on the order of equalities.
	if root2 < root1 {
		root1, root2 = root2, root1
	}
	a.parent[root2] = root1
	if value, found := a.bindings[root2]; found {
		a.bindings[root1] = value
		delete(a.bindings, root2)
	}
	return nil
}

// Bind records the static value of a symbol (and of all symbols equal to it).
func (a *Analysis) Bind(symbol string, value int64) error {
	if err := checkSymbolName(symbol); err != nil {
		return err
	}
	if value <= 0 {
		return errors.Errorf("cannot bind symbol %q to %d: dimensions must be positive", symbol, value)
	}
	root := a.find(symbol)
	if previous, found := a.bindings[root]; found && previous != value {
		return errors.Errorf("cannot bind symbol %q to %d: it is already bound to %d", symbol, value, previous)
	}
	a.bindings[root] = value
	return nil
}

// Simplify rewrites the expression replacing each symbol by the root of its equivalence class,
// or by its value if bound.
func (a *Analysis) Simplify(e DimExpr) DimExpr {
	if e.IsStatic() {
		return e
	}
	coef := e.coef
	var symbols []string
	for _, symbol := range e.Symbols() {
		root := a.find(symbol)
		if value, found := a.bindings[root]; found {
			coef *= value
			continue
		}
		symbols = append(symbols, root)
	}
	return makeDimExpr(coef, symbols)
}

// SymbolicDim returns the simplified dimension expression of the given axis of v.
//
// Static axes are constants, named dynamic axes are their symbol, and unnamed dynamic axes get
// a fresh symbol, unique to (v, axis), that is only equal to itself.
func (a *Analysis) SymbolicDim(v *ir.Value, axis int) DimExpr {
	shape := v.Shape()
	if !shape.IsDynamic(axis) {
		return Const(int64(shape.Dim(axis)))
	}
	if name := shape.AxisName(axis); name != "" {
		return a.Simplify(Symbol(name))
	}
	if axis < 0 {
		axis += shape.Rank()
	}
	return freshSymbol(fmt.Sprintf("%d_%d", v.ID(), axis))
}

// IsEqual returns whether the two expressions are proven equal.
func (a *Analysis) IsEqual(lhs, rhs DimExpr) bool {
	return a.Simplify(lhs) == a.Simplify(rhs)
}

// GetProductDimExpr returns the product of the dimensions of the given axes of v.
// The product over no axes is Const(1).
func (a *Analysis) GetProductDimExpr(v *ir.Value, axes []int) DimExpr {
	exprs := make([]DimExpr, 0, len(axes))
	for _, axis := range axes {
		exprs = append(exprs, a.SymbolicDim(v, axis))
	}
	return a.Simplify(Product(exprs...))
}

// String returns the equivalence classes and bindings, one class per line, for debugging.
func (a *Analysis) String() string {
	classes := make(map[string][]string)
	for symbol := range a.parent {
		root := a.find(symbol)
		classes[root] = append(classes[root], symbol)
	}
	for root := range a.bindings {
		if _, found := classes[root]; !found {
			classes[root] = nil
		}
	}
	roots := make([]string, 0, len(classes))
	for root := range classes {
		roots = append(roots, root)
	}
	slices.Sort(roots)
	var sb strings.Builder
	for _, root := range roots {
		members := append([]string{root}, classes[root]...)
		slices.Sort(members)
		sb.WriteString(strings.Join(members, " = "))
		if value, found := a.bindings[root]; found {
			fmt.Fprintf(&sb, " = %d", value)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
