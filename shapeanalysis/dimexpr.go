package shapeanalysis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/fusion/internal/utils"
)

// symbolSeparator joins the sorted symbols of a DimExpr. It can't be part of a symbol name.
const symbolSeparator = "*"

// DimExpr is a symbolic dimension expression in canonical form: a monomial
// `coefficient * symbol1 * symbol2 * ...`, with symbols sorted (and possibly repeated).
//
// DimExpr is comparable: two expressions built from the same factors, in any order, are ==.
// The zero value is the constant 0.
type DimExpr struct {
	coef    int64
	symbols string
}

// Const returns a static dimension expression.
func Const(value int64) DimExpr {
	return DimExpr{coef: value}
}

// Symbol returns the expression for a single symbolic dimension.
//
// It panics if the name is empty or not a valid identifier (letters, digits and underscores).
func Symbol(name string) DimExpr {
	if name == "" || utils.NormalizeIdentifier(name) != name {
		exceptions.Panicf("shapeanalysis.Symbol(%q): symbol names must be valid identifiers (letters, digits and underscores)", name)
	}
	return DimExpr{coef: 1, symbols: name}
}

// freshSymbol returns a symbol whose name can't be created by Symbol.
func freshSymbol(name string) DimExpr {
	return DimExpr{coef: 1, symbols: "?" + name}
}

// makeDimExpr normalizes coef and symbols into the canonical form.
func makeDimExpr(coef int64, symbols []string) DimExpr {
	if coef == 0 || len(symbols) == 0 {
		return DimExpr{coef: coef}
	}
	slices.Sort(symbols)
	return DimExpr{coef: coef, symbols: strings.Join(symbols, symbolSeparator)}
}

// Coefficient returns the constant factor of the expression.
func (e DimExpr) Coefficient() int64 { return e.coef }

// Symbols returns the sorted list of symbols of the expression, with repetitions.
func (e DimExpr) Symbols() []string {
	if e.symbols == "" {
		return nil
	}
	return strings.Split(e.symbols, symbolSeparator)
}

// IsStatic returns whether the expression has no symbols.
func (e DimExpr) IsStatic() bool { return e.symbols == "" }

// Int64 returns the value of a static expression. ok is false if the expression is symbolic.
func (e DimExpr) Int64() (value int64, ok bool) {
	if !e.IsStatic() {
		return 0, false
	}
	return e.coef, true
}

// Mul returns the product a*b in canonical form.
func Mul(a, b DimExpr) DimExpr {
	return makeDimExpr(a.coef*b.coef, append(a.Symbols(), b.Symbols()...))
}

// Product returns the product of all the expressions. The product of an empty list is Const(1).
func Product(exprs ...DimExpr) DimExpr {
	result := Const(1)
	for _, e := range exprs {
		result = Mul(result, e)
	}
	return result
}

// String implements fmt.Stringer, e.g. "8", "N" or "2*M*N".
func (e DimExpr) String() string {
	if e.IsStatic() {
		return fmt.Sprintf("%d", e.coef)
	}
	if e.coef == 1 {
		return e.symbols
	}
	return fmt.Sprintf("%d%s%s", e.coef, symbolSeparator, e.symbols)
}
