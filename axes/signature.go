// Package axes defines the shardable axes signature of operations: for each operand and
// each result of an operation, one symbolic name per axis. Axes sharing a name are the same
// iteration axis, so an input axis whose name is missing from the outputs is consumed by the
// operation (e.g. the reduced axes of a reduction).
package axes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/fusion/ir"
	"github.com/pkg/errors"
)

// Info holds the names of the axes of one operand or result, one per axis.
//
// Usually one would create this with MakeInfo, or chaining AddAxis calls:
//
//	info := axes.Info{}.AddAxis("i").AddAxis("j")
type Info struct {
	AxisNames []string
}

// MakeInfo returns an Info with the given axis names.
func MakeInfo(names ...string) Info {
	return Info{AxisNames: slices.Clone(names)}
}

// AddAxis returns a copy of the Info with a new trailing axis.
func (info Info) AddAxis(name string) Info {
	return Info{AxisNames: append(slices.Clone(info.AxisNames), name)}
}

// Rank returns the number of axes described.
func (info Info) Rank() int {
	return len(info.AxisNames)
}

// Has returns whether one of the axes is named name.
func (info Info) Has(name string) bool {
	return slices.Contains(info.AxisNames, name)
}

// String implements fmt.Stringer, e.g. "[i, j]".
func (info Info) String() string {
	return "[" + strings.Join(info.AxisNames, ", ") + "]"
}

// Signature of an operation: one Info per operand (Inputs) and per result (Outputs).
type Signature struct {
	Inputs, Outputs []Info
}

// String implements fmt.Stringer, e.g. "([i, j]) -> ([i])".
func (sig Signature) String() string {
	join := func(infos []Info) string {
		parts := make([]string, len(infos))
		for i, info := range infos {
			parts[i] = info.String()
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("(%s) -> (%s)", join(sig.Inputs), join(sig.Outputs))
}

// Validate checks that the signature matches the ranks of the operands and results of op.
func (sig Signature) Validate(op *ir.Operation) error {
	if len(sig.Inputs) != op.NumOperands() || len(sig.Outputs) != op.NumResults() {
		return errors.Errorf("signature %s has %d inputs and %d outputs, but operation %s has %d operands and %d results",
			sig, len(sig.Inputs), len(sig.Outputs), op.Type(), op.NumOperands(), op.NumResults())
	}
	for i, info := range sig.Inputs {
		if info.Rank() != op.Operand(i).Shape().Rank() {
			return errors.Errorf("signature input #%d %s doesn't match the rank of operand %s of operation %s",
				i, info, op.Operand(i).Shape(), op.Type())
		}
	}
	for i, info := range sig.Outputs {
		if info.Rank() != op.Result(i).Shape().Rank() {
			return errors.Errorf("signature output #%d %s doesn't match the rank of result %s of operation %s",
				i, info, op.Result(i).Shape(), op.Type())
		}
	}
	return nil
}

// Table maps operations to their signature. It is read-only once built.
type Table struct {
	signatures map[*ir.Operation]Signature
}

// NewTable returns an empty signature table.
func NewTable() *Table {
	return &Table{signatures: make(map[*ir.Operation]Signature)}
}

// Set the signature of op, replacing any previous one.
func (t *Table) Set(op *ir.Operation, sig Signature) {
	t.signatures[op] = sig
}

// Len returns the number of operations with a signature.
func (t *Table) Len() int {
	return len(t.signatures)
}

// GetSignature returns the signature of op, or an error if it has none.
func (t *Table) GetSignature(op *ir.Operation) (Signature, error) {
	sig, found := t.signatures[op]
	if !found {
		return Signature{}, errors.Errorf("no axes signature for operation %s", op)
	}
	return sig, nil
}
