// ops_generator writes the elementwise operation builders of package ir, one per operation
// in optypes.UnaryElementwise and optypes.BinaryElementwise.
//
// It is run with `go generate` from the ir directory.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path"
	"slices"
	"strings"
	"text/template"

	"github.com/gomlx/fusion/internal/optypes"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	klog.V(1).Info("ops_generator:")
	GenerateElementwiseOps()
}

const elementwiseOpsFile = "gen_elementwise_ops.go"

// opInfo is the information passed to the template for each operation.
type opInfo struct {
	Name   string
	Doc    string
	Binary bool
}

// opsDocs holds what each operation computes, for its documentation.
var opsDocs = map[optypes.OpType]string{
	optypes.Abs:      "absolute value",
	optypes.Exp:      "exponential",
	optypes.Log:      "natural logarithm",
	optypes.Logistic: "sigmoid, 1/(1+exp(-x))",
	optypes.Negate:   "negation",
	optypes.Rsqrt:    "reciprocal square root",
	optypes.Sqrt:     "square root",
	optypes.Tanh:     "hyperbolic tangent",
	optypes.Add:      "sum",
	optypes.Div:      "division",
	optypes.Max:      "maximum",
	optypes.Min:      "minimum",
	optypes.Mul:      "multiplication",
	optypes.Pow:      "power",
	optypes.Sub:      "subtraction",
}

var elementwiseOpsTemplate = template.Must(template.New(elementwiseOpsFile).Parse(`
/***** File generated by ./internal/cmd/ops_generator, based on internal/optypes. Don't edit it directly. *****/

package ir

import "github.com/gomlx/fusion/internal/optypes"
{{- range .}}

// {{.Name}} adds an elementwise {{.Doc}}.
{{- if .Binary}}
func {{.Name}}(lhs, rhs *Value) (*Value, error) {
	return binaryOp(optypes.{{.Name}}, lhs, rhs)
}
{{- else}}
func {{.Name}}(x *Value) (*Value, error) {
	return unaryOp(optypes.{{.Name}}, x)
}
{{- end}}
{{- end}}
`))

// GenerateElementwiseOps writes one builder function per elementwise operation, sorted by name.
func GenerateElementwiseOps() {
	var ops []opInfo
	for opType := range optypes.UnaryElementwise {
		ops = append(ops, opInfo{Name: opType.String(), Doc: opDoc(opType)})
	}
	for opType := range optypes.BinaryElementwise {
		ops = append(ops, opInfo{Name: opType.String(), Doc: opDoc(opType), Binary: true})
	}
	slices.SortFunc(ops, func(a, b opInfo) int { return strings.Compare(a.Name, b.Name) })

	curDir := must.M1(os.Getwd())
	fileName := path.Join(curDir, elementwiseOpsFile)
	f := must.M1(os.Create(fileName))
	must.M(elementwiseOpsTemplate.Execute(f, ops))
	must.M(f.Close())
	cmd := exec.Command("go", "fmt", fileName)
	klog.V(1).Infof("\t%s\n", cmd)
	must.M(cmd.Run())
	fmt.Printf("✅ ops_generator:       \tsuccessfully generated %s\n", fileName)
}

func opDoc(opType optypes.OpType) string {
	if doc, found := opsDocs[opType]; found {
		return doc
	}
	klog.Warningf("no documentation for %s", opType)
	return strings.ReplaceAll(opType.SnakeName(), "_", " ")
}
