// fusioncheck loads a fusion scenario (see package internal/scenario) and prints the verdict
// of each of its queries.
//
// It exits with a non-zero status if any query fails with an invariant violation or doesn't
// match its expected verdict.
//
// Usage:
//
//	fusioncheck -scenario=softmax.yaml [-memoize] [-v=4]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomlx/fusion"
	"github.com/gomlx/fusion/internal/scenario"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagScenario = flag.String("scenario", "", "YAML file with the scenario to check.")
	flagMemoize  = flag.Bool("memoize", false, "Cache verdicts per pair of patterns.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagScenario == "" {
		must.M(errors.New("-scenario is required"))
	}
	failures, err := run(*flagScenario, *flagMemoize, os.Stdout)
	must.M(err)
	if failures > 0 {
		klog.Errorf("%d queries failed", failures)
		os.Exit(1)
	}
}

// run checks all the queries of the scenario in path, and returns the number of failures.
func run(path string, memoize bool, w io.Writer) (failures int, err error) {
	s, err := scenario.Load(path)
	if err != nil {
		return 0, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	program, err := s.Build(name)
	if err != nil {
		return 0, err
	}
	var fuser fusion.Fuser = program.NewPolicy()
	if memoize {
		fuser = fusion.NewMemoizedPolicy(program.NewPolicy())
	}
	for _, result := range program.Run(fuser) {
		if result.Err != nil || result.Mismatch() {
			failures++
		}
		if _, err = fmt.Fprintln(w, result); err != nil {
			return failures, err
		}
	}
	return failures, nil
}
