// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

func TestConcurrentEval(t *testing.T) {
	// One compiled expression shared across goroutines. Every Eval
	// clones the tree, so the shared state is read-only.
	ex, err := Compile("sin(x) ** 2 + cos(x) ** 2", []Variable{{Name: "x", DType: Float64}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	const n = 5000
	in := make([]float64, n)
	for i := range in {
		in[i] = float64(i) * 0.01
	}

	var g errgroup.Group
	results := make([][]float64, 8)
	for w := range results {
		w := w
		g.Go(func() error {
			out := make([]float64, n)
			if err := ex.Eval([][]byte{bytesOf(in, n)}, bytesOf(out, n), n, nil); err != nil {
				return err
			}
			results[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Eval: %v", err)
	}

	for w := 1; w < len(results); w++ {
		if diff := cmp.Diff(results[0], results[w]); diff != "" {
			t.Fatalf("worker %d diverged:\n%s", w, diff)
		}
	}
	for i, v := range results[0] {
		if math.Abs(v-1) > 1e-12 {
			t.Fatalf("item %d: sin^2+cos^2 = %v", i, v)
		}
	}
}

func TestBindByName(t *testing.T) {
	vars := []Variable{
		{Name: "price", DType: Float64},
		{Name: "qty", DType: Int32},
	}
	ex, err := Compile("price * qty", vars, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	price := []float64{1.5, 2, 4}
	qty := []int32{2, 3, 1}
	inputs, err := ex.Bind(Bindings{
		"qty":   bytesOf(qty, 3),
		"price": bytesOf(price, 3),
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	out := make([]float64, 3)
	if err := ex.Eval(inputs, bytesOf(out, 3), 3, nil); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	expected := []float64{3, 6, 4}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestBindErrors(t *testing.T) {
	ex, err := Compile("a + b", []Variable{
		{Name: "a", DType: Float64}, {Name: "b", DType: Float64},
	}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	buf := make([]byte, 8)
	if _, err := ex.Bind(Bindings{"a": buf}); err == nil {
		t.Fatal("missing binding accepted")
	}
	if _, err := ex.Bind(Bindings{"a": buf, "c": buf}); err == nil {
		t.Fatal("misnamed binding accepted")
	}
}

func TestBlackScholesShape(t *testing.T) {
	// A realistic multi-variable expression: the d1 term of
	// Black-Scholes, sweeping spot against a fixed strike.
	expr := "(log(s / k) + (r + v * v / 2) * tm) / (v * sqrt(tm))"
	vars := map[string][]float64{
		"s":  {90, 100, 110},
		"k":  {100, 100, 100},
		"r":  {0.05, 0.05, 0.05},
		"v":  {0.2, 0.2, 0.2},
		"tm": {1, 1, 1},
	}
	got, err := EvalFloat64(expr, vars)
	if err != nil {
		t.Fatalf("EvalFloat64: %v", err)
	}
	for i := range got {
		s := vars["s"][i]
		want := (math.Log(s/100) + (0.05+0.02)*1) / 0.2
		if math.Abs(got[i]-want) > 1e-12 {
			t.Fatalf("item %d: expected %v, got %v", i, want, got[i])
		}
	}
}

func TestVersion(t *testing.T) {
	if Version() == "" {
		t.Fatal("empty version")
	}
}

func TestIsBuiltinName(t *testing.T) {
	for _, name := range []string{"sin", "arctan2", "pi", "where", "and", "not"} {
		if !IsBuiltinName(name) {
			t.Fatalf("%q not recognized as builtin", name)
		}
	}
	for _, name := range []string{"x", "price", "sinx", ""} {
		if IsBuiltinName(name) {
			t.Fatalf("%q wrongly recognized as builtin", name)
		}
	}
}
