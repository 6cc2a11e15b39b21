// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

// strOperand is one side of a string predicate: either a fixed-width
// variable column or a broadcast literal.
type strOperand struct {
	col *stringItems
	lit []rune
}

func (s strOperand) item(i int) []rune {
	if s.col != nil {
		return s.col.item(i)
	}
	return s.lit
}

func (e *evalContext) stringOperand(arg *Node) (strOperand, error) {
	switch {
	case arg.kind == nodeString:
		return strOperand{lit: arg.str}, nil
	case arg.kind == nodeVar && arg.dtype == StringT:
		col := &stringItems{data: e.inputs[arg.slot], itemSize: e.itemSizes[arg.slot]}
		if col.itemSize <= 0 || col.itemSize%4 != 0 {
			return strOperand{}, evalErrf(EvalInvalidArg,
				"string variable #%d has item size %d, want a positive multiple of 4", arg.slot, col.itemSize)
		}
		return strOperand{col: col}, nil
	}
	return strOperand{}, evalErrf(EvalInvalidArg, "operand is not string data")
}

func (e *evalContext) evalStringPred(n *Node, dst []uint8) error {
	a, err := e.stringOperand(n.args[0])
	if err != nil {
		return err
	}
	b, err := e.stringOperand(n.args[1])
	if err != nil {
		return err
	}
	var f func(s, sub []rune) bool
	switch n.op {
	case OpContains:
		f = runeContains
	case OpStartsWith:
		f = runeHasPrefix
	case OpEndsWith:
		f = runeHasSuffix
	}
	for i := range dst {
		dst[i] = b2u(f(a.item(i), b.item(i)))
	}
	return nil
}

// compareStrings handles == and != between string operands.
func (e *evalContext) compareStrings(n *Node, dst []uint8) error {
	a, err := e.stringOperand(n.args[0])
	if err != nil {
		return err
	}
	b, err := e.stringOperand(n.args[1])
	if err != nil {
		return err
	}
	neq := n.op == OpNe
	for i := range dst {
		dst[i] = b2u(runeEqual(a.item(i), b.item(i)) != neq)
	}
	return nil
}

func runeEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func runeHasPrefix(s, prefix []rune) bool {
	return len(s) >= len(prefix) && runeEqual(s[:len(prefix)], prefix)
}

func runeHasSuffix(s, suffix []rune) bool {
	return len(s) >= len(suffix) && runeEqual(s[len(s)-len(suffix):], suffix)
}

func runeContains(s, sub []rune) bool {
	if len(sub) == 0 {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if runeEqual(s[i:i+len(sub)], sub) {
			return true
		}
	}
	return false
}
