// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"math"

	"github.com/kamihama-railway/arrex/kernel"
)

// Run executes the bytecode over nitems items, implementing Program.
// The stack is a fixed set of float64 blocks sized to the evaluation
// chunk; inputs convert to float64 on load and the final block
// converts into the output dtype.
func (bc *Bytecode) Run(inputs [][]byte, output []byte, nitems int) error {
	if len(inputs) != len(bc.varDTypes) {
		return evalErrf(EvalVarMismatch, "%d input buffers for %d variables", len(inputs), len(bc.varDTypes))
	}
	if nitems <= 0 {
		return nil
	}

	block := blockItems
	if nitems < block {
		block = nitems
	}
	stack := make([][]float64, bc.depth)
	for i := range stack {
		stack[i] = make([]float64, block)
	}
	kc := kernel.NewContext(kernel.Detect(), kernel.PrecisionDefault)
	outSize := bc.outDType.Size()

	for off := 0; off < nitems; off += block {
		m := block
		if rest := nitems - off; rest < m {
			m = rest
		}
		kc.BeginBlock()
		top, err := bc.runBlock(kc, stack, inputs, off, m)
		if err != nil {
			return err
		}
		if bc.outDType == Float64 {
			copy(viewOf[float64](output[off*outSize:], m), top[:m])
		} else {
			convertBuf(output[off*outSize:], bc.outDType, bytesOf(top, m), Float64, m)
		}
	}
	return nil
}

func (bc *Bytecode) runBlock(kc *kernel.Context, stack [][]float64, inputs [][]byte, off, m int) ([]float64, error) {
	sp := -1
	for _, ins := range bc.instrs {
		switch ins.op {
		case vmLoadConst:
			sp++
			v := bc.consts[ins.arg]
			s := stack[sp][:m]
			for i := range s {
				s[i] = v
			}

		case vmLoadVar:
			sp++
			d := bc.varDTypes[ins.arg]
			in := inputs[ins.arg][off*d.Size():]
			convertBuf(bytesOf(stack[sp], m), Float64, in, d, m)

		case vmPop:
			sp--

		case vmNeg:
			s := stack[sp][:m]
			for i := range s {
				s[i] = -s[i]
			}

		case vmAdd, vmSub, vmMul, vmDiv:
			r := stack[sp][:m]
			sp--
			l := stack[sp][:m]
			switch ins.op {
			case vmAdd:
				for i := range l {
					l[i] += r[i]
				}
			case vmSub:
				for i := range l {
					l[i] -= r[i]
				}
			case vmMul:
				for i := range l {
					l[i] *= r[i]
				}
			case vmDiv:
				for i := range l {
					l[i] /= r[i]
				}
			}

		case vmLt, vmLe, vmGt, vmGe, vmEq, vmNe:
			r := stack[sp][:m]
			sp--
			l := stack[sp][:m]
			op := ins.op
			for i := range l {
				var b bool
				switch op {
				case vmLt:
					b = l[i] < r[i]
				case vmLe:
					b = l[i] <= r[i]
				case vmGt:
					b = l[i] > r[i]
				case vmGe:
					b = l[i] >= r[i]
				case vmEq:
					b = l[i] == r[i]
				case vmNe:
					b = l[i] != r[i]
				}
				if b {
					l[i] = 1
				} else {
					l[i] = 0
				}
			}

		case vmAnd, vmOr, vmXor:
			r := stack[sp][:m]
			sp--
			l := stack[sp][:m]
			op := ins.op
			for i := range l {
				lt, rt := l[i] != 0, r[i] != 0
				var b bool
				switch op {
				case vmAnd:
					b = lt && rt
				case vmOr:
					b = lt || rt
				case vmXor:
					b = lt != rt
				}
				if b {
					l[i] = 1
				} else {
					l[i] = 0
				}
			}

		case vmNot:
			s := stack[sp][:m]
			for i := range s {
				if s[i] == 0 {
					s[i] = 1
				} else {
					s[i] = 0
				}
			}

		case vmShl, vmShr, vmBitAnd, vmBitOr, vmBitXor:
			r := stack[sp][:m]
			sp--
			l := stack[sp][:m]
			op := ins.op
			for i := range l {
				a, b := int64(l[i]), int64(r[i])
				switch op {
				case vmShl:
					a <<= uint64(b)
				case vmShr:
					a >>= uint64(b)
				case vmBitAnd:
					a &= b
				case vmBitOr:
					a |= b
				case vmBitXor:
					a ^= b
				}
				l[i] = float64(a)
			}

		case vmBitNot:
			s := stack[sp][:m]
			for i := range s {
				s[i] = float64(^int64(s[i]))
			}

		case vmCall1:
			// In-place rewrite of a stack slot, so the sin/cos cache
			// must not key on this buffer.
			s := stack[sp][:m]
			kc.Map64NoCache(kernel.Func(ins.arg), s, s)

		case vmCall2:
			r := stack[sp][:m]
			sp--
			l := stack[sp][:m]
			kc.Zip64(kernel.Func2(ins.arg), l, l, r)

		case vmFma:
			c := stack[sp][:m]
			b := stack[sp-1][:m]
			a := stack[sp-2][:m]
			sp -= 2
			for i := range a {
				a[i] = math.FMA(a[i], b[i], c[i])
			}

		case vmSelect:
			y := stack[sp][:m]
			x := stack[sp-1][:m]
			cond := stack[sp-2][:m]
			sp -= 2
			for i := range cond {
				if cond[i] != 0 {
					cond[i] = x[i]
				} else {
					cond[i] = y[i]
				}
			}

		default:
			return nil, evalErrf(EvalInvalidArg, "corrupt bytecode: %s", ins.op)
		}
	}
	if sp != 0 {
		return nil, evalErrf(EvalInvalidArg, "corrupt bytecode: stack height %d after run", sp+1)
	}
	return stack[0], nil
}
