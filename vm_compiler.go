// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"github.com/kamihama-railway/arrex/kernel"
)

// CompileBytecode lowers the expression to the float64 vector stack
// machine. The lowering accepts real numeric expressions without
// reductions or string operands; everything computes in float64, so
// integer dtypes lose their wraparound semantics in exchange for a
// flat dispatch loop. Callers wire the result back with AttachProgram.
func (ex *Expr) CompileBytecode() (*Bytecode, error) {
	if ex == nil || ex.root == nil {
		return nil, evalErrf(EvalNilExpr, "nil expression")
	}
	if ex.dtype.isComplex() || ex.dtype == StringT {
		return nil, evalErrf(EvalInvalidArg, "bytecode backend cannot produce dtype %s", ex.dtype)
	}
	if ex.hasReduction {
		return nil, evalErrf(EvalInvalidArg, "bytecode backend does not support reductions")
	}
	for _, v := range ex.dataVars {
		if v.DType == StringT || v.DType.isComplex() {
			return nil, evalErrf(EvalInvalidArg, "bytecode backend cannot bind variable %q of dtype %s", v.Name, v.DType)
		}
	}

	c := &vmCompiler{}
	if err := c.lower(ex.root); err != nil {
		return nil, err
	}

	bc := &Bytecode{
		instrs:   c.instrs,
		consts:   c.consts,
		outDType: ex.dtype,
	}
	bc.varDTypes = make([]DType, len(ex.dataVars))
	for i, v := range ex.dataVars {
		bc.varDTypes[i] = v.DType
	}
	sp, maxSp := 0, 0
	for _, ins := range bc.instrs {
		sp += ins.op.stackEffect()
		if sp > maxSp {
			maxSp = sp
		}
	}
	bc.depth = maxSp
	return bc, nil
}

type vmCompiler struct {
	instrs []vmInstr
	consts []float64
}

func (c *vmCompiler) emit(op vmOp, arg int32) {
	c.instrs = append(c.instrs, vmInstr{op: op, arg: arg})
}

func (c *vmCompiler) addConst(v float64) int32 {
	for i, cv := range c.consts {
		if cv == v || (cv != cv && v != v) {
			return int32(i)
		}
	}
	c.consts = append(c.consts, v)
	return int32(len(c.consts) - 1)
}

func (c *vmCompiler) lower(n *Node) error {
	switch n.kind {
	case nodeConst:
		c.emit(vmLoadConst, c.addConst(real(n.value)))
		return nil
	case nodeVar:
		c.emit(vmLoadVar, int32(n.slot))
		return nil
	case nodeString:
		return evalErrf(EvalInvalidArg, "bytecode backend does not support string literals")
	}

	// The conversion collapses: every slot is float64 already.
	if n.op == OpConvert {
		return c.lower(n.args[0])
	}
	if n.op == OpComma {
		if err := c.lower(n.args[0]); err != nil {
			return err
		}
		c.emit(vmPop, 0)
		return c.lower(n.args[1])
	}

	for _, arg := range n.args {
		if err := c.lower(arg); err != nil {
			return err
		}
	}

	switch n.op {
	case OpAdd:
		c.emit(vmAdd, 0)
	case OpSub:
		c.emit(vmSub, 0)
	case OpMul:
		c.emit(vmMul, 0)
	case OpDiv:
		c.emit(vmDiv, 0)
	case OpNeg:
		c.emit(vmNeg, 0)
	case OpLt:
		c.emit(vmLt, 0)
	case OpLe:
		c.emit(vmLe, 0)
	case OpGt:
		c.emit(vmGt, 0)
	case OpGe:
		c.emit(vmGe, 0)
	case OpEq:
		c.emit(vmEq, 0)
	case OpNe:
		c.emit(vmNe, 0)
	case OpLogAnd:
		c.emit(vmAnd, 0)
	case OpLogOr:
		c.emit(vmOr, 0)
	case OpLogXor:
		c.emit(vmXor, 0)
	case OpLogNot:
		c.emit(vmNot, 0)
	case OpShl:
		c.emit(vmShl, 0)
	case OpShr:
		c.emit(vmShr, 0)
	case OpBitAnd:
		c.emit(vmBitAnd, 0)
	case OpBitOr:
		c.emit(vmBitOr, 0)
	case OpBitXor:
		c.emit(vmBitXor, 0)
	case OpBitNot:
		c.emit(vmBitNot, 0)
	case OpFma:
		c.emit(vmFma, 0)
	case OpWhere:
		c.emit(vmSelect, 0)
	case OpMod:
		c.emit(vmCall2, int32(kernel.Fmod))
	case OpPow:
		c.emit(vmCall2, int32(kernel.Pow))
	case OpReal, OpConj:
		// Identities on real data; the operand is already on the stack.
	case OpImag:
		c.emit(vmPop, 0)
		c.emit(vmLoadConst, c.addConst(0))
	default:
		if f, ok := unaryKernel[n.op]; ok {
			c.emit(vmCall1, int32(f))
			return nil
		}
		if f, ok := binaryKernel[n.op]; ok {
			c.emit(vmCall2, int32(f))
			return nil
		}
		return evalErrf(EvalInvalidArg, "bytecode backend does not support %s", n.op)
	}
	return nil
}
