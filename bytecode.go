// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"fmt"
	"strings"
)

// vmOp is one opcode of the vector stack machine. Every stack slot is
// a float64 block; dtype fidelity is traded for a flat dispatch loop.
type vmOp uint8

const (
	vmLoadConst vmOp = iota // arg: constant pool index
	vmLoadVar               // arg: variable slot
	vmPop

	vmNeg
	vmAdd
	vmSub
	vmMul
	vmDiv

	vmLt
	vmLe
	vmGt
	vmGe
	vmEq
	vmNe

	vmAnd
	vmOr
	vmXor
	vmNot

	vmShl
	vmShr
	vmBitAnd
	vmBitOr
	vmBitXor
	vmBitNot

	vmCall1  // arg: kernel.Func
	vmCall2  // arg: kernel.Func2
	vmFma    // a*b+c
	vmSelect // cond ? x : y
)

func (o vmOp) String() string {
	switch o {
	case vmLoadConst:
		return "LOADC"
	case vmLoadVar:
		return "LOADV"
	case vmPop:
		return "POP"
	case vmNeg:
		return "NEG"
	case vmAdd:
		return "ADD"
	case vmSub:
		return "SUB"
	case vmMul:
		return "MUL"
	case vmDiv:
		return "DIV"
	case vmLt:
		return "LT"
	case vmLe:
		return "LE"
	case vmGt:
		return "GT"
	case vmGe:
		return "GE"
	case vmEq:
		return "EQ"
	case vmNe:
		return "NE"
	case vmAnd:
		return "AND"
	case vmOr:
		return "OR"
	case vmXor:
		return "XOR"
	case vmNot:
		return "NOT"
	case vmShl:
		return "SHL"
	case vmShr:
		return "SHR"
	case vmBitAnd:
		return "BAND"
	case vmBitOr:
		return "BOR"
	case vmBitXor:
		return "BXOR"
	case vmBitNot:
		return "BNOT"
	case vmCall1:
		return "CALL1"
	case vmCall2:
		return "CALL2"
	case vmFma:
		return "FMA"
	case vmSelect:
		return "SELECT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(o))
	}
}

type vmInstr struct {
	op  vmOp
	arg int32
}

// Bytecode is a linear float64 rendering of a compiled expression,
// produced by (*Expr).CompileBytecode and runnable through the Program
// hook. Concurrent Run calls are safe; the instruction stream is
// read-only after lowering.
type Bytecode struct {
	instrs []vmInstr
	consts []float64

	varDTypes []DType
	outDType  DType
	depth     int // maximum stack height
}

// Disassemble renders the instruction stream, one instruction per
// line. Intended for debugging and tests.
func (bc *Bytecode) Disassemble() string {
	var sb strings.Builder
	for i, ins := range bc.instrs {
		switch ins.op {
		case vmLoadConst:
			fmt.Fprintf(&sb, "%04d %s %v\n", i, ins.op, bc.consts[ins.arg])
		case vmLoadVar:
			fmt.Fprintf(&sb, "%04d %s #%d\n", i, ins.op, ins.arg)
		case vmCall1:
			fmt.Fprintf(&sb, "%04d %s func(%d)\n", i, ins.op, ins.arg)
		case vmCall2:
			fmt.Fprintf(&sb, "%04d %s func2(%d)\n", i, ins.op, ins.arg)
		default:
			fmt.Fprintf(&sb, "%04d %s\n", i, ins.op)
		}
	}
	return sb.String()
}

// stackEffect reports how an opcode moves the stack pointer.
func (o vmOp) stackEffect() int {
	switch o {
	case vmLoadConst, vmLoadVar:
		return 1
	case vmNeg, vmNot, vmBitNot, vmCall1:
		return 0
	case vmFma, vmSelect:
		return -2
	default:
		return -1
	}
}
