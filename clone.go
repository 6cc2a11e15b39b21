// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

// clone deep-copies the tree. Scratch buffers are not carried over so
// concurrent evaluations of the same compiled expression never share
// state. String payloads are immutable after parsing and stay shared.
func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		kind:       n.kind,
		op:         n.op,
		dtype:      n.dtype,
		inputDType: n.inputDType,
		flags:      n.flags,
		value:      n.value,
		str:        n.str,
		slot:       n.slot,
		fn:         n.fn,
		fname:      n.fname,
	}
	if len(n.args) > 0 {
		c.args = make([]*Node, len(n.args))
		for i, arg := range n.args {
			c.args[i] = arg.clone()
		}
	}
	return c
}
