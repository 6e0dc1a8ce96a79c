package codegen

import "strings"

// dynamicSizeGuess is the SizeHint contribution of each dynamic write.
const dynamicSizeGuess = 16

// Merge coalesces adjacent literal ops at every nesting level and recomputes
// the size hint. It modifies p in place and returns it.
func Merge(p *Plan) *Plan {
	p.Ops = mergeOps(p.Ops)
	p.SizeHint = sizeHint(p.Ops)
	return p
}

func mergeOps(ops []Op) []Op {
	out := ops[:0:0]
	var pending strings.Builder
	flush := func() {
		if pending.Len() > 0 {
			out = append(out, literal(pending.String()))
			pending.Reset()
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case OpLiteral:
			pending.WriteString(op.Text)
			continue
		case OpInvoke:
			mergeInvocation(op.Invoke)
		}
		flush()
		out = append(out, op)
	}
	flush()
	return out
}

func mergeInvocation(inv Invocation) {
	switch inv := inv.(type) {
	case *Conditional:
		for i := range inv.Branches {
			inv.Branches[i].Ops = mergeOps(inv.Branches[i].Ops)
		}
		inv.Else = mergeOps(inv.Else)
	case *Loop:
		inv.Body = mergeOps(inv.Body)
	case *Switch:
		for i := range inv.Cases {
			inv.Cases[i].Ops = mergeOps(inv.Cases[i].Ops)
		}
		inv.Default = mergeOps(inv.Default)
	case *Call:
		inv.Children = mergeOps(inv.Children)
	}
}

// sizeHint counts top-level literal bytes plus a guess per dynamic write.
func sizeHint(ops []Op) int {
	n := 0
	for _, op := range ops {
		if op.Kind == OpLiteral {
			n += len(op.Text)
		} else {
			n += dynamicSizeGuess
		}
	}
	return n
}
