package vm

import (
	"fmt"

	"github.com/roach88/contentpipe/internal/ir"
)

type frame struct {
	method *ir.MethodDef
	args   []any
	stack  []any
}

func (f *frame) push(v any) {
	f.stack = append(f.stack, v)
}

func (f *frame) pop() (any, error) {
	if len(f.stack) == 0 {
		return nil, ErrStackUnderflow
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

func (f *frame) popN(n int) ([]any, error) {
	if len(f.stack) < n {
		return nil, ErrStackUnderflow
	}
	out := make([]any, n)
	copy(out, f.stack[len(f.stack)-n:])
	f.stack = f.stack[:len(f.stack)-n]
	return out, nil
}

func labelTable(body *ir.MethodBody) map[int]int {
	labels := make(map[int]int)
	for i, in := range body.Instructions {
		if l, ok := in.(ir.Label); ok {
			labels[l.ID] = i
		}
	}
	return labels
}

func (m *Machine) exec(md *ir.MethodDef, args []any) (any, error) {
	f := &frame{method: md, args: args}
	instrs := md.Body.Instructions
	labels := labelTable(md.Body)
	name := md.Ref().Key()

	for pc := 0; pc < len(instrs); pc++ {
		m.steps++
		if m.steps > m.maxSteps {
			return nil, fmt.Errorf("%s: %w", name, ErrStepLimit)
		}

		in := instrs[pc]
		wrap := func(err error) error {
			return fmt.Errorf("%s at %d (%s): %w", name, pc, ir.Format(in), err)
		}

		switch v := in.(type) {
		case ir.LoadArg:
			if v.Index < 0 || v.Index >= len(f.args) {
				return nil, wrap(fmt.Errorf("argument %d out of range", v.Index))
			}
			f.push(f.args[v.Index])

		case ir.LoadField:
			target, err := f.pop()
			if err != nil {
				return nil, wrap(err)
			}
			obj, ok := target.(*Object)
			if !ok || obj == nil {
				return nil, wrap(ErrNullReference)
			}
			f.push(obj.Fields[v.Field.String()])

		case ir.StoreField:
			vals, err := f.popN(2)
			if err != nil {
				return nil, wrap(err)
			}
			obj, ok := vals[0].(*Object)
			if !ok || obj == nil {
				return nil, wrap(ErrNullReference)
			}
			obj.Fields[v.Field.String()] = vals[1]

		case ir.LoadString:
			f.push(v.Value)

		case ir.Call, ir.CallVirtual:
			ref, virtual := callTarget(v)
			n := len(ref.Params)
			if ref.HasThis {
				n++
			}
			callArgs, err := f.popN(n)
			if err != nil {
				return nil, wrap(err)
			}
			ret, err := m.call(ref, callArgs, virtual)
			if err != nil {
				return nil, wrap(err)
			}
			if !ref.ReturnType.IsVoid() && !ref.ReturnType.IsZero() {
				f.push(ret)
			}

		case ir.CastClass:
			val, err := f.pop()
			if err != nil {
				return nil, wrap(err)
			}
			if obj, ok := val.(*Object); ok && obj != nil {
				if !m.mod.IsAssignable(obj.Type.Ref(), v.Type) {
					return nil, wrap(fmt.Errorf("%s to %s: %w", obj.Type.FullName(), v.Type, ErrInvalidCast))
				}
			} else if val != nil {
				return nil, wrap(fmt.Errorf("%T to %s: %w", val, v.Type, ErrInvalidCast))
			}
			f.push(val)

		case ir.CompareEqual:
			vals, err := f.popN(2)
			if err != nil {
				return nil, wrap(err)
			}
			f.push(vals[0] == vals[1])

		case ir.Branch:
			take := true
			if v.Kind != ir.BranchAlways {
				cond, err := f.pop()
				if err != nil {
					return nil, wrap(err)
				}
				b, ok := cond.(bool)
				if !ok {
					return nil, wrap(fmt.Errorf("branch condition is %T, not bool", cond))
				}
				take = b == (v.Kind == ir.BranchIfTrue)
			}
			if take {
				target, ok := labels[v.Target]
				if !ok {
					return nil, wrap(fmt.Errorf("undefined label L%d", v.Target))
				}
				pc = target
			}

		case ir.Label:

		case ir.Pop:
			if _, err := f.pop(); err != nil {
				return nil, wrap(err)
			}

		case ir.Return:
			if md.ReturnType.IsZero() || md.ReturnType.IsVoid() {
				return nil, nil
			}
			ret, err := f.pop()
			if err != nil {
				return nil, wrap(err)
			}
			return ret, nil

		default:
			return nil, wrap(fmt.Errorf("unsupported instruction %T", in))
		}
	}
	return nil, fmt.Errorf("%s: fell off the end of the body", name)
}

func callTarget(in ir.Instr) (ir.MethodRef, bool) {
	if cv, ok := in.(ir.CallVirtual); ok {
		return cv.Method, true
	}
	return in.(ir.Call).Method, false
}
