package vm

import (
	"errors"
	"fmt"

	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/module"
)

// Verify checks every method body of t and its nested types: referenced
// members resolve, argument indices are in range, branch targets exist,
// the stack never underflows and has one depth at every instruction, and
// every path ends in a return with the right stack.
func Verify(mod *module.Module, t *ir.TypeDef) error {
	var errs []error
	t.Walk(func(td *ir.TypeDef) {
		for _, md := range td.Methods {
			errs = append(errs, VerifyMethod(mod, md)...)
		}
	})
	return errors.Join(errs...)
}

// VerifyMethod checks one method body. Methods without a body pass.
func VerifyMethod(mod *module.Module, md *ir.MethodDef) []error {
	if md.Body == nil {
		return nil
	}
	v := &verifier{mod: mod, md: md, name: md.Ref().Key()}
	v.run()
	return v.errs
}

type verifier struct {
	mod  *module.Module
	md   *ir.MethodDef
	name string
	errs []error
}

func (v *verifier) fail(pc int, format string, args ...any) {
	v.errs = append(v.errs, &VerifyError{Method: v.name, Index: pc, Message: fmt.Sprintf(format, args...)})
}

func (v *verifier) run() {
	instrs := v.md.Body.Instructions
	if len(instrs) == 0 {
		v.fail(-1, "empty body")
		return
	}
	labels := make(map[int]int)
	for i, in := range instrs {
		if l, ok := in.(ir.Label); ok {
			if _, dup := labels[l.ID]; dup {
				v.fail(i, "label L%d defined twice", l.ID)
			}
			labels[l.ID] = i
		}
	}

	argc := len(v.md.Params)
	if v.md.HasThis() {
		argc++
	}
	returns := !v.md.ReturnType.IsZero() && !v.md.ReturnType.IsVoid()

	depth := make([]int, len(instrs))
	for i := range depth {
		depth[i] = -1
	}
	type state struct{ pc, depth int }
	work := []state{{0, 0}}
	reported := make(map[int]bool)

	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]

		if s.pc >= len(instrs) {
			v.fail(-1, "control falls off the end of the body")
			continue
		}
		if depth[s.pc] >= 0 {
			if depth[s.pc] != s.depth && !reported[s.pc] {
				v.fail(s.pc, "stack depth %d does not match earlier %d", s.depth, depth[s.pc])
				reported[s.pc] = true
			}
			continue
		}
		depth[s.pc] = s.depth

		pops, pushes, ok := v.effect(s.pc, instrs[s.pc], argc)
		if !ok {
			continue
		}
		if s.depth < pops {
			v.fail(s.pc, "stack underflow: %s needs %d, have %d", ir.Format(instrs[s.pc]), pops, s.depth)
			continue
		}
		next := s.depth - pops + pushes

		switch in := instrs[s.pc].(type) {
		case ir.Return:
			want := 0
			if returns {
				want = 1
			}
			if s.depth != want {
				v.fail(s.pc, "ret with stack depth %d, want %d", s.depth, want)
			}
		case ir.Branch:
			target, ok := labels[in.Target]
			if !ok {
				v.fail(s.pc, "branch to undefined label L%d", in.Target)
				continue
			}
			work = append(work, state{target, next})
			if in.Kind != ir.BranchAlways {
				work = append(work, state{s.pc + 1, next})
			}
		default:
			work = append(work, state{s.pc + 1, next})
		}
	}
}

// effect returns the stack effect of in, resolving its operands. ok is
// false when the instruction is invalid and was reported.
func (v *verifier) effect(pc int, in ir.Instr, argc int) (pops, pushes int, ok bool) {
	switch x := in.(type) {
	case ir.LoadArg:
		if x.Index < 0 || x.Index >= argc {
			v.fail(pc, "ldarg.%d out of range (%d arguments)", x.Index, argc)
			return 0, 0, false
		}
		return 0, 1, true
	case ir.LoadField:
		if _, err := v.mod.ResolveField(x.Field); err != nil {
			v.fail(pc, "%v", err)
			return 0, 0, false
		}
		return 1, 1, true
	case ir.StoreField:
		if _, err := v.mod.ResolveField(x.Field); err != nil {
			v.fail(pc, "%v", err)
			return 0, 0, false
		}
		return 2, 0, true
	case ir.LoadString:
		return 0, 1, true
	case ir.Call, ir.CallVirtual:
		ref, _ := callTarget(x)
		md, err := v.mod.ResolveMethod(ref)
		if err != nil {
			v.fail(pc, "%v", err)
			return 0, 0, false
		}
		if md.HasThis() != ref.HasThis {
			v.fail(pc, "%s: instance flag does not match definition", ref.Key())
			return 0, 0, false
		}
		pops = len(ref.Params)
		if ref.HasThis {
			pops++
		}
		if !ref.ReturnType.IsZero() && !ref.ReturnType.IsVoid() {
			pushes = 1
		}
		return pops, pushes, true
	case ir.CastClass:
		if _, err := v.mod.ResolveType(x.Type); err != nil {
			v.fail(pc, "%v", err)
			return 0, 0, false
		}
		return 1, 1, true
	case ir.CompareEqual:
		return 2, 1, true
	case ir.Branch:
		if x.Kind != ir.BranchAlways {
			return 1, 0, true
		}
		return 0, 0, true
	case ir.Label:
		return 0, 0, true
	case ir.Pop:
		return 1, 0, true
	case ir.Return:
		return 0, 0, true
	default:
		v.fail(pc, "unsupported instruction %T", in)
		return 0, 0, false
	}
}
