package emit

import "github.com/roach88/contentpipe/internal/ir"

// Label is a branch target allocated by a Builder.
type Label int

// Builder appends instructions to a method body.
type Builder struct {
	body   *ir.MethodBody
	labels int
}

// NewBuilder returns a builder over a new empty body.
func NewBuilder() *Builder {
	return &Builder{body: &ir.MethodBody{}}
}

// On returns a builder that appends to an existing body. Labels already
// used in the body are not reused.
func On(body *ir.MethodBody) *Builder {
	b := &Builder{body: body}
	for _, in := range body.Instructions {
		if l, ok := in.(ir.Label); ok && l.ID >= b.labels {
			b.labels = l.ID + 1
		}
	}
	return b
}

// Body returns the body being built.
func (b *Builder) Body() *ir.MethodBody {
	return b.body
}

func (b *Builder) emit(in ir.Instr) *Builder {
	b.body.Append(in)
	return b
}

// LoadThis loads argument 0.
func (b *Builder) LoadThis() *Builder { return b.emit(ir.LoadArg{Index: 0}) }

func (b *Builder) LoadArg(i int) *Builder { return b.emit(ir.LoadArg{Index: i}) }

func (b *Builder) LoadField(f ir.FieldRef) *Builder { return b.emit(ir.LoadField{Field: f}) }

func (b *Builder) StoreField(f ir.FieldRef) *Builder { return b.emit(ir.StoreField{Field: f}) }

func (b *Builder) LoadString(s string) *Builder { return b.emit(ir.LoadString{Value: s}) }

func (b *Builder) Call(m ir.MethodRef) *Builder { return b.emit(ir.Call{Method: m}) }

func (b *Builder) CallVirtual(m ir.MethodRef) *Builder { return b.emit(ir.CallVirtual{Method: m}) }

func (b *Builder) CastClass(t ir.TypeRef) *Builder { return b.emit(ir.CastClass{Type: t}) }

func (b *Builder) CompareEqual() *Builder { return b.emit(ir.CompareEqual{}) }

func (b *Builder) Pop() *Builder { return b.emit(ir.Pop{}) }

func (b *Builder) Return() *Builder { return b.emit(ir.Return{}) }

// DefineLabel allocates a label without placing it.
func (b *Builder) DefineLabel() Label {
	l := Label(b.labels)
	b.labels++
	return l
}

// Mark places l at the current position.
func (b *Builder) Mark(l Label) *Builder { return b.emit(ir.Label{ID: int(l)}) }

func (b *Builder) Branch(l Label) *Builder {
	return b.emit(ir.Branch{Kind: ir.BranchAlways, Target: int(l)})
}

func (b *Builder) BranchIfTrue(l Label) *Builder {
	return b.emit(ir.Branch{Kind: ir.BranchIfTrue, Target: int(l)})
}

func (b *Builder) BranchIfFalse(l Label) *Builder {
	return b.emit(ir.Branch{Kind: ir.BranchIfFalse, Target: int(l)})
}
