package ir

import "fmt"

// Opcode names an instruction kind. The names follow the usual stack
// machine mnemonics and are also the persisted form.
type Opcode string

const (
	OpLoadArg     Opcode = "ldarg"
	OpLoadField   Opcode = "ldfld"
	OpStoreField  Opcode = "stfld"
	OpLoadString  Opcode = "ldstr"
	OpCall        Opcode = "call"
	OpCallVirtual Opcode = "callvirt"
	OpCastClass   Opcode = "castclass"
	OpCompareEq   Opcode = "ceq"
	OpBranch      Opcode = "br"
	OpLabel       Opcode = "label"
	OpPop         Opcode = "pop"
	OpReturn      Opcode = "ret"
)

// Instr is a sealed interface over the instruction variants below.
type Instr interface {
	Op() Opcode
	instr()
}

// LoadArg pushes argument Index. For instance methods argument 0 is this.
type LoadArg struct{ Index int }

// LoadField pops an object and pushes the value of Field.
type LoadField struct{ Field FieldRef }

// StoreField pops a value and an object and stores the value into Field.
type StoreField struct{ Field FieldRef }

// LoadString pushes a string constant.
type LoadString struct{ Value string }

// Call invokes Method without virtual dispatch.
type Call struct{ Method MethodRef }

// CallVirtual invokes Method with dispatch on the runtime type of the
// instance argument.
type CallVirtual struct{ Method MethodRef }

// CastClass pops an object, checks it is assignable to Type and pushes it
// back.
type CastClass struct{ Type TypeRef }

// CompareEqual pops two values and pushes whether they are equal bitwise
// (reference equality for objects).
type CompareEqual struct{}

// BranchKind selects the condition of a Branch.
type BranchKind string

const (
	BranchAlways  BranchKind = "always"
	BranchIfTrue  BranchKind = "true"
	BranchIfFalse BranchKind = "false"
)

// Branch transfers control to the Label with ID Target. Conditional kinds
// pop a boolean first.
type Branch struct {
	Kind   BranchKind
	Target int
}

// Label marks a branch target. It does nothing when executed.
type Label struct{ ID int }

// Pop discards the top of the stack.
type Pop struct{}

// Return leaves the method, popping the return value for non-void methods.
type Return struct{}

func (LoadArg) Op() Opcode      { return OpLoadArg }
func (LoadField) Op() Opcode    { return OpLoadField }
func (StoreField) Op() Opcode   { return OpStoreField }
func (LoadString) Op() Opcode   { return OpLoadString }
func (Call) Op() Opcode         { return OpCall }
func (CallVirtual) Op() Opcode  { return OpCallVirtual }
func (CastClass) Op() Opcode    { return OpCastClass }
func (CompareEqual) Op() Opcode { return OpCompareEq }
func (Branch) Op() Opcode       { return OpBranch }
func (Label) Op() Opcode        { return OpLabel }
func (Pop) Op() Opcode          { return OpPop }
func (Return) Op() Opcode       { return OpReturn }

func (LoadArg) instr()      {}
func (LoadField) instr()    {}
func (StoreField) instr()   {}
func (LoadString) instr()   {}
func (Call) instr()         {}
func (CallVirtual) instr()  {}
func (CastClass) instr()    {}
func (CompareEqual) instr() {}
func (Branch) instr()       {}
func (Label) instr()        {}
func (Pop) instr()          {}
func (Return) instr()       {}

// Format renders an instruction as a single assembly-style line.
func Format(in Instr) string {
	switch v := in.(type) {
	case LoadArg:
		return fmt.Sprintf("ldarg.%d", v.Index)
	case LoadField:
		return "ldfld " + v.Field.String()
	case StoreField:
		return "stfld " + v.Field.String()
	case LoadString:
		return fmt.Sprintf("ldstr %q", v.Value)
	case Call:
		return "call " + v.Method.Key()
	case CallVirtual:
		return "callvirt " + v.Method.Key()
	case CastClass:
		return "castclass " + v.Type.FullName
	case CompareEqual:
		return "ceq"
	case Branch:
		switch v.Kind {
		case BranchIfTrue:
			return fmt.Sprintf("brtrue L%d", v.Target)
		case BranchIfFalse:
			return fmt.Sprintf("brfalse L%d", v.Target)
		default:
			return fmt.Sprintf("br L%d", v.Target)
		}
	case Label:
		return fmt.Sprintf("L%d:", v.ID)
	case Pop:
		return "pop"
	case Return:
		return "ret"
	default:
		return fmt.Sprintf("<unknown %T>", in)
	}
}
