package effect

import (
	"fmt"

	"github.com/roach88/contentpipe/internal/corelib"
	"github.com/roach88/contentpipe/internal/geom"
	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/vm"
)

// Applied records one forwarded SetValue call.
type Applied struct {
	Technique string
	Pass      string
	Parameter string
	Value     any
}

// Instance is a generated effect class instantiated on the interpreter
// against a simulated graphics runtime. It is used to check generated
// classes without a GPU.
type Instance struct {
	Object  *vm.Object
	machine *vm.Machine
	applied []Applied
}

type effectState struct {
	techniques map[string]*vm.Object
}

type techniqueState struct {
	name   string
	passes map[string]*vm.Object
}

type passState struct {
	technique string
	name      string
	params    map[string]*vm.Object
}

type parameterState struct {
	technique string
	pass      string
	name      string
}

// Instantiate constructs the generated class typ for c and runs its
// Initialize, which wires techniques, passes and parameter handles.
// Technique and pass objects are created from the nested classes named
// after them, falling back to the base classes.
func Instantiate(m *vm.Machine, typ ir.TypeRef, c *Content) (*Instance, error) {
	inst := &Instance{machine: m}
	inst.bind(c)

	device, err := m.Alloc(corelib.GraphicsDevice)
	if err != nil {
		return nil, err
	}
	ctor := ir.MethodRef{
		DeclaringType: typ,
		Name:          ir.ConstructorName,
		HasThis:       true,
		Params:        []ir.TypeRef{corelib.GraphicsDevice},
		ReturnType:    ir.TypeVoid,
	}
	obj, err := m.NewObject(ctor, device)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", typ, err)
	}
	inst.Object = obj

	if _, err := m.CallVirtual(virtualRef(corelib.Effect, "Initialize"), obj); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", typ, err)
	}
	return inst, nil
}

func virtualRef(t ir.TypeRef, name string) ir.MethodRef {
	return ir.MethodRef{DeclaringType: t, Name: name, HasThis: true, ReturnType: ir.TypeVoid}
}

func getterRef(t ir.TypeRef, name string, ret ir.TypeRef, params ...ir.TypeRef) ir.MethodRef {
	return ir.MethodRef{DeclaringType: t, Name: "get_" + name, HasThis: true, Params: params, ReturnType: ret}
}

func ctorRef(t ir.TypeRef, params ...ir.TypeRef) ir.MethodRef {
	return ir.MethodRef{DeclaringType: t, Name: ir.ConstructorName, HasThis: true, Params: params, ReturnType: ir.TypeVoid}
}

// Applied returns the SetValue calls forwarded so far.
func (i *Instance) Applied() []Applied {
	return append([]Applied(nil), i.applied...)
}

// Technique returns the value of the technique property.
func (i *Instance) Technique(name string) (*vm.Object, error) {
	return i.objectProperty(i.Object, Identifier(name))
}

// Pass returns the value of a pass property of a technique.
func (i *Instance) Pass(technique, pass string) (*vm.Object, error) {
	t, err := i.Technique(technique)
	if err != nil {
		return nil, err
	}
	return i.objectProperty(t, Identifier(pass))
}

// SetParameter assigns a pass parameter property.
func (i *Instance) SetParameter(technique, pass, param string, v any) error {
	p, err := i.Pass(technique, pass)
	if err != nil {
		return err
	}
	return i.machine.SetProperty(p, Identifier(param), v)
}

// Parameter reads a pass parameter property.
func (i *Instance) Parameter(technique, pass, param string) (any, error) {
	p, err := i.Pass(technique, pass)
	if err != nil {
		return nil, err
	}
	return i.machine.GetProperty(p, Identifier(param))
}

func (i *Instance) objectProperty(obj *vm.Object, name string) (*vm.Object, error) {
	v, err := i.machine.GetProperty(obj, name)
	if err != nil {
		return nil, err
	}
	o, ok := v.(*vm.Object)
	if !ok || o == nil {
		return nil, fmt.Errorf("property %s of %s is not set", name, obj.Type.FullName())
	}
	return o, nil
}

// bind registers the simulated engine behavior on the machine.
func (i *Instance) bind(c *Content) {
	m := i.machine
	m.SetZero(corelib.Vector2, geom.Vector2{})
	m.SetZero(corelib.Vector3, geom.Vector3{})
	m.SetZero(corelib.Vector4, geom.Vector4{})
	m.SetZero(corelib.Quaternion, geom.Quaternion{})
	m.SetZero(corelib.Color, geom.Color{})
	m.SetZero(corelib.Matrix, geom.Matrix{})
	m.SetZero(corelib.Point, geom.Point{})

	for _, vt := range corelib.ValueTypes {
		m.Bind(ir.MethodRef{
			DeclaringType: vt,
			Name:          "op_Equality",
			Params:        []ir.TypeRef{vt, vt},
			ReturnType:    ir.TypeBoolean,
		}, func(_ *vm.Machine, args []any) (any, error) {
			return args[0] == args[1], nil
		})
	}

	m.Bind(ctorRef(ir.TypeObject), func(*vm.Machine, []any) (any, error) { return nil, nil })

	m.Bind(ctorRef(corelib.Effect, corelib.GraphicsDevice), func(m *vm.Machine, args []any) (any, error) {
		self := args[0].(*vm.Object)
		state := &effectState{techniques: map[string]*vm.Object{}}
		self.Host = state
		for _, tech := range c.Techniques {
			t, err := construct(m, self.Type, TechniqueClassName(tech.Name), corelib.EffectTechnique, tech.Name)
			if err != nil {
				return nil, err
			}
			ts := t.Host.(*techniqueState)
			for _, pass := range tech.Passes {
				p, err := construct(m, t.Type, PassClassName(pass.Name), corelib.EffectPass, pass.Name)
				if err != nil {
					return nil, err
				}
				ps := p.Host.(*passState)
				ps.technique = tech.Name
				for _, param := range pass.Parameters {
					h, err := m.Alloc(corelib.EffectPassParameter)
					if err != nil {
						return nil, err
					}
					h.Host = &parameterState{technique: tech.Name, pass: pass.Name, name: param.Name}
					ps.params[param.Name] = h
				}
				ts.passes[pass.Name] = p
			}
			state.techniques[tech.Name] = t
		}
		return nil, nil
	})
	m.Bind(virtualRef(corelib.Effect, "Initialize"), func(m *vm.Machine, args []any) (any, error) {
		state := args[0].(*vm.Object).Host.(*effectState)
		for _, tech := range c.Techniques {
			if _, err := m.CallVirtual(virtualRef(corelib.EffectTechnique, "Initialize"), state.techniques[tech.Name]); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	m.Bind(getterRef(corelib.Effect, "Techniques", corelib.EffectTechniqueCollection), func(m *vm.Machine, args []any) (any, error) {
		coll, err := m.Alloc(corelib.EffectTechniqueCollection)
		if err != nil {
			return nil, err
		}
		coll.Host = args[0].(*vm.Object).Host.(*effectState).techniques
		return coll, nil
	})
	m.Bind(getterRef(corelib.EffectTechniqueCollection, "Item", corelib.EffectTechnique, ir.TypeString), lookup)

	m.Bind(ctorRef(corelib.EffectTechnique, ir.TypeString), func(_ *vm.Machine, args []any) (any, error) {
		args[0].(*vm.Object).Host = &techniqueState{name: args[1].(string), passes: map[string]*vm.Object{}}
		return nil, nil
	})
	m.Bind(virtualRef(corelib.EffectTechnique, "Initialize"), func(m *vm.Machine, args []any) (any, error) {
		state := args[0].(*vm.Object).Host.(*techniqueState)
		tech, _ := c.Technique(state.name)
		for _, pass := range tech.Passes {
			if _, err := m.CallVirtual(virtualRef(corelib.EffectPass, "CacheParameters"), state.passes[pass.Name]); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	m.Bind(getterRef(corelib.EffectTechnique, "Passes", corelib.EffectPassCollection), func(m *vm.Machine, args []any) (any, error) {
		coll, err := m.Alloc(corelib.EffectPassCollection)
		if err != nil {
			return nil, err
		}
		coll.Host = args[0].(*vm.Object).Host.(*techniqueState).passes
		return coll, nil
	})
	m.Bind(getterRef(corelib.EffectTechnique, "Name", ir.TypeString), func(_ *vm.Machine, args []any) (any, error) {
		return args[0].(*vm.Object).Host.(*techniqueState).name, nil
	})
	m.Bind(getterRef(corelib.EffectPassCollection, "Item", corelib.EffectPass, ir.TypeString), lookup)

	m.Bind(ctorRef(corelib.EffectPass, ir.TypeString), func(_ *vm.Machine, args []any) (any, error) {
		args[0].(*vm.Object).Host = &passState{name: args[1].(string), params: map[string]*vm.Object{}}
		return nil, nil
	})
	m.Bind(virtualRef(corelib.EffectPass, "CacheParameters"), func(*vm.Machine, []any) (any, error) { return nil, nil })
	m.Bind(virtualRef(corelib.EffectPass, "Apply"), func(*vm.Machine, []any) (any, error) { return nil, nil })
	m.Bind(getterRef(corelib.EffectPass, "Name", ir.TypeString), func(_ *vm.Machine, args []any) (any, error) {
		return args[0].(*vm.Object).Host.(*passState).name, nil
	})
	m.Bind(getterRef(corelib.EffectPass, "Parameters", corelib.EffectPassParameterCollection), func(m *vm.Machine, args []any) (any, error) {
		coll, err := m.Alloc(corelib.EffectPassParameterCollection)
		if err != nil {
			return nil, err
		}
		coll.Host = args[0].(*vm.Object).Host.(*passState).params
		return coll, nil
	})
	m.Bind(getterRef(corelib.EffectPassParameterCollection, "Item", corelib.EffectPassParameter, ir.TypeString), lookup)

	m.Bind(getterRef(corelib.EffectPassParameter, "Name", ir.TypeString), func(_ *vm.Machine, args []any) (any, error) {
		return args[0].(*vm.Object).Host.(*parameterState).name, nil
	})
	for _, vt := range corelib.SetValueTypes {
		m.Bind(ir.MethodRef{
			DeclaringType: corelib.EffectPassParameter,
			Name:          "SetValue",
			HasThis:       true,
			Params:        []ir.TypeRef{vt},
			ReturnType:    ir.TypeVoid,
		}, func(_ *vm.Machine, args []any) (any, error) {
			ps := args[0].(*vm.Object).Host.(*parameterState)
			i.applied = append(i.applied, Applied{Technique: ps.technique, Pass: ps.pass, Parameter: ps.name, Value: args[1]})
			return nil, nil
		})
	}
}

// lookup implements the string indexers of the named collections.
func lookup(_ *vm.Machine, args []any) (any, error) {
	items := args[0].(*vm.Object).Host.(map[string]*vm.Object)
	obj, ok := items[args[1].(string)]
	if !ok {
		return nil, fmt.Errorf("no item named %q", args[1])
	}
	return obj, nil
}

// construct instantiates the nested class name of owner if it exists,
// else the base class, passing the user-facing name to the constructor.
func construct(m *vm.Machine, owner *ir.TypeDef, nested string, base ir.TypeRef, name string) (*vm.Object, error) {
	t := base
	if n := owner.Nested(nested); n != nil {
		t = n.Ref()
	}
	return m.NewObject(ctorRef(t, ir.TypeString), name)
}
