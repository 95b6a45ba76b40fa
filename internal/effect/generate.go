package effect

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/roach88/contentpipe/internal/corelib"
	"github.com/roach88/contentpipe/internal/emit"
	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/logging"
)

// Resolver looks up base types and members. *module.Module implements it.
type Resolver interface {
	ResolveType(ref ir.TypeRef) (*ir.TypeDef, error)
	ResolveMethod(ref ir.MethodRef) (*ir.MethodDef, error)
	ResolveProperty(ref ir.TypeRef, name string) (*ir.PropertyDef, error)
}

// Collision is a parameter name used by more than one pass of a
// technique. Compatible is true when every pass agrees on the type; only
// then could the passes share an accessor. Accessors are always generated
// per pass.
type Collision struct {
	Technique  string
	Parameter  string
	Passes     []string
	Types      []ParameterType
	Compatible bool
}

// Result is the outcome of a generation run.
type Result struct {
	Type       *ir.TypeDef
	Collisions []Collision
}

// Generator synthesizes effect classes against a reference module.
type Generator struct {
	res    Resolver
	logger *log.Logger
}

// NewGenerator creates a generator resolving base members through res.
func NewGenerator(res Resolver, logger *log.Logger) *Generator {
	return &Generator{res: res, logger: logging.OrDiscard(logger)}
}

// base members every generated class needs, resolved once per run.
type baseMembers struct {
	effectCtor      *ir.MethodDef
	effectInit      *ir.MethodDef
	techniques      ir.MethodRef
	techniqueItem   ir.MethodRef
	techniqueCtor   *ir.MethodDef
	techniqueInit   *ir.MethodDef
	passes          ir.MethodRef
	passItem        ir.MethodRef
	passCtor        *ir.MethodDef
	passCache       *ir.MethodDef
	parameters      ir.MethodRef
	parameterItem   ir.MethodRef
	untypedSetValue map[string]ir.MethodRef
}

// Generate builds the class namespace.name for c. The returned type is not
// added to any module.
func (g *Generator) Generate(c *Content, namespace, name string) (*Result, error) {
	fail := func(member string, err error) error {
		return &GenerateError{Effect: c.Name, Member: member, Err: err}
	}

	b, err := g.resolveBase(fail)
	if err != nil {
		return nil, err
	}

	top := ir.NewType(namespace, Identifier(name), corelib.Effect)
	emit.AddForwardingConstructor(top, ir.Public, b.effectCtor.Ref(), ir.ParamDef{Name: "graphicsDevice", ParamType: corelib.GraphicsDevice})

	init := emit.AddOverride(top, b.effectInit)
	body := emit.On(init.Body)
	body.LoadThis().Call(b.effectInit.Ref())

	var techNames []string
	result := &Result{Type: top}
	for i := range c.Techniques {
		tech := &c.Techniques[i]
		propName := Identifier(tech.Name)
		if slices.Contains(techNames, propName) {
			return nil, fail("technique "+tech.Name, ErrDuplicateName)
		}
		if g.hides(corelib.Effect, propName) {
			return nil, fail("technique "+tech.Name, hidden(propName))
		}
		techNames = append(techNames, propName)

		techType := ir.NewType("", TechniqueClassName(tech.Name), corelib.EffectTechnique)
		top.AddNestedType(techType)
		if err := g.buildTechnique(b, techType, tech, fail); err != nil {
			return nil, err
		}

		_, prop := emit.AddAutoProperty(top, techType.Ref(), propName,
			emit.WithGetter(ir.Public), emit.WithSetter(ir.Private))
		body.LoadThis().
			LoadThis().Call(b.techniques).
			LoadString(tech.Name).CallVirtual(b.techniqueItem).
			CastClass(techType.Ref()).
			Call(prop.Setter.Ref())

		result.Collisions = append(result.Collisions, collisions(tech)...)
	}
	body.Return()

	for _, col := range result.Collisions {
		if col.Compatible {
			g.logger.Debug("shared parameter candidate", "effect", c.Name, "technique", col.Technique, "parameter", col.Parameter, "passes", col.Passes)
		}
	}
	return result, nil
}

func (g *Generator) buildTechnique(b *baseMembers, techType *ir.TypeDef, tech *Technique, fail func(string, error) error) error {
	emit.AddForwardingConstructor(techType, ir.Public, b.techniqueCtor.Ref(), ir.ParamDef{Name: "name", ParamType: ir.TypeString})

	init := emit.AddOverride(techType, b.techniqueInit)
	body := emit.On(init.Body)
	body.LoadThis().Call(b.techniqueInit.Ref())

	var passNames []string
	for i := range tech.Passes {
		pass := &tech.Passes[i]
		propName := Identifier(pass.Name)
		if slices.Contains(passNames, propName) {
			return fail("pass "+tech.Name+"."+pass.Name, ErrDuplicateName)
		}
		if g.hides(corelib.EffectTechnique, propName) {
			return fail("pass "+tech.Name+"."+pass.Name, hidden(propName))
		}
		passNames = append(passNames, propName)

		passType := ir.NewType("", PassClassName(pass.Name), corelib.EffectPass)
		techType.AddNestedType(passType)
		if err := g.buildPass(b, passType, pass, fail); err != nil {
			return err
		}

		_, prop := emit.AddAutoProperty(techType, passType.Ref(), propName,
			emit.WithGetter(ir.Public), emit.WithSetter(ir.Private))
		body.LoadThis().
			LoadThis().Call(b.passes).
			LoadString(pass.Name).CallVirtual(b.passItem).
			CastClass(passType.Ref()).
			Call(prop.Setter.Ref())
	}
	body.Return()
	return nil
}

func (g *Generator) buildPass(b *baseMembers, passType *ir.TypeDef, pass *Pass, fail func(string, error) error) error {
	emit.AddForwardingConstructor(passType, ir.Public, b.passCtor.Ref(), ir.ParamDef{Name: "name", ParamType: ir.TypeString})

	cache := emit.AddOverride(passType, b.passCache)
	body := emit.On(cache.Body)
	body.LoadThis().Call(b.passCache.Ref())

	seen := map[string]bool{}
	for _, p := range pass.Parameters {
		propName := Identifier(p.Name)
		if seen[propName] {
			return fail("parameter "+pass.Name+"."+p.Name, ErrDuplicateName)
		}
		if g.hides(corelib.EffectPass, propName) {
			return fail("parameter "+pass.Name+"."+p.Name, hidden(propName))
		}
		seen[propName] = true

		if p.IsUntyped() {
			_, prop := emit.AddAutoProperty(passType, corelib.EffectPassParameter, propName,
				emit.WithGetter(ir.Public), emit.WithSetter(ir.Private))
			body.LoadThis().
				LoadThis().Call(b.parameters).
				LoadString(p.Name).CallVirtual(b.parameterItem).
				Call(prop.Setter.Ref())
			continue
		}

		handle, err := g.addTypedParameter(b, passType, p, propName)
		if err != nil {
			return fail("parameter "+pass.Name+"."+p.Name, err)
		}
		body.LoadThis().
			LoadThis().Call(b.parameters).
			LoadString(p.Name).CallVirtual(b.parameterItem).
			StoreField(handle.Ref())
	}
	body.Return()
	return nil
}

// addTypedParameter emits a property whose setter skips redundant writes:
//
//	if (_value == value) return;
//	_value = value;
//	_valueParameter.SetValue(value);
func (g *Generator) addTypedParameter(b *baseMembers, passType *ir.TypeDef, p Parameter, propName string) (*ir.FieldDef, error) {
	vt := p.ValueType()
	setValue, ok := b.untypedSetValue[vt.FullName]
	if !ok {
		ref := ir.MethodRef{
			DeclaringType: corelib.EffectPassParameter,
			Name:          "SetValue",
			HasThis:       true,
			Params:        []ir.TypeRef{vt},
			ReturnType:    ir.TypeVoid,
		}
		if _, err := g.res.ResolveMethod(ref); err != nil {
			return nil, err
		}
		setValue = ref
		b.untypedSetValue[vt.FullName] = ref
	}

	value := &ir.FieldDef{Name: ValueFieldName(p.Name), FieldType: vt, Visibility: ir.Private}
	handle := &ir.FieldDef{Name: HandleFieldName(p.Name), FieldType: corelib.EffectPassParameter, Visibility: ir.Private}
	passType.AddField(value)
	passType.AddField(handle)

	getter := &ir.MethodDef{
		Name:       "get_" + propName,
		Visibility: ir.Public,
		Flags:      emit.AccessorFlags,
		ReturnType: vt,
	}
	getter.Body = emit.NewBuilder().LoadThis().LoadField(value.Ref()).Return().Body()

	setter := &ir.MethodDef{
		Name:       "set_" + propName,
		Visibility: ir.Public,
		Flags:      emit.AccessorFlags,
		Params:     []ir.ParamDef{{Name: "value", ParamType: vt}},
		ReturnType: ir.TypeVoid,
	}
	sb := emit.NewBuilder()
	changed := sb.DefineLabel()
	sb.LoadThis().LoadField(value.Ref()).LoadArg(1)
	if eq, ok := g.equality(vt); ok {
		sb.Call(eq)
	} else {
		sb.CompareEqual()
	}
	sb.BranchIfFalse(changed).Return().
		Mark(changed).
		LoadThis().LoadArg(1).StoreField(value.Ref()).
		LoadThis().LoadField(handle.Ref()).LoadArg(1).CallVirtual(setValue).
		Return()
	setter.Body = sb.Body()

	passType.AddMethod(getter)
	passType.AddMethod(setter)
	passType.AddProperty(&ir.PropertyDef{Name: propName, PropertyType: vt, Getter: getter, Setter: setter})
	return handle, nil
}

// hides reports whether a property called name would hide a member of
// base or one of its ancestors, accessors included.
func (g *Generator) hides(base ir.TypeRef, name string) bool {
	for ref := base; !ref.IsZero(); {
		t, err := g.res.ResolveType(ref)
		if err != nil {
			return false
		}
		if t.Property(name) != nil || t.Field(name) != nil || t.Nested(name) != nil {
			return true
		}
		for _, m := range t.Methods {
			if m.Name == name || m.Name == "get_"+name || m.Name == "set_"+name {
				return true
			}
		}
		ref = t.BaseType
	}
	return false
}

func hidden(name string) error {
	return fmt.Errorf("%w: %s is an inherited member", ErrDuplicateName, name)
}

// equality returns vt's op_Equality when the type defines one.
func (g *Generator) equality(vt ir.TypeRef) (ir.MethodRef, bool) {
	ref := ir.MethodRef{
		DeclaringType: vt,
		Name:          "op_Equality",
		Params:        []ir.TypeRef{vt, vt},
		ReturnType:    ir.TypeBoolean,
	}
	md, err := g.res.ResolveMethod(ref)
	if err != nil || !md.Flags.Has(ir.FlagStatic) {
		return ir.MethodRef{}, false
	}
	return md.Ref(), true
}

func (g *Generator) resolveBase(fail func(string, error) error) (*baseMembers, error) {
	b := &baseMembers{untypedSetValue: map[string]ir.MethodRef{}}
	var err error

	ctor := func(t ir.TypeRef, params ...ir.TypeRef) (*ir.MethodDef, error) {
		ref := ir.MethodRef{DeclaringType: t, Name: ir.ConstructorName, HasThis: true, Params: params, ReturnType: ir.TypeVoid}
		md, err := g.res.ResolveMethod(ref)
		if err != nil {
			return nil, fail(ref.Key(), err)
		}
		return md, nil
	}
	virtual := func(t ir.TypeRef, name string) (*ir.MethodDef, error) {
		ref := ir.MethodRef{DeclaringType: t, Name: name, HasThis: true, ReturnType: ir.TypeVoid}
		md, err := g.res.ResolveMethod(ref)
		if err != nil {
			return nil, fail(ref.Key(), err)
		}
		return md, nil
	}
	getter := func(t ir.TypeRef, name string) (ir.MethodRef, error) {
		p, err := g.res.ResolveProperty(t, name)
		if err != nil {
			return ir.MethodRef{}, fail(t.FullName+"::"+name, err)
		}
		if p.Getter == nil {
			return ir.MethodRef{}, fail(t.FullName+"::"+name, fmt.Errorf("property has no getter"))
		}
		return p.Getter.Ref(), nil
	}

	if b.effectCtor, err = ctor(corelib.Effect, corelib.GraphicsDevice); err != nil {
		return nil, err
	}
	if b.effectInit, err = virtual(corelib.Effect, "Initialize"); err != nil {
		return nil, err
	}
	if b.techniques, err = getter(corelib.Effect, "Techniques"); err != nil {
		return nil, err
	}
	if b.techniqueItem, err = getter(corelib.EffectTechniqueCollection, "Item"); err != nil {
		return nil, err
	}
	if b.techniqueCtor, err = ctor(corelib.EffectTechnique, ir.TypeString); err != nil {
		return nil, err
	}
	if b.techniqueInit, err = virtual(corelib.EffectTechnique, "Initialize"); err != nil {
		return nil, err
	}
	if b.passes, err = getter(corelib.EffectTechnique, "Passes"); err != nil {
		return nil, err
	}
	if b.passItem, err = getter(corelib.EffectPassCollection, "Item"); err != nil {
		return nil, err
	}
	if b.passCtor, err = ctor(corelib.EffectPass, ir.TypeString); err != nil {
		return nil, err
	}
	if b.passCache, err = virtual(corelib.EffectPass, "CacheParameters"); err != nil {
		return nil, err
	}
	if b.parameters, err = getter(corelib.EffectPass, "Parameters"); err != nil {
		return nil, err
	}
	if b.parameterItem, err = getter(corelib.EffectPassParameterCollection, "Item"); err != nil {
		return nil, err
	}
	return b, nil
}

// collisions finds parameter names shared by several passes of tech.
func collisions(tech *Technique) []Collision {
	byName := map[string]*Collision{}
	var order []string
	for _, pass := range tech.Passes {
		for _, p := range pass.Parameters {
			c, ok := byName[p.Name]
			if !ok {
				c = &Collision{Technique: tech.Name, Parameter: p.Name, Compatible: true}
				byName[p.Name] = c
				order = append(order, p.Name)
			}
			c.Passes = append(c.Passes, pass.Name)
			if len(c.Types) > 0 && c.Types[0] != p.Type {
				c.Compatible = false
			}
			c.Types = append(c.Types, p.Type)
		}
	}
	var out []Collision
	for _, name := range order {
		if c := byName[name]; len(c.Passes) > 1 {
			out = append(out, *c)
		}
	}
	return out
}
