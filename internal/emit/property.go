package emit

import "github.com/roach88/contentpipe/internal/ir"

// AccessorFlags are the flags every property accessor carries.
const AccessorFlags = ir.FlagSpecialName | ir.FlagHideBySig

type propertyConfig struct {
	getter       *ir.Visibility
	setter       *ir.Visibility
	backingField string
}

// PropertyOption configures AddEmptyProperty and AddAutoProperty.
type PropertyOption func(*propertyConfig)

// WithGetter adds a get accessor with the given visibility.
func WithGetter(v ir.Visibility) PropertyOption {
	return func(c *propertyConfig) { c.getter = &v }
}

// WithSetter adds a set accessor with the given visibility.
func WithSetter(v ir.Visibility) PropertyOption {
	return func(c *propertyConfig) { c.setter = &v }
}

// WithBackingField overrides the backing field name.
func WithBackingField(name string) PropertyOption {
	return func(c *propertyConfig) { c.backingField = name }
}

// BackingFieldName is the default backing field name for a property.
func BackingFieldName(property string) string {
	return "<" + property + ">k__BackingField"
}

// AddEmptyProperty appends a private backing field and a property to
// owner. Accessors requested through options get empty bodies.
func AddEmptyProperty(owner *ir.TypeDef, propType ir.TypeRef, name string, opts ...PropertyOption) (*ir.FieldDef, *ir.PropertyDef) {
	cfg := propertyConfig{backingField: BackingFieldName(name)}
	for _, opt := range opts {
		opt(&cfg)
	}

	field := &ir.FieldDef{Name: cfg.backingField, FieldType: propType, Visibility: ir.Private}
	prop := &ir.PropertyDef{Name: name, PropertyType: propType}

	if cfg.getter != nil {
		prop.Getter = &ir.MethodDef{
			Name:       "get_" + name,
			Visibility: *cfg.getter,
			Flags:      AccessorFlags,
			ReturnType: propType,
			Body:       &ir.MethodBody{},
		}
		owner.AddMethod(prop.Getter)
	}
	if cfg.setter != nil {
		prop.Setter = &ir.MethodDef{
			Name:       "set_" + name,
			Visibility: *cfg.setter,
			Flags:      AccessorFlags,
			Params:     []ir.ParamDef{{Name: "value", ParamType: propType}},
			ReturnType: ir.TypeVoid,
			Body:       &ir.MethodBody{},
		}
		owner.AddMethod(prop.Setter)
	}

	owner.AddField(field)
	owner.AddProperty(prop)
	return field, prop
}

// AddAutoProperty is AddEmptyProperty with trivial accessor bodies: the
// getter returns the backing field and the setter stores its argument.
func AddAutoProperty(owner *ir.TypeDef, propType ir.TypeRef, name string, opts ...PropertyOption) (*ir.FieldDef, *ir.PropertyDef) {
	field, prop := AddEmptyProperty(owner, propType, name, opts...)
	ref := field.Ref()
	if prop.Getter != nil {
		On(prop.Getter.Body).LoadThis().LoadField(ref).Return()
	}
	if prop.Setter != nil {
		On(prop.Setter.Body).LoadThis().LoadArg(1).StoreField(ref).Return()
	}
	return field, prop
}
