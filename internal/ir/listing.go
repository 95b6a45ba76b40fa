package ir

import (
	"fmt"
	"io"
	"strings"
	"text/template"
)

var listingFuncs = template.FuncMap{
	"typeAttrs": func(t *TypeDef) string {
		var parts []string
		if t.Flags.Has(TypeNestedPublic) {
			parts = append(parts, "nested public")
		} else if t.Flags.Has(TypePublic) {
			parts = append(parts, "public")
		} else {
			parts = append(parts, "private")
		}
		if t.Flags.Has(TypeSealed) {
			parts = append(parts, "sealed")
		}
		if t.IsValueType() {
			parts = append(parts, "value")
		}
		return strings.Join(parts, " ")
	},
	"methodFlags": func(f MethodFlags) string {
		var b strings.Builder
		for _, fl := range []struct {
			flag MethodFlags
			name string
		}{
			{FlagStatic, "static"},
			{FlagHideBySig, "hidebysig"},
			{FlagSpecialName, "specialname"},
			{FlagRTSpecialName, "rtspecialname"},
			{FlagNewSlot, "newslot"},
			{FlagAbstract, "abstract"},
			{FlagVirtual, "virtual"},
		} {
			if f.Has(fl.flag) {
				b.WriteByte(' ')
				b.WriteString(fl.name)
			}
		}
		return b.String()
	},
	"returnType": func(t TypeRef) string {
		if t.IsZero() {
			return TypeVoid.FullName
		}
		return t.FullName
	},
	"params": func(ps []ParamDef) string {
		parts := make([]string, len(ps))
		for i, p := range ps {
			parts[i] = p.ParamType.FullName + " " + p.Name
		}
		return strings.Join(parts, ", ")
	},
	"args": func(vs []Value) (string, error) {
		parts := make([]string, len(vs))
		for i, v := range vs {
			b, err := MarshalValue(v)
			if err != nil {
				return "", err
			}
			parts[i] = string(b)
		}
		return strings.Join(parts, ", "), nil
	},
	"accessors": func(p *PropertyDef) string {
		var parts []string
		if p.Getter != nil {
			parts = append(parts, p.Getter.Name)
		}
		if p.Setter != nil {
			parts = append(parts, p.Setter.Name)
		}
		return "{ " + strings.Join(parts, " ") + " }"
	},
	"instr": Format,
}

var listingTemplate = template.Must(template.New("listing").Funcs(listingFuncs).Parse(
	`{{- range . -}}
.class {{typeAttrs .}} {{.FullName}}{{with .BaseType.FullName}} extends {{.}}{{end}}
{
{{- range .CustomAttributes}}
  .custom {{.Constructor.Key}} ({{args .Args}})
{{- end}}
{{- range .Fields}}
  .field {{.Visibility}}{{if .Static}} static{{end}} {{.FieldType}} {{.Name}}
{{- end}}
{{- range .Properties}}
  .property {{.PropertyType}} {{.Name}} {{accessors .}}
{{- end}}
{{- range .Methods}}
  .method {{.Visibility}}{{methodFlags .Flags}} {{returnType .ReturnType}} {{.Name}}({{params .Params}})
{{- if .Body}}
  {
{{- range .Body.Instructions}}
    {{instr .}}
{{- end}}
  }
{{- else}} extern
{{- end}}
{{- end}}
}
{{end -}}
`))

// WriteListing renders types and all their nested types as an
// assembly-style listing, one block per type.
func WriteListing(w io.Writer, types ...*TypeDef) error {
	var all []*TypeDef
	for _, t := range types {
		t.Walk(func(td *TypeDef) { all = append(all, td) })
	}
	if err := listingTemplate.Execute(w, all); err != nil {
		return fmt.Errorf("render listing: %w", err)
	}
	return nil
}

// Listing is WriteListing into a string.
func Listing(types ...*TypeDef) (string, error) {
	var b strings.Builder
	if err := WriteListing(&b, types...); err != nil {
		return "", err
	}
	return b.String(), nil
}
