package effect

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Identifier turns a user-facing name into a valid member name: invalid
// characters become '_', a leading digit gets a '_' prefix.
func Identifier(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// TechniqueClassName is the nested class name for a technique.
func TechniqueClassName(technique string) string {
	return Identifier(technique) + "Technique"
}

// PassClassName is the nested class name for a pass.
func PassClassName(pass string) string {
	return Identifier(pass) + "Pass"
}

// ValueFieldName is the field holding a typed parameter's last value.
// It keeps the property name's case, so "Color" and "color" get distinct
// fields, and cannot clash with a user identifier.
func ValueFieldName(param string) string {
	return "<" + Identifier(param) + ">k__Value"
}

// HandleFieldName is the field holding a typed parameter's untyped
// handle.
func HandleFieldName(param string) string {
	return "<" + Identifier(param) + ">k__Parameter"
}

// ClassName is the generated class name for an effect: "lit" becomes
// "LitEffect".
func ClassName(effect string) string {
	id := Identifier(effect)
	r, size := utf8.DecodeRuneInString(id)
	id = string(unicode.ToUpper(r)) + id[size:]
	if strings.HasSuffix(id, "Effect") {
		return id
	}
	return id + "Effect"
}
