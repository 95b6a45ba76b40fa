package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNames(t *testing.T) {
	tests := []struct {
		in        string
		ident     string
		class     string
		valueName string
	}{
		{in: "lit", ident: "lit", class: "LitEffect", valueName: "<lit>k__Value"},
		{in: "Blur Effect", ident: "Blur_Effect", class: "Blur_Effect", valueName: "<Blur_Effect>k__Value"},
		{in: "2d-sprite", ident: "_2d_sprite", class: "_2d_spriteEffect", valueName: "<_2d_sprite>k__Value"},
		{in: "", ident: "_", class: "_Effect", valueName: "<_>k__Value"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.ident, Identifier(tt.in))
			assert.Equal(t, tt.class, ClassName(tt.in))
			assert.Equal(t, tt.valueName, ValueFieldName(tt.in))
		})
	}

	assert.Equal(t, "MainTechnique", TechniqueClassName("Main"))
	assert.Equal(t, "P0Pass", PassClassName("P0"))
	assert.Equal(t, "<World>k__Parameter", HandleFieldName("World"))
}

func TestFieldNamesKeepCase(t *testing.T) {
	pairs := [][2]string{{"Color", "color"}, {"colorParameter", "color"}, {"World", "world"}}
	for _, p := range pairs {
		a, b := p[0], p[1]
		names := []string{ValueFieldName(a), HandleFieldName(a), ValueFieldName(b), HandleFieldName(b)}
		seen := map[string]bool{}
		for _, n := range names {
			assert.False(t, seen[n], "%s/%s share field %s", a, b, n)
			seen[n] = true
		}
	}
}
