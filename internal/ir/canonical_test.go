package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    string
		wantErr bool
	}{
		// scalars
		{name: "type name", in: String("Game.Effects.Lit"), want: `"Game.Effects.Lit"`},
		{name: "empty", in: String(""), want: `""`},
		{name: "method index", in: Int(-1), want: "-1"},
		{name: "int64 max", in: Int(9223372036854775807), want: "9223372036854775807"},
		{name: "flag", in: Bool(true), want: "true"},

		// containers, Go forms included
		{name: "empty array", in: Array{}, want: "[]"},
		{name: "empty object", in: Object{}, want: "{}"},
		{name: "go slice", in: []any{"ldarg", 0, false}, want: `["ldarg",0,false]`},
		{name: "go map sorted", in: map[string]any{"op": "ret", "arg": 0}, want: `{"arg":0,"op":"ret"}`},
		{
			name: "nested objects sorted",
			in:   Object{"setter": Object{"name": String("set_Tint"), "index": Int(3)}, "getter": Int(2)},
			want: `{"getter":2,"setter":{"index":3,"name":"set_Tint"}}`,
		},
		// U+10000 is a surrogate pair starting 0xD800, so it sorts before
		// U+E000 by UTF-16 code unit.
		{name: "utf16 key order", in: Object{"\uE000": Int(1), "\U00010000": Int(2)}, want: "{\"\U00010000\":2,\"\uE000\":1}"},

		// strings
		{name: "no html escape", in: String("a < b && c > d"), want: `"a < b && c > d"`},
		{name: "nfc", in: String("Lumie\u0300re"), want: "\"Lumi\u00e8re\""},
		{name: "nfc key", in: Object{"e\u0301": Int(1)}, want: "{\"\u00e9\":1}"},
		{name: "quote and backslash", in: String(`effects\"lit"`), want: `"effects\\\"lit\""`},
		{name: "control", in: String("a\n\tb\u0001"), want: `"a\n\tb\u0001"`},
		{name: "line separators literal", in: String("a\u2028b\u2029"), want: "\"a\u2028b\u2029\""},
		{name: "escaped separator text", in: String(`raw \u2028 and ` + "\u2029"), want: "\"raw \\\\u2028 and \u2029\""},

		// rejected
		{name: "float", in: 0.5, wantErr: true},
		{name: "float32", in: float32(1), wantErr: true},
		{name: "nil", in: nil, wantErr: true},
		{name: "float in slice", in: []any{1, 2.5}, wantErr: true},
		{name: "nil in map", in: map[string]any{"type": nil}, wantErr: true},
		{name: "struct", in: struct{}{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func FuzzMarshalCanonicalIdempotent(f *testing.F) {
	f.Add(`{"name":"Lit","flags":1}`)
	f.Add(`[{"op":"ldarg","arg":1},{"op":"ret"}]`)
	f.Add(`"Game.Effects.Lit/MainTechnique"`)
	f.Add(`{"nested":[{"name":"Pass"}]}`)

	f.Fuzz(func(t *testing.T, src string) {
		v, err := UnmarshalValue([]byte(src))
		if err != nil {
			t.Skip()
		}
		first, err := MarshalCanonical(v)
		if err != nil {
			t.Skip()
		}
		again, err := UnmarshalValue(first)
		require.NoError(t, err)
		second, err := MarshalCanonical(again)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
