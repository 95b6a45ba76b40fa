package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/contentpipe/internal/buildcache"
	"github.com/roach88/contentpipe/internal/corelib"
	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/logging"
	"github.com/roach88/contentpipe/internal/module"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "host.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestModule builds a host module holding one generated type with a
// field, a property and a method body, plus the ledger marker type and a
// marker for it.
func createTestModule(t *testing.T) *module.Module {
	t.Helper()
	mod := module.New("Game", corelib.New())

	ledger, err := buildcache.New(mod, "build-1", logging.Discard())
	if err != nil {
		t.Fatalf("buildcache.New() failed: %v", err)
	}

	typ := ir.NewType("Game.Effects", "Glow", ir.TypeObject)
	field := &ir.FieldDef{Name: "_intensity", FieldType: ir.TypeSingle, Visibility: ir.Private}
	typ.AddField(field)
	getter := &ir.MethodDef{
		Name:       "get_Intensity",
		Visibility: ir.Public,
		Flags:      ir.FlagHideBySig | ir.FlagSpecialName,
		ReturnType: ir.TypeSingle,
		Body:       &ir.MethodBody{},
	}
	typ.AddMethod(getter)
	getter.Body.Append(ir.LoadArg{Index: 0}, ir.LoadField{Field: field.Ref()}, ir.Return{})
	typ.AddProperty(&ir.PropertyDef{Name: "Intensity", PropertyType: ir.TypeSingle, Getter: getter})
	typ.AddNestedType(ir.NewType("", "Pass", ir.TypeObject))

	if err := mod.AddType(typ); err != nil {
		t.Fatalf("AddType() failed: %v", err)
	}
	ledger.UpdateOrCreate("effects/glow.fx.cue", typ)
	return mod
}
