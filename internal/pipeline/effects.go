package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/roach88/contentpipe/internal/compiler"
	"github.com/roach88/contentpipe/internal/effect"
	"github.com/roach88/contentpipe/internal/module"
	"github.com/roach88/contentpipe/internal/vm"
)

// ErrTypeClaimed is returned when the class an effect would generate is
// already generated by another build-file of the project.
var ErrTypeClaimed = errors.New("generated type belongs to another build-file")

// EffectImporter compiles CUE and TOML effect descriptions.
type EffectImporter struct{}

func (EffectImporter) CanImport(path string) bool {
	return compiler.IsSource(path)
}

// Import compiles path. The pass shader files are its dependencies.
func (EffectImporter) Import(_ context.Context, path string) (*Imported, error) {
	c, err := compiler.CompileFile(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	var deps []string
	seen := make(map[string]bool)
	for _, tech := range c.Techniques {
		for _, pass := range tech.Passes {
			for _, sh := range pass.Shaders {
				dep := filepath.Join(dir, filepath.FromSlash(sh.File))
				if !seen[dep] {
					seen[dep] = true
					deps = append(deps, dep)
				}
			}
		}
	}
	return &Imported{Value: c, Dependencies: deps}, nil
}

// EffectProcessor reflects pass parameters through a shader backend and
// generates the effect class into the host module.
type EffectProcessor struct {
	Backend ShaderBackend
}

// Process returns the *effect.Content with its parameters and
// GeneratedType filled in. The generated class is verified and
// instantiated once on the interpreter, in a scratch module over the
// host, before it replaces the build-file's previous class; a class that
// fails either check never reaches the host module.
func (p EffectProcessor) Process(pc *ProcessContext, in any) (any, error) {
	c, ok := in.(*effect.Content)
	if !ok {
		return nil, fmt.Errorf("effect processor: unexpected input %T", in)
	}

	backend := p.Backend
	if backend == nil {
		backend = DeclaredBackend{}
	}
	dir := filepath.Dir(pc.Asset.Path)
	for ti := range c.Techniques {
		tech := &c.Techniques[ti]
		for pi := range tech.Passes {
			pass := &tech.Passes[pi]
			params, err := backend.Reflect(pc.Context, dir, pass)
			if err != nil {
				return nil, fmt.Errorf("technique %s: %w", tech.Name, err)
			}
			pass.Parameters = params
		}
	}

	namespace := pc.Param("namespace", pc.Namespace)
	res, err := effect.NewGenerator(pc.Module, pc.Logger).Generate(c, namespace, effect.ClassName(c.Name))
	if err != nil {
		return nil, err
	}
	typ := res.Type
	if owner, ok := pc.ClaimedBy(typ.FullName()); ok {
		return nil, fmt.Errorf("%w: %s is generated by %s", ErrTypeClaimed, typ.FullName(), owner)
	}

	for _, col := range res.Collisions {
		if !col.Compatible {
			pc.Report(SeverityWarning, "parameter %s has different types across passes %v of technique %s; each pass keeps its own accessor",
				col.Parameter, col.Passes, col.Technique)
		}
	}

	scratch := module.New(pc.Module.Name, pc.Module)
	if err := scratch.AddType(typ); err != nil {
		return nil, err
	}
	if err := vm.Verify(scratch, typ); err != nil {
		return nil, fmt.Errorf("verify %s: %w", typ.FullName(), err)
	}
	if _, err := effect.Instantiate(vm.New(scratch, vm.WithLogger(pc.Logger)), typ.Ref(), c); err != nil {
		return nil, err
	}

	if err := pc.Container.Add(typ); err != nil {
		return nil, err
	}
	c.GeneratedType = typ.FullName()
	pc.Logger.Debug("generated effect class", "type", c.GeneratedType, "techniques", len(c.Techniques))
	return c, nil
}

// EffectHandler is the standard handler for effect descriptions.
func EffectHandler(backend ShaderBackend) Handler {
	return Handler{
		Name:      "effect",
		Importer:  EffectImporter{},
		Processor: EffectProcessor{Backend: backend},
	}
}
