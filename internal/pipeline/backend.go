package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/roach88/contentpipe/internal/effect"
)

// ShaderBackend compiles a pass's shaders and reports the parameters the
// compiled program exposes. dir is the directory shader files are
// relative to.
type ShaderBackend interface {
	Reflect(ctx context.Context, dir string, pass *effect.Pass) ([]effect.Parameter, error)
}

// DeclaredBackend stands in for a GPU compiler: it checks that every
// shader file of the pass is present and non-empty, then reports the
// parameters the effect description declares, assigning uniform
// locations in declaration order.
type DeclaredBackend struct{}

func (DeclaredBackend) Reflect(ctx context.Context, dir string, pass *effect.Pass) ([]effect.Parameter, error) {
	for _, sh := range pass.Shaders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, filepath.FromSlash(sh.File))
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("pass %s: %s shader: %w", pass.Name, sh.Stage, err)
		}
		if info.Size() == 0 {
			return nil, fmt.Errorf("pass %s: %s shader %s is empty", pass.Name, sh.Stage, sh.File)
		}
	}

	params := make([]effect.Parameter, len(pass.Parameters))
	next := 0
	for i, p := range pass.Parameters {
		params[i] = locate(p, &next)
	}
	if next > math.MaxInt32 {
		return nil, fmt.Errorf("pass %s: uniform locations exceed 32 bits", pass.Name)
	}
	return params, nil
}

// locate copies p with locations assigned from *next. Arrays take one
// location per element, structs one per leaf field.
func locate(p effect.Parameter, next *int) effect.Parameter {
	p.Location = *next
	switch p.Kind {
	case effect.KindStruct:
		fields := make([]effect.Parameter, len(p.Fields))
		for i, f := range p.Fields {
			fields[i] = locate(f, next)
		}
		p.Fields = fields
	case effect.KindArray:
		if p.Element != nil {
			el := locate(*p.Element, next)
			p.Element = &el
			*next = p.Location + p.Length*max(*next-p.Location, 1)
		} else {
			*next += p.Length
		}
	default:
		*next++
	}
	return p
}
