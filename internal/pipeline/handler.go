package pipeline

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/roach88/contentpipe/internal/gentypes"
	"github.com/roach88/contentpipe/internal/module"
	"github.com/roach88/contentpipe/internal/project"
)

// Imported is the result of importing a source file.
type Imported struct {
	Value any
	// Dependencies are the absolute paths of files the result depends on
	// besides the source itself.
	Dependencies []string
}

// Importer reads source files into intermediate values.
type Importer interface {
	CanImport(path string) bool
	Import(ctx context.Context, path string) (*Imported, error)
}

// Processor turns an imported value into content ready to be written.
type Processor interface {
	Process(pc *ProcessContext, in any) (any, error)
}

// Handler pairs an importer with the processor for what it imports.
type Handler struct {
	Name      string
	Importer  Importer
	Processor Processor
}

// ProcessContext is what a processor sees of the running build.
type ProcessContext struct {
	Context context.Context
	Asset   project.Asset
	BuildID string

	// Namespace generated types are placed in.
	Namespace string

	// Module is the host module. Generated types enter and leave it only
	// through Container.
	Module    *module.Module
	Container *gentypes.Container

	Logger   *log.Logger
	reporter Reporter
	claims   func(fullName string) (string, bool)
}

// Report raises a build message for the asset.
func (pc *ProcessContext) Report(sev Severity, format string, args ...any) {
	pc.reporter.Report(Message{File: pc.Asset.BuildFile, Text: fmt.Sprintf(format, args...), Severity: sev})
}

// Param returns a processor parameter of the asset.
func (pc *ProcessContext) Param(key, def string) string {
	if v, ok := pc.Asset.Params[key]; ok {
		return v
	}
	return def
}

// ClaimedBy returns the other build-file of the project that already
// generates the type fullName. Owners that left the project do not count;
// their types move to whoever generates them next.
func (pc *ProcessContext) ClaimedBy(fullName string) (string, bool) {
	if pc.claims == nil {
		return "", false
	}
	return pc.claims(fullName)
}
