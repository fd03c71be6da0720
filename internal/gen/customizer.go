package gen

import (
	"fmt"

	"aot/internal/gen/ir"
	"aot/internal/progress"
)

// CustomizerTypeName is the generated type aggregating every optimization
const CustomizerTypeName = "AOTApplicationContextCustomizer"

// CustomizerGenerator runs the sub-generators in order and emits the
// customizer whose Customize method applies their contributions.
type CustomizerGenerator struct {
	runID      string
	reporter   progress.Reporter
	generators []SourceGenerator
}

// NewCustomizerGenerator wraps generators. A nil reporter reports nothing.
func NewCustomizerGenerator(runID string, reporter progress.Reporter, generators ...SourceGenerator) *CustomizerGenerator {
	return &CustomizerGenerator{runID: runID, reporter: reporter, generators: generators}
}

func (g *CustomizerGenerator) ID() string { return "customizer" }

// Generators returns the sub-generators in execution order
func (g *CustomizerGenerator) Generators() []SourceGenerator {
	return append([]SourceGenerator(nil), g.generators...)
}

func (g *CustomizerGenerator) Generate(ctx *Context) (*Output, error) {
	out := &Output{}
	for _, sub := range g.generators {
		g.report(sub.ID(), progress.StatusRunning, 0, "")
		subOut, err := sub.Generate(ctx)
		if err != nil {
			g.report(sub.ID(), progress.StatusFailed, 0, err.Error())
			return nil, fmt.Errorf("generator %s: %w", sub.ID(), err)
		}
		files := 0
		if subOut != nil {
			files = len(subOut.Files)
		}
		g.report(sub.ID(), progress.StatusCompleted, files, "")
		out.Merge(subOut)
	}

	fb := newFile(ctx).Imports(out.InitImports).Import(optimPackage)
	fb.AddDecl(ir.Type(CustomizerTypeName, "struct{}",
		fmt.Sprintf("%s applies the optimizations computed at build time", CustomizerTypeName)))
	fb.AddDecl(ir.NewFunc("Customize").
		Receiver("", CustomizerTypeName).
		Body(out.Init...).
		Build())
	fb.AddDecl(ir.NewFunc("init").
		Body(ir.Do(ir.Call("optim.RegisterCustomizer", ir.Composite(CustomizerTypeName)))).
		Build())

	out.Files = append(out.Files, sourceFile(ctx, "aot_application_context_customizer.go", fb))
	return out, nil
}

func (g *CustomizerGenerator) report(id string, status progress.Status, files int, msg string) {
	if g.reporter == nil {
		return
	}
	g.reporter.Report(progress.Progress{
		RunID:     g.runID,
		Generator: id,
		Status:    status,
		Files:     files,
		Message:   msg,
	})
}
