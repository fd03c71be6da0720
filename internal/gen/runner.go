package gen

import (
	"context"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"aot/internal/analysis"
	"aot/internal/logconf"
	"aot/internal/progress"
	"aot/runtime/optim"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options selects the optimizations of a run
type Options struct {
	GeneratedPackage string  `validate:"required,goident"`
	OutputDirectory  string  `validate:"required"`
	Runtime          Runtime `validate:"oneof=jit native"`
	Classpath        []string

	SealEnvironment      bool
	PreloadEnvironment   bool
	ScanReactiveTypes    bool
	ReplaceLogbackXml    bool
	PrecheckRequirements bool

	TypesToCheck   []string
	ServiceTypes   []string
	ResourceFilter []string
	Environments   []string
	LogbackFile    string

	// RuntimeModuleDir is the directory of the module providing the runtime
	// packages imported by generated code. It joins the compile classpath.
	RuntimeModuleDir string
}

// DefaultOptions returns the options of a runner built without configuration
func DefaultOptions(pkg, outputDir string) Options {
	return Options{
		GeneratedPackage:     pkg,
		OutputDirectory:      outputDir,
		Runtime:              JIT,
		SealEnvironment:      true,
		PreloadEnvironment:   true,
		ScanReactiveTypes:    true,
		ReplaceLogbackXml:    true,
		PrecheckRequirements: true,
		LogbackFile:          DefaultLogbackFile,
	}
}

func (o Options) SourcesDir() string { return filepath.Join(o.OutputDirectory, "sources") }
func (o Options) ClassesDir() string { return filepath.Join(o.OutputDirectory, "classes") }
func (o Options) LogsDir() string    { return filepath.Join(o.OutputDirectory, "logs") }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("goident", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return token.IsIdentifier(s) && !token.IsKeyword(s)
	})
	return v
}

// Validate checks the options
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// Runner builds the generator list of a run and executes it
type Runner struct {
	opts     Options
	analyzer analysis.Analyzer
	compiler Compiler
	cache    VerifyCache
	natsURL  string
	registry *logconf.Registry
	logger   zerolog.Logger
}

// RunnerOption customizes a Runner
type RunnerOption func(*Runner)

// WithAnalyzer replaces the analyzer built from the options
func WithAnalyzer(a analysis.Analyzer) RunnerOption {
	return func(r *Runner) { r.analyzer = a }
}

// WithCompiler sets the verification compiler, GoToolchain by default
func WithCompiler(c Compiler) RunnerOption {
	return func(r *Runner) { r.compiler = c }
}

// WithVerifyCache enables skipping verification of already verified sources
func WithVerifyCache(c VerifyCache) RunnerOption {
	return func(r *Runner) { r.cache = c }
}

// WithProgress publishes progress to the NATS server at url
func WithProgress(url string) RunnerOption {
	return func(r *Runner) { r.natsURL = url }
}

// WithRegistry replaces the logging component table
func WithRegistry(reg *logconf.Registry) RunnerOption {
	return func(r *Runner) { r.registry = reg }
}

// WithLogger sets the run logger
func WithLogger(l zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner validates opts and creates a runner
func NewRunner(opts Options, options ...RunnerOption) (*Runner, error) {
	if opts.Runtime == "" {
		opts.Runtime = JIT
	}
	opts.Runtime = Runtime(strings.ToLower(string(opts.Runtime)))
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{opts: opts, compiler: GoToolchain{}, logger: zerolog.Nop()}
	for _, o := range options {
		o(r)
	}
	if r.analyzer == nil {
		r.analyzer = analysis.NewStatic(analysis.NewClasspath(opts.Classpath...), opts.Environments, environmentVariables())
	}
	return r, nil
}

func environmentVariables() []string {
	var out []string
	for _, kv := range os.Environ() {
		if k, _, ok := strings.Cut(kv, "="); ok && k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Options returns the validated options
func (r *Runner) Options() Options {
	return r.opts
}

// NewContext creates the context of a run
func (r *Runner) NewContext() *Context {
	return NewContext(r.opts.GeneratedPackage, r.analyzer, r.logger)
}

// Configure returns the generators enabled by the options, in execution order
func (r *Runner) Configure(ctx *Context) []SourceGenerator {
	o := r.opts
	envs := r.analyzer.EnvironmentNames()
	r.logger.Info().Strs("environments", envs).Msg("Detected environments")

	filter := analysis.AcceptAll
	if o.PrecheckRequirements {
		filter = r.analyzer.Predicate()
	}

	var generators []SourceGenerator
	if len(o.TypesToCheck) > 0 {
		generators = append(generators, NewMissingTypesGenerator(o.TypesToCheck))
	}
	var serviceLoader *ServiceLoaderGenerator
	if len(o.ServiceTypes) > 0 {
		resources := []string{"application"}
		seen := map[string]bool{"application": true}
		for _, env := range envs {
			if name := "application-" + env; !seen[name] {
				seen[name] = true
				resources = append(resources, name)
			}
		}
		substitutions := map[string]SourceGenerator{
			optim.YamlPropertySourceLoader: NewYamlPropertySourceGenerator(resources),
		}
		serviceLoader = NewServiceLoaderGenerator(o.Runtime, filter, o.ServiceTypes,
			func(string) bool { return false }, substitutions)
		generators = append(generators, serviceLoader)
	}
	if o.PreloadEnvironment {
		generators = append(generators, NewEnvironmentPropertiesGenerator())
	}
	if o.ScanReactiveTypes {
		generators = append(generators, NewPublishersGenerator(nil))
	}
	if len(o.ServiceTypes) > 0 {
		generators = append(generators, NewConstantPropertySourcesGenerator(serviceLoader))
	}
	if o.SealEnvironment {
		generators = append(generators, NewCachedEnvironmentGenerator())
	}
	if o.ReplaceLogbackXml {
		generators = append(generators, NewLogbackGenerator(o.LogbackFile, r.registry))
	}
	if o.Runtime == Native {
		generators = append(generators, NewNativeFeatureGenerator(CustomizerTypeName, o.ServiceTypes))
	}
	return generators
}

// Result describes a finished run
type Result struct {
	RunID   string
	Files   []RenderedFile
	Context *Context
}

// Execute runs every enabled generator, verifies the generated package and
// writes the resources and logs. Nothing is written when a generator fails.
func (r *Runner) Execute(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := r.logger.With().Str("run", runID).Logger()
	logger.Info().Str("package", r.opts.GeneratedPackage).Str("runtime", string(r.opts.Runtime)).Msg("Starting AOT run")

	reporter := progress.NewReporter(r.natsURL, runID, logger)
	defer reporter.Close()

	gctx := NewContext(r.opts.GeneratedPackage, r.analyzer, logger)
	if r.opts.RuntimeModuleDir != "" {
		gctx.AddClasspath(r.opts.RuntimeModuleDir)
	}
	excluded, err := gctx.Classpath().Match(r.opts.ResourceFilter)
	if err != nil {
		return nil, err
	}
	for _, res := range excluded {
		gctx.ExcludeResource(res)
	}

	customizer := NewCustomizerGenerator(runID, reporter, r.Configure(gctx)...)
	out, err := customizer.Generate(gctx)
	if err != nil {
		return nil, err
	}

	files := make([]RenderedFile, 0, len(out.Files))
	for _, f := range out.Files {
		data, err := f.Render()
		if err != nil {
			return nil, err
		}
		files = append(files, RenderedFile{Path: f.Path(), Data: data})
	}

	verifier := &Verifier{
		SourcesDir: r.opts.SourcesDir(),
		ClassesDir: r.opts.ClassesDir(),
		Compiler:   r.compiler,
		Cache:      r.cache,
		Logger:     logger,
		Context:    gctx,
	}
	if err := verifier.Verify(ctx, r.opts.GeneratedPackage, gctx.Classpath(), files); err != nil {
		return nil, err
	}
	if err := WriteResources(r.opts.ClassesDir(), out.Resources); err != nil {
		return nil, err
	}
	if err := WriteLogs(r.opts.LogsDir(), gctx); err != nil {
		return nil, err
	}

	logger.Info().Int("files", len(files)).Int("resources", len(out.Resources)).Msg("AOT run completed")
	return &Result{RunID: runID, Files: files, Context: gctx}, nil
}
