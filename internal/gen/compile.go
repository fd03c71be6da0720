package gen

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"aot/internal/analysis"
	"aot/pkg"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"
)

// GeneratedModule is the module path of the sources workspace
const GeneratedModule = "aot.generated"

const defaultGoVersion = "1.22"

// Severity of a compiler diagnostic
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one message reported by a compiler
type Diagnostic struct {
	File     string
	Line     int
	Column   int
	Message  string
	Severity Severity
}

// CompileError aggregates the error diagnostics of a failed verification
type CompileError struct {
	Diagnostics []Diagnostic
}

// String renders d as "File <base name>, line: <n>, <message>"
func (d Diagnostic) String() string {
	file := "unknown"
	if d.File != "" {
		file = filepath.Base(d.File)
	}
	return fmt.Sprintf("File %s, line: %d, %s", file, d.Line, d.Message)
}

func (e *CompileError) Error() string {
	var sb strings.Builder
	sb.WriteString("Compilation errors:\n")
	for _, d := range e.Diagnostics {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Compiler compiles the workspace in workDir into outDir
type Compiler interface {
	Compile(ctx context.Context, workDir, pkgName, outDir string) ([]Diagnostic, error)
}

// VerifyCache remembers source digests that already compiled cleanly
type VerifyCache interface {
	Verified(ctx context.Context, digest string) (bool, error)
	MarkVerified(ctx context.Context, digest string) error
}

// GoToolchain compiles with `go build`, producing a package archive
type GoToolchain struct {
	Binary string
	Env    []string
}

var goDiagnostic = regexp.MustCompile(`^(?:\./)?([^\s:#][^:]*\.go):(\d+)(?::(\d+))?: (.+)$`)

func (g GoToolchain) Compile(ctx context.Context, workDir, pkgName, outDir string) ([]Diagnostic, error) {
	bin := g.Binary
	if bin == "" {
		bin = "go"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	env := append([]string{"GOFLAGS=-mod=mod", "GOWORK=off"}, g.Env...)
	out, err := pkg.RunCommandLine(ctx, workDir, env, bin,
		"build", "-buildmode=archive", "-o", filepath.Join(outDir, pkgName+".a"), "./"+pkgName)
	if err == nil {
		return nil, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("run %s: %w", bin, err)
	}
	diags := ParseGoDiagnostics(out.Stderr)
	if len(diags) == 0 {
		return nil, fmt.Errorf("%s build failed: %s", bin, strings.TrimSpace(string(out.Stderr)))
	}
	return diags, nil
}

// ParseGoDiagnostics extracts `file:line[:col]: message` lines from go build output
func ParseGoDiagnostics(stderr []byte) []Diagnostic {
	var out []Diagnostic
	sc := bufio.NewScanner(bytes.NewReader(stderr))
	for sc.Scan() {
		m := goDiagnostic.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		out = append(out, Diagnostic{File: m[1], Line: line, Column: col, Message: m[4]})
	}
	return out
}

// SyntaxChecker parses the generated package in process. It reports syntax
// errors only and writes nothing to the output directory.
type SyntaxChecker struct{}

func (SyntaxChecker) Compile(_ context.Context, workDir, pkgName, _ string) ([]Diagnostic, error) {
	dir := filepath.Join(workDir, pkgName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var diags []Diagnostic
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}
		_, err := parser.ParseFile(fset, filepath.Join(dir, e.Name()), nil, parser.AllErrors)
		var list scanner.ErrorList
		if errors.As(err, &list) {
			for _, se := range list {
				diags = append(diags, Diagnostic{
					File:    se.Pos.Filename,
					Line:    se.Pos.Line,
					Column:  se.Pos.Column,
					Message: se.Msg,
				})
			}
		} else if err != nil {
			return nil, err
		}
	}
	return diags, nil
}

// RenderedFile is a generated file ready to be written
type RenderedFile struct {
	Path string
	Data []byte
}

// CompileCategory is the diagnostics category of non-error compiler output
const CompileCategory = "compile"

// Verifier writes generated sources and compiles them. Output only reaches
// the classes directory when compilation succeeds.
type Verifier struct {
	SourcesDir string
	ClassesDir string
	Compiler   Compiler
	Cache      VerifyCache
	Logger     zerolog.Logger
	// Context receives warning diagnostics under CompileCategory when set
	Context *Context
}

// Verify materializes files under the sources directory and compiles them
// against classpath. Any error diagnostic fails with a *CompileError.
func (v *Verifier) Verify(ctx context.Context, pkgName string, classpath *analysis.Classpath, files []RenderedFile) error {
	if err := v.writeSources(pkgName, files); err != nil {
		return err
	}
	goMod, goSum, err := workspaceModule(classpath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(v.SourcesDir, "go.mod"), goMod, 0o644); err != nil {
		return fmt.Errorf("failed to write go.mod: %w", err)
	}
	if err := os.WriteFile(filepath.Join(v.SourcesDir, "go.sum"), goSum, 0o644); err != nil {
		return fmt.Errorf("failed to write go.sum: %w", err)
	}

	digest := sourceDigest(files, goMod)
	if v.Cache != nil {
		ok, err := v.Cache.Verified(ctx, digest)
		if err != nil {
			v.Logger.Warn().Err(err).Msg("verify cache lookup failed")
		} else if ok {
			v.Logger.Info().Str("digest", digest).Msg("Generated sources already verified, skipping compilation")
			return os.MkdirAll(v.ClassesDir, 0o755)
		}
	}

	staging := filepath.Join(filepath.Dir(v.ClassesDir), ".staging-"+uuid.NewString()[:8])
	defer os.RemoveAll(staging)

	diags, err := v.Compiler.Compile(ctx, v.SourcesDir, pkgName, staging)
	if err != nil {
		return fmt.Errorf("unable to compile generated sources: %w", err)
	}
	var errs []Diagnostic
	for _, d := range diags {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		} else if v.Context != nil {
			v.Context.Warn(CompileCategory, "%s", d)
		}
	}
	if len(errs) > 0 {
		return &CompileError{Diagnostics: errs}
	}

	if err := promote(staging, v.ClassesDir); err != nil {
		return err
	}
	if v.Cache != nil {
		if err := v.Cache.MarkVerified(ctx, digest); err != nil {
			v.Logger.Warn().Err(err).Msg("verify cache update failed")
		}
	}
	return nil
}

func (v *Verifier) writeSources(pkgName string, files []RenderedFile) error {
	pkgDir := filepath.Join(v.SourcesDir, pkgName)
	if err := os.RemoveAll(pkgDir); err != nil {
		return err
	}
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create sources dir: %w", err)
	}
	for _, f := range files {
		p := filepath.Join(v.SourcesDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("failed to create sources dir: %w", err)
		}
		if err := os.WriteFile(p, f.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}
	return nil
}

// workspaceModule builds the go.mod of the sources workspace: every classpath
// root that is a module is required and replaced by its directory. go.sum is
// the union of the roots' go.sum files.
func workspaceModule(classpath *analysis.Classpath) ([]byte, []byte, error) {
	f := &modfile.File{}
	if err := f.AddModuleStmt(GeneratedModule); err != nil {
		return nil, nil, err
	}
	goVersion := defaultGoVersion
	sums := make(map[string]struct{})

	for _, m := range classpath.Modules() {
		dir, err := filepath.Abs(m.Dir)
		if err != nil {
			return nil, nil, err
		}
		if err := f.AddRequire(m.Path, "v0.0.0"); err != nil {
			return nil, nil, err
		}
		if err := f.AddReplace(m.Path, "", dir, ""); err != nil {
			return nil, nil, err
		}
		if data, err := os.ReadFile(filepath.Join(dir, "go.mod")); err == nil {
			if mf, err := modfile.ParseLax("go.mod", data, nil); err == nil && mf.Go != nil {
				if semver.Compare("v"+mf.Go.Version, "v"+goVersion) > 0 {
					goVersion = mf.Go.Version
				}
			}
		}
		if data, err := os.ReadFile(filepath.Join(dir, "go.sum")); err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					sums[line] = struct{}{}
				}
			}
		}
	}
	if err := f.AddGoStmt(goVersion); err != nil {
		return nil, nil, err
	}
	f.Cleanup()
	goMod := modfile.Format(f.Syntax)

	lines := make([]string, 0, len(sums))
	for l := range sums {
		lines = append(lines, l)
	}
	sort.Strings(lines)
	var goSum []byte
	if len(lines) > 0 {
		goSum = []byte(strings.Join(lines, "\n") + "\n")
	}
	return goMod, goSum, nil
}

func sourceDigest(files []RenderedFile, goMod []byte) string {
	sorted := append([]RenderedFile(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	h := sha256.New()
	h.Write(goMod)
	for _, f := range sorted {
		fmt.Fprintf(h, "%s\x00%d\x00", f.Path, len(f.Data))
		h.Write(f.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// promote moves the content of staging into dst
func promote(staging, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("failed to create classes dir: %w", err)
	}
	entries, err := os.ReadDir(staging)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		target := filepath.Join(dst, e.Name())
		if err := os.RemoveAll(target); err != nil {
			return err
		}
		if err := os.Rename(filepath.Join(staging, e.Name()), target); err != nil {
			return fmt.Errorf("failed to move %s: %w", e.Name(), err)
		}
	}
	return nil
}
