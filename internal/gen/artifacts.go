package gen

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResourceFilterFile lists the resources replaced by generated code
const ResourceFilterFile = "resource-filter.txt"

// WriteResources writes generator resources under classesDir
func WriteResources(classesDir string, resources []Resource) error {
	for _, r := range resources {
		p := filepath.Join(classesDir, filepath.FromSlash(r.Path))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("failed to create resource dir: %w", err)
		}
		if err := os.WriteFile(p, r.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write resource %s: %w", r.Path, err)
		}
	}
	return nil
}

// WriteLogs writes the excluded resources and one log file per diagnostic
// category into logsDir.
func WriteLogs(logsDir string, ctx *Context) error {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	if err := writeLines(filepath.Join(logsDir, ResourceFilterFile), ctx.ExcludedResources()); err != nil {
		return err
	}
	for _, category := range ctx.Categories() {
		name := strings.ToLower(category) + ".log"
		if err := writeLines(filepath.Join(logsDir, name), ctx.Diagnostics(category)); err != nil {
			return err
		}
	}
	return nil
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, l := range lines {
		w.WriteString(l)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
