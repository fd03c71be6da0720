package logging

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// RollingPolicy decides when and how the active file of a RollingFileAppender rolls over
type RollingPolicy interface {
	ShouldRollover(activeFile string, size int64) bool
	Rollover(activeFile string) error
}

// SizeBasedRollingPolicy rolls the active file once it exceeds MaxFileSize,
// keeping MaxHistory archives named after FileNamePattern where %i is the
// archive index.
type SizeBasedRollingPolicy struct {
	ContextAwareBase
	pattern     string
	maxFileSize FileSize
	maxHistory  int
	started     bool
}

// NewSizeBasedRollingPolicy returns a policy rolling at 10MB and keeping 7 archives
func NewSizeBasedRollingPolicy() *SizeBasedRollingPolicy {
	return &SizeBasedRollingPolicy{maxFileSize: 10 * MB, maxHistory: 7}
}

func (p *SizeBasedRollingPolicy) SetFileNamePattern(pattern string) { p.pattern = pattern }
func (p *SizeBasedRollingPolicy) SetMaxFileSize(size FileSize)      { p.maxFileSize = size }
func (p *SizeBasedRollingPolicy) SetMaxHistory(n int)               { p.maxHistory = n }

// Start validates the configuration
func (p *SizeBasedRollingPolicy) Start() {
	if !strings.Contains(p.pattern, "%i") {
		p.AddError("fileNamePattern %q lacks the %%i token", p.pattern)
		return
	}
	if p.maxHistory < 1 {
		p.AddError("maxHistory must be positive, got %d", p.maxHistory)
		return
	}
	p.started = true
}

func (p *SizeBasedRollingPolicy) Stop()           { p.started = false }
func (p *SizeBasedRollingPolicy) IsStarted() bool { return p.started }

// ShouldRollover reports whether size exceeds the maximum file size
func (p *SizeBasedRollingPolicy) ShouldRollover(_ string, size int64) bool {
	return p.started && p.maxFileSize > 0 && size >= int64(p.maxFileSize)
}

// ArchiveName returns the archive path for index i
func (p *SizeBasedRollingPolicy) ArchiveName(i int) string {
	return strings.ReplaceAll(p.pattern, "%i", strconv.Itoa(i))
}

// Rollover shifts the archives by one and moves activeFile to index 1
func (p *SizeBasedRollingPolicy) Rollover(activeFile string) error {
	if err := os.Remove(p.ArchiveName(p.maxHistory)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove oldest archive: %w", err)
	}
	for i := p.maxHistory - 1; i >= 1; i-- {
		err := os.Rename(p.ArchiveName(i), p.ArchiveName(i+1))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("shift archive %d: %w", i, err)
		}
	}
	if err := os.Rename(activeFile, p.ArchiveName(1)); err != nil {
		return fmt.Errorf("archive %s: %w", activeFile, err)
	}
	return nil
}

// RollingFileAppender is a FileAppender whose file rolls over under a RollingPolicy
type RollingFileAppender struct {
	FileAppender
	policy RollingPolicy
}

// NewRollingFileAppender returns an appender without a policy
func NewRollingFileAppender() *RollingFileAppender {
	a := &RollingFileAppender{}
	a.append = true
	a.immediateFlush = true
	return a
}

// SetRollingPolicy sets the rolling policy
func (a *RollingFileAppender) SetRollingPolicy(p RollingPolicy) {
	a.policy = p
}

// Start requires a rolling policy, then opens the file
func (a *RollingFileAppender) Start() {
	if a.policy == nil {
		a.AddError("no rolling policy set for the appender named %q", a.name)
		return
	}
	a.FileAppender.Start()
}

// DoAppend rolls the file over when the policy asks for it, then writes e
func (a *RollingFileAppender) DoAppend(e Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started && a.policy.ShouldRollover(a.file, a.written) {
		_ = a.buf.Flush()
		_ = a.handle.Close()
		if err := a.policy.Rollover(a.file); err != nil {
			a.AddError("rollover %s: %v", a.file, err)
		}
		if err := a.openFile(false); err != nil {
			a.AddError("reopen %s: %v", a.file, err)
			a.started = false
			return
		}
	}
	a.write(e)
}
