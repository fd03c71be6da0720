package logging

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Appender receives events from the loggers it is attached to
type Appender interface {
	Name() string
	DoAppend(e Event)
}

type appenderBase struct {
	ContextAwareBase
	name    string
	started bool
	filters []Filter
}

// Name returns the appender name
func (a *appenderBase) Name() string {
	return a.name
}

// SetName sets the name used by appender references
func (a *appenderBase) SetName(name string) {
	a.name = name
}

// AddFilter appends a filter to the chain
func (a *appenderBase) AddFilter(f Filter) {
	a.filters = append(a.filters, f)
}

// IsStarted reports whether Start succeeded
func (a *appenderBase) IsStarted() bool {
	return a.started
}

func (a *appenderBase) accept(e Event) bool {
	for _, f := range a.filters {
		switch f.Decide(e) {
		case Deny:
			return false
		case Accept:
			return true
		}
	}
	return true
}

// OutputStreamAppender writes encoded events to a writer
type OutputStreamAppender struct {
	appenderBase
	mu             sync.Mutex
	encoder        Encoder
	out            io.Writer
	buf            *bufio.Writer
	immediateFlush bool
}

// SetEncoder sets the encoder
func (a *OutputStreamAppender) SetEncoder(e Encoder) {
	a.encoder = e
}

// SetImmediateFlush controls flushing after every event
func (a *OutputStreamAppender) SetImmediateFlush(v bool) {
	a.immediateFlush = v
}

func (a *OutputStreamAppender) open(w io.Writer) {
	a.out = w
	a.buf = bufio.NewWriter(w)
	if a.encoder != nil {
		if h := a.encoder.Header(); len(h) > 0 {
			_, _ = a.buf.Write(h)
			_ = a.buf.Flush()
		}
	}
	a.started = true
}

func (a *OutputStreamAppender) check() bool {
	if a.encoder == nil {
		a.AddError("no encoder set for the appender named %q", a.name)
		return false
	}
	return true
}

// DoAppend encodes e and writes it if the filter chain accepts it
func (a *OutputStreamAppender) DoAppend(e Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.write(e)
}

func (a *OutputStreamAppender) write(e Event) {
	if !a.started || !a.accept(e) {
		return
	}
	b, err := a.encoder.Encode(e)
	if err != nil {
		a.AddError("encode event for %q: %v", a.name, err)
		return
	}
	if _, err := a.buf.Write(b); err != nil {
		a.AddError("write event for %q: %v", a.name, err)
		return
	}
	if a.immediateFlush {
		_ = a.buf.Flush()
	}
}

// Stop flushes pending output
func (a *OutputStreamAppender) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.buf != nil {
		_ = a.buf.Flush()
	}
	a.started = false
}

// ConsoleAppender writes to standard output or standard error
type ConsoleAppender struct {
	OutputStreamAppender
	target string
	output io.Writer
}

// NewConsoleAppender returns a ConsoleAppender targeting System.out
func NewConsoleAppender() *ConsoleAppender {
	a := &ConsoleAppender{target: "System.out"}
	a.immediateFlush = true
	return a
}

// SetTarget selects "System.out" or "System.err"
func (a *ConsoleAppender) SetTarget(target string) {
	a.target = target
}

// SetOutput overrides the target writer
func (a *ConsoleAppender) SetOutput(w io.Writer) {
	a.output = w
}

// Start opens the target
func (a *ConsoleAppender) Start() {
	if !a.check() {
		return
	}
	switch {
	case a.output != nil:
		a.open(a.output)
	case strings.EqualFold(a.target, "System.err"):
		a.open(os.Stderr)
	case strings.EqualFold(a.target, "System.out"):
		a.open(os.Stdout)
	default:
		a.AddError("unknown console target %q", a.target)
	}
}

// FileAppender writes to a file
type FileAppender struct {
	OutputStreamAppender
	file    string
	append  bool
	handle  *os.File
	written int64
}

// NewFileAppender returns a FileAppender appending to its file
func NewFileAppender() *FileAppender {
	a := &FileAppender{append: true}
	a.immediateFlush = true
	return a
}

// SetFile sets the file path
func (a *FileAppender) SetFile(path string) {
	a.file = path
}

// File returns the configured path
func (a *FileAppender) File() string {
	return a.file
}

// SetAppend chooses between appending and truncating on start
func (a *FileAppender) SetAppend(v bool) {
	a.append = v
}

// Start opens the file, creating parent directories
func (a *FileAppender) Start() {
	if !a.check() {
		return
	}
	if a.file == "" {
		a.AddError("file property not set for the appender named %q", a.name)
		return
	}
	if err := a.openFile(a.append); err != nil {
		a.AddError("open %s: %v", a.file, err)
	}
}

func (a *FileAppender) openFile(appendMode bool) error {
	if err := os.MkdirAll(filepath.Dir(a.file), 0o755); err != nil {
		return err
	}
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(a.file, flags, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	a.handle = f
	a.written = info.Size()
	a.open(&countingWriter{w: f, n: &a.written})
	return nil
}

// Stop flushes and closes the file
func (a *FileAppender) Stop() {
	a.OutputStreamAppender.Stop()
	if a.handle != nil {
		_ = a.handle.Close()
		a.handle = nil
	}
}

type countingWriter struct {
	w io.Writer
	n *int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	*c.n += int64(n)
	return n, err
}
