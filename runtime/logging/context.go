package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// RootLoggerName is the name of the root of the logger hierarchy
const RootLoggerName = "ROOT"

// Event is one log record
type Event struct {
	Time    time.Time
	Level   Level
	Logger  string
	Message string
}

// ContextAware components get the active LoggerContext bound before they start
type ContextAware interface {
	SetContext(ctx *LoggerContext)
}

// LifeCycle components must be started once configured
type LifeCycle interface {
	Start()
	Stop()
	IsStarted() bool
}

// ContextAwareBase is embedded by context aware components
type ContextAwareBase struct {
	ctx *LoggerContext
}

// SetContext binds ctx
func (b *ContextAwareBase) SetContext(ctx *LoggerContext) {
	b.ctx = ctx
}

// Context returns the bound context, or nil
func (b *ContextAwareBase) Context() *LoggerContext {
	return b.ctx
}

// AddError records a status message on the bound context
func (b *ContextAwareBase) AddError(format string, args ...any) {
	if b.ctx != nil {
		b.ctx.AddStatus(fmt.Sprintf(format, args...))
	}
}

// LoggerContext owns a logger hierarchy
type LoggerContext struct {
	mu       sync.RWMutex
	loggers  map[string]*Logger
	root     *Logger
	statusMu sync.Mutex
	statuses []string
	now      func() time.Time
}

// NewLoggerContext creates a context whose root logger is at DEBUG level
func NewLoggerContext() *LoggerContext {
	c := &LoggerContext{loggers: make(map[string]*Logger), now: time.Now}
	lvl := DebugLevel
	c.root = &Logger{name: RootLoggerName, ctx: c, level: &lvl, additive: true}
	c.loggers[RootLoggerName] = c.root
	return c
}

// Logger returns the logger called name, creating it and its ancestors. Names
// are dot separated; RootLoggerName (any case) returns the root logger.
func (c *LoggerContext) Logger(name string) *Logger {
	if strings.EqualFold(name, RootLoggerName) || name == "" {
		return c.root
	}

	c.mu.RLock()
	l, ok := c.loggers[name]
	c.mu.RUnlock()
	if ok {
		return l
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	parent := c.root
	for i := 0; i <= len(name); i++ {
		if i < len(name) && name[i] != '.' {
			continue
		}
		sub := name[:i]
		next, ok := c.loggers[sub]
		if !ok {
			next = &Logger{name: sub, parent: parent, ctx: c, additive: true}
			c.loggers[sub] = next
		}
		parent = next
	}
	return parent
}

// Root returns the root logger
func (c *LoggerContext) Root() *Logger {
	return c.root
}

// AddStatus records an internal status message
func (c *LoggerContext) AddStatus(msg string) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.statuses = append(c.statuses, msg)
}

// Statuses returns the recorded status messages
func (c *LoggerContext) Statuses() []string {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return append([]string(nil), c.statuses...)
}

// Stop stops every started appender attached to a logger of this context
func (c *LoggerContext) Stop() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[Appender]bool)
	for _, l := range c.loggers {
		for _, a := range l.Appenders() {
			if seen[a] {
				continue
			}
			seen[a] = true
			if lc, ok := a.(LifeCycle); ok && lc.IsStarted() {
				lc.Stop()
			}
		}
	}
}

// Logger is a named node of the hierarchy
type Logger struct {
	mu        sync.RWMutex
	name      string
	parent    *Logger
	ctx       *LoggerContext
	level     *Level
	additive  bool
	appenders []Appender
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// SetLevel sets the level of this logger
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = &level
}

// Level returns the level set on this logger, if any
func (l *Logger) Level() (Level, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.level == nil {
		return 0, false
	}
	return *l.level, true
}

// EffectiveLevel returns the first level set on this logger or an ancestor
func (l *Logger) EffectiveLevel() Level {
	for cur := l; cur != nil; cur = cur.parent {
		if lvl, ok := cur.Level(); ok {
			return lvl
		}
	}
	return DebugLevel
}

// SetAdditive controls whether events also reach the ancestors' appenders
func (l *Logger) SetAdditive(additive bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.additive = additive
}

// Additive reports the additivity flag
func (l *Logger) Additive() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.additive
}

// AddAppender attaches a; attaching the same appender twice is a no-op
func (l *Logger) AddAppender(a Appender) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, cur := range l.appenders {
		if cur == a {
			return
		}
	}
	l.appenders = append(l.appenders, a)
}

// Appenders returns the appenders attached directly to this logger
func (l *Logger) Appenders() []Appender {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Appender(nil), l.appenders...)
}

// Log emits msg at level through this logger and, while additive, its ancestors
func (l *Logger) Log(level Level, msg string) {
	if level >= OffLevel || level < l.EffectiveLevel() {
		return
	}
	e := Event{Time: l.ctx.now(), Level: level, Logger: l.name, Message: msg}
	for cur := l; cur != nil; cur = cur.parent {
		for _, a := range cur.Appenders() {
			a.DoAppend(e)
		}
		if !cur.Additive() {
			return
		}
	}
}

func (l *Logger) Trace(msg string) { l.Log(TraceLevel, msg) }
func (l *Logger) Debug(msg string) { l.Log(DebugLevel, msg) }
func (l *Logger) Info(msg string)  { l.Log(InfoLevel, msg) }
func (l *Logger) Warn(msg string)  { l.Log(WarnLevel, msg) }
func (l *Logger) Error(msg string) { l.Log(ErrorLevel, msg) }

// Infof formats and logs at INFO
func (l *Logger) Infof(format string, args ...any) {
	l.Log(InfoLevel, fmt.Sprintf(format, args...))
}
