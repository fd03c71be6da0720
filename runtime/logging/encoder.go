package logging

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Encoder turns events into bytes
type Encoder interface {
	Encode(e Event) ([]byte, error)
	Header() []byte
}

var errNotStarted = errors.New("encoder not started")

// PatternLayoutEncoder renders events with a logback conversion pattern
type PatternLayoutEncoder struct {
	ContextAwareBase
	pattern       string
	patternHeader bool
	converters    []converter
	started       bool
}

// NewPatternLayoutEncoder returns an encoder with the default pattern
func NewPatternLayoutEncoder() *PatternLayoutEncoder {
	return &PatternLayoutEncoder{pattern: "%d %-5level %logger - %msg%n"}
}

func (p *PatternLayoutEncoder) SetPattern(pattern string) { p.pattern = pattern }
func (p *PatternLayoutEncoder) Pattern() string           { return p.pattern }

// SetOutputPatternAsHeader writes the pattern at the top of every opened output
func (p *PatternLayoutEncoder) SetOutputPatternAsHeader(v bool) { p.patternHeader = v }

// Start compiles the pattern
func (p *PatternLayoutEncoder) Start() {
	convs, err := parsePattern(p.pattern)
	if err != nil {
		p.AddError("invalid pattern %q: %v", p.pattern, err)
		return
	}
	p.converters = convs
	p.started = true
}

func (p *PatternLayoutEncoder) Stop()           { p.started = false }
func (p *PatternLayoutEncoder) IsStarted() bool { return p.started }

// Header returns the pattern line when SetOutputPatternAsHeader(true) was called
func (p *PatternLayoutEncoder) Header() []byte {
	if !p.patternHeader {
		return nil
	}
	return []byte("#logback.classic pattern: " + p.pattern + "\n")
}

// Encode renders e
func (p *PatternLayoutEncoder) Encode(e Event) ([]byte, error) {
	if !p.started {
		return nil, errNotStarted
	}
	var sb strings.Builder
	for _, c := range p.converters {
		c.write(&sb, e)
	}
	return []byte(sb.String()), nil
}

// JSONEncoder writes one zerolog JSON object per event
type JSONEncoder struct {
	includeLogger bool
}

// NewJSONEncoder returns an encoder that includes the logger name
func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{includeLogger: true}
}

func (j *JSONEncoder) SetIncludeLoggerName(v bool) { j.includeLogger = v }
func (j *JSONEncoder) Header() []byte              { return nil }

// Encode renders e as a JSON line
func (j *JSONEncoder) Encode(e Event) ([]byte, error) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	ev := zl.Log().
		Time(zerolog.TimestampFieldName, e.Time).
		Str(zerolog.LevelFieldName, e.Level.zerolog().String())
	if j.includeLogger {
		ev = ev.Str("logger", e.Logger)
	}
	ev.Msg(e.Message)
	return buf.Bytes(), nil
}

// ConsoleEncoder renders events the way zerolog.ConsoleWriter prints them
type ConsoleEncoder struct {
	ContextAwareBase
	noColor    bool
	timeFormat string
	json       JSONEncoder
	started    bool
}

// NewConsoleEncoder returns a colored encoder printing the time of day
func NewConsoleEncoder() *ConsoleEncoder {
	return &ConsoleEncoder{timeFormat: "15:04:05", json: JSONEncoder{includeLogger: true}}
}

func (c *ConsoleEncoder) SetNoColor(v bool)        { c.noColor = v }
func (c *ConsoleEncoder) SetTimeFormat(f string)   { c.timeFormat = f }
func (c *ConsoleEncoder) Header() []byte           { return nil }
func (c *ConsoleEncoder) Start()                   { c.started = true }
func (c *ConsoleEncoder) Stop()                    { c.started = false }
func (c *ConsoleEncoder) IsStarted() bool          { return c.started }

// Encode renders e as one console line
func (c *ConsoleEncoder) Encode(e Event) ([]byte, error) {
	if !c.started {
		return nil, errNotStarted
	}
	raw, err := c.json.Encode(e)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	w := zerolog.ConsoleWriter{
		Out:        &out,
		NoColor:    c.noColor,
		TimeFormat: c.timeFormat,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("console encode: %w", err)
	}
	return out.Bytes(), nil
}

// DelimitedEncoder writes time, level, logger and message separated by a single rune
type DelimitedEncoder struct {
	delimiter rune
}

// NewDelimitedEncoder returns an encoder using ','
func NewDelimitedEncoder() *DelimitedEncoder {
	return &DelimitedEncoder{delimiter: ','}
}

func (d *DelimitedEncoder) SetDelimiter(r rune) { d.delimiter = r }
func (d *DelimitedEncoder) Header() []byte      { return nil }

// Encode renders e as one delimited line
func (d *DelimitedEncoder) Encode(e Event) ([]byte, error) {
	sep := string(d.delimiter)
	fields := []string{e.Time.Format(time.RFC3339Nano), e.Level.String(), e.Logger, e.Message}
	return []byte(strings.Join(fields, sep) + "\n"), nil
}
