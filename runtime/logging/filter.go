package logging

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
)

// FilterReply is the outcome of a filter decision
type FilterReply int

const (
	Neutral FilterReply = iota
	Accept
	Deny
)

func (r FilterReply) String() string {
	switch r {
	case Accept:
		return "ACCEPT"
	case Deny:
		return "DENY"
	default:
		return "NEUTRAL"
	}
}

// ParseFilterReply parses ACCEPT, DENY or NEUTRAL, case-insensitively
func ParseFilterReply(s string) (FilterReply, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACCEPT":
		return Accept, nil
	case "DENY":
		return Deny, nil
	case "NEUTRAL":
		return Neutral, nil
	}
	return Neutral, fmt.Errorf("unknown filter reply %q", s)
}

// MustParseFilterReply is ParseFilterReply that panics on error
func MustParseFilterReply(s string) FilterReply {
	r, err := ParseFilterReply(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Filter decides whether an appender handles an event
type Filter interface {
	Decide(e Event) FilterReply
}

// ThresholdFilter denies events below a level
type ThresholdFilter struct {
	ContextAwareBase
	level   Level
	started bool
}

// NewThresholdFilter returns a filter with the TRACE threshold
func NewThresholdFilter() *ThresholdFilter {
	return &ThresholdFilter{level: TraceLevel}
}

// SetLevel sets the threshold by level name
func (f *ThresholdFilter) SetLevel(level string) { f.level = ParseLevel(level) }
func (f *ThresholdFilter) Start()                { f.started = true }
func (f *ThresholdFilter) Stop()                 { f.started = false }
func (f *ThresholdFilter) IsStarted() bool       { return f.started }

// Decide denies events below the threshold
func (f *ThresholdFilter) Decide(e Event) FilterReply {
	if !f.started {
		return Neutral
	}
	if e.Level < f.level {
		return Deny
	}
	return Neutral
}

// LevelFilter matches events of exactly one level
type LevelFilter struct {
	ContextAwareBase
	level      Level
	onMatch    FilterReply
	onMismatch FilterReply
	started    bool
}

// NewLevelFilter returns a filter whose replies are both NEUTRAL
func NewLevelFilter() *LevelFilter {
	return &LevelFilter{level: InfoLevel}
}

func (f *LevelFilter) SetLevel(level string)        { f.level = ParseLevel(level) }
func (f *LevelFilter) SetOnMatch(r FilterReply)    { f.onMatch = r }
func (f *LevelFilter) SetOnMismatch(r FilterReply) { f.onMismatch = r }
func (f *LevelFilter) Start()                      { f.started = true }
func (f *LevelFilter) Stop()                       { f.started = false }
func (f *LevelFilter) IsStarted() bool             { return f.started }

// Decide returns onMatch for events at the configured level, onMismatch otherwise
func (f *LevelFilter) Decide(e Event) FilterReply {
	if !f.started {
		return Neutral
	}
	if e.Level == f.level {
		return f.onMatch
	}
	return f.onMismatch
}

// SamplingFilter lets through one event out of every 1/ratio, using a
// zerolog.BasicSampler.
type SamplingFilter struct {
	ratio   float64
	sampler *zerolog.BasicSampler
}

// NewSamplingFilter returns a filter accepting every event
func NewSamplingFilter() *SamplingFilter {
	f := &SamplingFilter{}
	f.SetRatio(1)
	return f
}

// SetRatio sets the kept fraction, clamped to (0, 1]
func (f *SamplingFilter) SetRatio(ratio float64) {
	if ratio <= 0 || ratio > 1 || math.IsNaN(ratio) {
		ratio = 1
	}
	f.ratio = ratio
	f.sampler = &zerolog.BasicSampler{N: uint32(math.Round(1 / ratio))}
}

// Ratio returns the kept fraction
func (f *SamplingFilter) Ratio() float64 {
	return f.ratio
}

// Decide denies the events the sampler drops
func (f *SamplingFilter) Decide(e Event) FilterReply {
	if f.sampler.Sample(e.Level.zerolog()) {
		return Neutral
	}
	return Deny
}
