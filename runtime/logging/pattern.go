package logging

import (
	"fmt"
	"strconv"
	"strings"
)

const defaultDateLayout = "2006-01-02 15:04:05,000"

type converter struct {
	literal  string
	keyword  string
	option   string
	min, max int
	left     bool
	layout   string
}

// parsePattern compiles a logback conversion pattern such as
// "%d{HH:mm:ss} %-5level %logger{20} - %msg%n".
func parsePattern(pattern string) ([]converter, error) {
	var out []converter
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			out = append(out, converter{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch == '\\' && i+1 < len(pattern) {
			i++
			lit.WriteByte(pattern[i])
			continue
		}
		if ch != '%' {
			lit.WriteByte(ch)
			continue
		}
		if i+1 < len(pattern) && pattern[i+1] == '%' {
			lit.WriteByte('%')
			i++
			continue
		}
		flush()

		c := converter{}
		j := i + 1
		if j < len(pattern) && pattern[j] == '-' {
			c.left = true
			j++
		}
		start := j
		for j < len(pattern) && pattern[j] >= '0' && pattern[j] <= '9' {
			j++
		}
		if j > start {
			c.min, _ = strconv.Atoi(pattern[start:j])
		}
		if j < len(pattern) && pattern[j] == '.' {
			j++
			start = j
			for j < len(pattern) && pattern[j] >= '0' && pattern[j] <= '9' {
				j++
			}
			c.max, _ = strconv.Atoi(pattern[start:j])
		}
		start = j
		for j < len(pattern) && isKeywordByte(pattern[j]) {
			j++
		}
		c.keyword = pattern[start:j]
		if c.keyword == "" {
			return nil, fmt.Errorf("missing conversion word at offset %d", i)
		}
		if j < len(pattern) && pattern[j] == '{' {
			end := strings.IndexByte(pattern[j:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated option for %%%s", c.keyword)
			}
			c.option = pattern[j+1 : j+end]
			j += end + 1
		}
		if err := c.resolve(); err != nil {
			return nil, err
		}
		out = append(out, c)
		i = j - 1
	}
	flush()
	return out, nil
}

func isKeywordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func (c *converter) resolve() error {
	switch c.keyword {
	case "d", "date":
		c.keyword = "date"
		c.layout = javaDateLayout(c.option)
	case "level", "le", "p":
		c.keyword = "level"
	case "logger", "lo", "c":
		c.keyword = "logger"
	case "msg", "m", "message":
		c.keyword = "msg"
	case "thread", "t":
		c.keyword = "thread"
	case "n":
		c.literal = "\n"
		c.keyword = ""
	default:
		return fmt.Errorf("unknown conversion word %q", c.keyword)
	}
	return nil
}

var javaDate = strings.NewReplacer(
	"yyyy", "2006", "yy", "06",
	"MMM", "Jan", "MM", "01",
	"dd", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
	"SSS", "000",
)

func javaDateLayout(opt string) string {
	switch opt {
	case "", "ISO8601":
		return defaultDateLayout
	}
	return javaDate.Replace(opt)
}

func (c converter) write(sb *strings.Builder, e Event) {
	var s string
	switch c.keyword {
	case "":
		sb.WriteString(c.literal)
		return
	case "date":
		s = e.Time.Format(c.layout)
	case "level":
		s = e.Level.String()
	case "logger":
		s = abbreviate(e.Logger, c.option)
	case "msg":
		s = e.Message
	case "thread":
		s = "main"
	}
	if c.max > 0 && len(s) > c.max {
		s = s[len(s)-c.max:]
	}
	if pad := c.min - len(s); pad > 0 {
		if c.left {
			s += strings.Repeat(" ", pad)
		} else {
			s = strings.Repeat(" ", pad) + s
		}
	}
	sb.WriteString(s)
}

// abbreviate shortens a dotted logger name to at most the target length by
// reducing leading segments to their first letter. Target 0 keeps the last segment.
func abbreviate(name, option string) string {
	if option == "" {
		return name
	}
	target, err := strconv.Atoi(option)
	if err != nil || len(name) <= target && target > 0 {
		return name
	}
	parts := strings.Split(name, ".")
	if target == 0 {
		return parts[len(parts)-1]
	}
	for i := 0; i < len(parts)-1 && len(strings.Join(parts, ".")) > target; i++ {
		parts[i] = parts[i][:min(1, len(parts[i]))]
	}
	return strings.Join(parts, ".")
}
