package logging

import (
	"fmt"
	"strconv"
	"strings"
)

// FileSize is a size in bytes
type FileSize int64

const (
	KB FileSize = 1 << (10 * (iota + 1))
	MB
	GB
)

// ParseFileSize parses sizes such as "512", "10KB", "5 mb" or "1GB"
func ParseFileSize(s string) (FileSize, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	mult := FileSize(1)
	for _, u := range []struct {
		suffix string
		size   FileSize
	}{{"KB", KB}, {"MB", MB}, {"GB", GB}} {
		if strings.HasSuffix(t, u.suffix) {
			mult = u.size
			t = strings.TrimSpace(strings.TrimSuffix(t, u.suffix))
			break
		}
	}
	n, err := strconv.ParseInt(t, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid file size %q", s)
	}
	return FileSize(n) * mult, nil
}

// MustParseFileSize is ParseFileSize that panics on error
func MustParseFileSize(s string) FileSize {
	size, err := ParseFileSize(s)
	if err != nil {
		panic(err)
	}
	return size
}

func (s FileSize) String() string {
	switch {
	case s >= GB && s%GB == 0:
		return fmt.Sprintf("%d GB", s/GB)
	case s >= MB && s%MB == 0:
		return fmt.Sprintf("%d MB", s/MB)
	case s >= KB && s%KB == 0:
		return fmt.Sprintf("%d KB", s/KB)
	}
	return fmt.Sprintf("%d Bytes", int64(s))
}
