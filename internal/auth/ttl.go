package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTTL accepts a bare number of seconds ("300") or a number with one of
// the units s, m, h, d ("5m", "1d").
func ParseTTL(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty ttl")
	}

	unit := time.Second
	switch s[len(s)-1] {
	case 's':
		s = s[:len(s)-1]
	case 'm':
		unit = time.Minute
		s = s[:len(s)-1]
	case 'h':
		unit = time.Hour
		s = s[:len(s)-1]
	case 'd':
		unit = 24 * time.Hour
		s = s[:len(s)-1]
	}

	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid ttl %q", raw)
	}
	return time.Duration(n) * unit, nil
}
