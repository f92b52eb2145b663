// Package ports parses port list expressions such as "22,80,8000-8100".
package ports

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	MinPort = 1
	MaxPort = 65535
)

var (
	ErrEmptyList  = errors.New("port list cannot be empty")
	ErrOutOfRange = fmt.Errorf("port numbers must be in %d..%d", MinPort, MaxPort)
)

// Valid reports whether port is a usable TCP port number
func Valid(port int) bool {
	return port >= MinPort && port <= MaxPort
}

// Parse converts a port list expression into a sorted, deduplicated slice.
// Supported forms: "22", "22,80,443", "1-1024" and any mix of them.
func Parse(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ErrEmptyList
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("invalid empty token in port list %q", spec)
		}

		// Ranges (e.g. 80-85)
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			start, err := parsePort(bounds[0])
			if err != nil {
				return nil, err
			}
			end, err := parsePort(bounds[1])
			if err != nil {
				return nil, err
			}
			if start > end {
				return nil, fmt.Errorf("range start greater than end: %s", part)
			}
			for p := start; p <= end; p++ {
				seen[p] = struct{}{}
			}
			continue
		}

		p, err := parsePort(part)
		if err != nil {
			return nil, err
		}
		seen[p] = struct{}{}
	}

	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out, nil
}

// Dedupe returns the distinct values of list in ascending order
func Dedupe(list []int) []int {
	seen := make(map[int]struct{}, len(list))
	out := make([]int, 0, len(list))
	for _, p := range list {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func parsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	if !Valid(p) {
		return 0, fmt.Errorf("port %d: %w", p, ErrOutOfRange)
	}
	return p, nil
}
