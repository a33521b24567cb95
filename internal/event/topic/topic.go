// Package topic names bus events. A topic is a dot-separated path such as
// "blocks.inserted"; subscription patterns may use "*" for one segment and
// "**" for any number of segments.
package topic

import "strings"

// Topic is an event name or a subscription pattern.
type Topic string

const (
	one  = "*"
	many = "**"
	sep  = "."
)

func (t Topic) String() string {
	return string(t)
}

// Base returns the last segment: "blocks.inserted" -> "inserted".
func (t Topic) Base() string {
	s := string(t)
	return s[strings.LastIndex(s, sep)+1:]
}

// IsValid reports whether t is non-empty with no empty segments.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range strings.Split(string(t), sep) {
		if seg == "" {
			return false
		}
	}
	return true
}

// Matches reports whether t is selected by pattern.
func (t Topic) Matches(pattern Topic) bool {
	var segs []string
	if t != "" {
		segs = strings.Split(string(t), sep)
	}
	var pat []string
	if pattern != "" {
		pat = strings.Split(string(pattern), sep)
	}
	return match(segs, pat)
}

func match(segs, pat []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}
	switch head := pat[0]; {
	case head == many:
		for i := 0; i <= len(segs); i++ {
			if match(segs[i:], pat[1:]) {
				return true
			}
		}
		return false
	case len(segs) == 0:
		return false
	case head == one || head == segs[0]:
		return match(segs[1:], pat[1:])
	}
	return false
}
