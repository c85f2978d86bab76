package filter

import (
	"errors"
	"strings"
)

// Flags modify how Match interprets a pattern.
type Flags uint8

const (
	// NoEscape treats backslash as an ordinary character.
	NoEscape Flags = 1 << iota
	// Pathname requires a slash in the string to be matched by a slash in
	// the pattern; wildcards never cross it.
	Pathname
	// Period requires a leading period to be matched explicitly. With
	// Pathname, "leading" also means right after a slash.
	Period
	// LeadingDir accepts a match when the rest of the string is /<tail>.
	LeadingDir
	// CaseFold compares ASCII letters case-insensitively.
	CaseFold
	// PrefixDirs accepts strings that are a parent directory of what the
	// pattern would match.
	PrefixDirs
)

// ErrMalformedPattern is returned when a bracket expression is not terminated.
var ErrMalformedPattern = errors.New("malformed glob pattern")

// Match reports whether s matches the shell glob pattern.
//
// The error is ErrMalformedPattern when the matcher reached an unterminated
// bracket expression and no other alternative matched.
func Match(pattern, s string, flags Flags) (bool, error) {
	m := matcher{pattern: pattern, s: s}
	return m.run(flags)
}

// Validate checks every bracket expression in pattern, including ones that a
// particular Match call might never reach.
func Validate(pattern string, flags Flags) error {
	m := matcher{pattern: pattern}
	for i := 0; i < len(pattern); {
		switch pattern[i] {
		case '\\':
			if flags&NoEscape == 0 {
				i += 2
				continue
			}
			i++
		case '[':
			next, _, err := m.rangeMatch(i+1, 0, flags)
			if err != nil {
				return err
			}
			i = next
		default:
			i++
		}
	}
	return nil
}

type outcome int

const (
	failed outcome = iota
	matched
	trial
)

// starFrame is a pending '*' whose remaining pattern is being tried against
// successive positions of the string.
type starFrame struct {
	pi    int // pattern index just past the run of stars
	si    int // string index of the current trial
	flags Flags
}

type matcher struct {
	pattern   string
	s         string
	malformed bool
}

// run drives scan, backtracking through pending stars in the order the
// classic recursive fnmatch would have tried them.
func (m *matcher) run(flags Flags) (bool, error) {
	var stack []starFrame
	pi, si, start, fl := 0, 0, 0, flags

	for {
		out, fr := m.scan(pi, si, start, fl)
		switch out {
		case matched:
			return true, nil
		case trial:
			stack = append(stack, fr)
			pi, si, start, fl = fr.pi, fr.si, fr.si, fr.flags&^Period
			continue
		}

		// Backtrack to the innermost star that still has positions left.
		for {
			if len(stack) == 0 {
				if m.malformed {
					return false, ErrMalformedPattern
				}
				return false, nil
			}
			top := &stack[len(stack)-1]
			if m.s[top.si] == '/' && top.flags&Pathname != 0 {
				stack = stack[:len(stack)-1]
				continue
			}
			top.si++
			if top.si >= len(m.s) {
				stack = stack[:len(stack)-1]
				continue
			}
			break
		}
		top := stack[len(stack)-1]
		pi, si, start, fl = top.pi, top.si, top.si, top.flags&^Period
	}
}

// scan matches linearly from (pi, si). start is the index the current
// attempt treats as the beginning of the string.
//
//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: one case per glob token
func (m *matcher) scan(pi, si, start int, fl Flags) (outcome, starFrame) {
	p, s := m.pattern, m.s

	for {
		if pi == len(p) {
			if fl&LeadingDir != 0 && si < len(s) && s[si] == '/' {
				return matched, starFrame{}
			}
			if si == len(s) {
				return matched, starFrame{}
			}
			return failed, starFrame{}
		}

		c := p[pi]
		pi++

		switch c {
		case '?':
			if si == len(s) {
				return failed, starFrame{}
			}
			if s[si] == '/' && fl&Pathname != 0 {
				return failed, starFrame{}
			}
			if leadingPeriod(s, si, start, fl) {
				return failed, starFrame{}
			}
			si++

		case '*':
			for pi < len(p) && p[pi] == '*' {
				pi++
			}
			if leadingPeriod(s, si, start, fl) {
				return failed, starFrame{}
			}

			if pi == len(p) {
				if fl&Pathname == 0 || fl&LeadingDir != 0 || strings.IndexByte(s[si:], '/') < 0 {
					return matched, starFrame{}
				}
				return failed, starFrame{}
			}
			if p[pi] == '/' && fl&Pathname != 0 {
				idx := strings.IndexByte(s[si:], '/')
				if idx < 0 {
					return failed, starFrame{}
				}
				si += idx
				continue
			}

			if si == len(s) {
				return failed, starFrame{}
			}
			return trial, starFrame{pi: pi, si: si, flags: fl}

		case '[':
			if si == len(s) {
				return failed, starFrame{}
			}
			if s[si] == '/' && fl&Pathname != 0 {
				return failed, starFrame{}
			}
			next, ok, err := m.rangeMatch(pi, s[si], fl)
			if err != nil {
				m.malformed = true
				return failed, starFrame{}
			}
			if !ok {
				return failed, starFrame{}
			}
			pi = next
			si++

		default:
			if c == '\\' && fl&NoEscape == 0 && pi < len(p) {
				c = p[pi]
				pi++
			}

			switch {
			case si < len(s) && s[si] == c:
			case fl&CaseFold != 0 && si < len(s) && lower(c) == lower(s[si]):
			case fl&PrefixDirs != 0 && si == len(s) &&
				((c == '/' && si != start) || (si == start+1 && s[start] == '/')):
				return matched, starFrame{}
			default:
				return failed, starFrame{}
			}
			si++
		}
	}
}

// rangeMatch evaluates the bracket expression starting at pi (just past the
// '['). It returns the index past the closing ']' and whether test is a
// member of the set.
func (m *matcher) rangeMatch(pi int, test byte, fl Flags) (int, bool, error) {
	p := m.pattern

	negate := false
	if pi < len(p) && (p[pi] == '!' || p[pi] == '^') {
		negate = true
		pi++
	}
	if fl&CaseFold != 0 {
		test = lower(test)
	}

	ok := false
	for {
		if pi >= len(p) {
			return 0, false, ErrMalformedPattern
		}
		c := p[pi]
		pi++
		if c == ']' {
			break
		}
		if c == '\\' && fl&NoEscape == 0 {
			if pi >= len(p) {
				return 0, false, ErrMalformedPattern
			}
			c = p[pi]
			pi++
		}
		if fl&CaseFold != 0 {
			c = lower(c)
		}

		if pi+1 < len(p) && p[pi] == '-' && p[pi+1] != ']' {
			c2 := p[pi+1]
			pi += 2
			if c2 == '\\' && fl&NoEscape == 0 {
				if pi >= len(p) {
					return 0, false, ErrMalformedPattern
				}
				c2 = p[pi]
				pi++
			}
			if fl&CaseFold != 0 {
				c2 = lower(c2)
			}
			if c <= test && test <= c2 {
				ok = true
			}
		} else if c == test {
			ok = true
		}
	}

	return pi, ok != negate, nil
}

func leadingPeriod(s string, si, start int, fl Flags) bool {
	if fl&Period == 0 || si >= len(s) || s[si] != '.' {
		return false
	}
	if si == start {
		return true
	}
	return fl&Pathname != 0 && si > 0 && s[si-1] == '/'
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
