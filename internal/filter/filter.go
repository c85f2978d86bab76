package filter

import (
	"fmt"
	"path"
	"strings"
)

// Rule represents a single include or exclude filter rule.
type Rule struct {
	Pattern string
	Include bool // true=include, false=exclude
	DirOnly bool // pattern ended with "/"
}

// Chain holds an ordered list of filter rules plus size filters.
type Chain struct {
	rules   []Rule
	minSize int64
	maxSize int64
}

// NewChain creates an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude adds an exclude rule for the given pattern.
func (c *Chain) AddExclude(pattern string) error {
	return c.add(pattern, false)
}

// AddInclude adds an include rule for the given pattern.
func (c *Chain) AddInclude(pattern string) error {
	return c.add(pattern, true)
}

func (c *Chain) add(pattern string, include bool) error {
	r := Rule{Pattern: pattern, Include: include}
	if len(pattern) > 1 && strings.HasSuffix(pattern, "/") {
		r.DirOnly = true
		r.Pattern = strings.TrimSuffix(pattern, "/")
	}
	if err := Validate(r.Pattern, ruleFlags(r.Pattern)); err != nil {
		return fmt.Errorf("pattern %q: %w", pattern, err)
	}
	c.rules = append(c.rules, r)
	return nil
}

// SetMinSize sets the minimum file size filter.
func (c *Chain) SetMinSize(n int64) {
	c.minSize = n
}

// SetMaxSize sets the maximum file size filter.
func (c *Chain) SetMaxSize(n int64) {
	c.maxSize = n
}

// Empty reports whether the chain has no rules and no size filters.
func (c *Chain) Empty() bool {
	return len(c.rules) == 0 && c.minSize == 0 && c.maxSize == 0
}

// Match returns true if the path should be INCLUDED (not filtered out).
// Patterns without a slash are tested against the base name; patterns with
// one are tested against the whole path with Pathname semantics.
func (c *Chain) Match(p string, isDir bool, size int64) bool {
	if !isDir {
		if c.minSize > 0 && size < c.minSize {
			return false
		}
		if c.maxSize > 0 && size > c.maxSize {
			return false
		}
	}

	// First matching rule wins.
	for _, rule := range c.rules {
		if rule.DirOnly && !isDir {
			continue
		}
		subject := p
		if !strings.Contains(rule.Pattern, "/") {
			subject = path.Base(p)
		}
		ok, err := Match(rule.Pattern, subject, ruleFlags(rule.Pattern))
		if err == nil && ok {
			return rule.Include
		}
	}

	return true
}

func ruleFlags(pattern string) Flags {
	if strings.Contains(pattern, "/") {
		return Pathname | Period
	}
	return Period
}
