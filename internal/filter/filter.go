package filter

// rule is a single include or exclude entry in the chain.
type rule struct {
	pattern *compiledPattern
	include bool
}

// Chain holds an ordered list of include/exclude rules plus size bounds.
// Rules are evaluated in the order they were added; first match wins.
type Chain struct {
	rules   []rule
	minSize int64
	maxSize int64
}

// NewChain creates an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude adds an exclude rule for the given pattern.
func (c *Chain) AddExclude(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, rule{pattern: cp, include: false})
	return nil
}

// AddInclude adds an include rule for the given pattern.
func (c *Chain) AddInclude(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, rule{pattern: cp, include: true})
	return nil
}

// SetMinSize sets the minimum file size bound.
func (c *Chain) SetMinSize(n int64) { c.minSize = n }

// SetMaxSize sets the maximum file size bound.
func (c *Chain) SetMaxSize(n int64) { c.maxSize = n }

// Empty reports whether the chain has no rules and no size bounds.
func (c *Chain) Empty() bool {
	return len(c.rules) == 0 && c.minSize == 0 && c.maxSize == 0
}

// Match returns true if the path should be included (not filtered out).
// relPath is relative to the mirrored root, isDir marks directories, and
// size is the file size (ignored for directories).
//
// Excluded paths are invisible to the reconciler on both sides: they are
// neither copied from the source nor deleted from the replica.
func (c *Chain) Match(relPath string, isDir bool, size int64) bool {
	if !isDir {
		if c.minSize > 0 && size < c.minSize {
			return false
		}
		if c.maxSize > 0 && size > c.maxSize {
			return false
		}
	}

	for _, r := range c.rules {
		if r.pattern.match(relPath, isDir) {
			return r.include
		}
	}

	// No rule matched: include by default.
	return true
}
