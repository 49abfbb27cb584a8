package engine

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Decision is the outcome of filtering one path.
type Decision int

const (
	// Visit processes the path normally.
	Visit Decision = iota
	// Included processes the path because an include pattern matched it.
	Included
	// Excluded skips the path because an exclude pattern matched it.
	Excluded
	// Hidden skips the path because one of its segments starts with a dot.
	Hidden
)

func (d Decision) String() string {
	switch d {
	case Included:
		return "included"
	case Excluded:
		return "excluded"
	case Hidden:
		return "hidden"
	default:
		return "visit"
	}
}

// Skip reports whether the path is left out of the build.
func (d Decision) Skip() bool { return d == Excluded || d == Hidden }

// Filter decides which input paths take part in a build. Patterns are
// doublestar globs matched against slash-separated paths relative to the
// input directory. Include wins over exclude, and exclude over the hidden
// rule.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter validates the patterns and returns a filter.
func NewFilter(include, exclude []string) (*Filter, error) {
	for _, p := range append(append([]string(nil), include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid file pattern %q", p)
		}
	}
	return &Filter{include: include, exclude: exclude}, nil
}

// Decide classifies rel, a slash-separated relative path.
func (f *Filter) Decide(rel string, isDir bool) Decision {
	switch {
	case f.matchAny(f.include, rel, isDir) || isDir && f.leadsToInclude(rel):
		return Included
	case f.excluded(rel, isDir):
		return Excluded
	case strings.Contains("/"+rel, "/."):
		return Hidden
	}
	return Visit
}

func (f *Filter) matchAny(patterns []string, rel string, isDir bool) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, rel) || isDir && doublestar.MatchUnvalidated(p, rel+"/") {
			return true
		}
	}
	return false
}

// excluded reports whether rel or one of its parent directories matches an
// exclude pattern. Parents only matter below directories entered through
// leadsToInclude.
func (f *Filter) excluded(rel string, isDir bool) bool {
	if f.matchAny(f.exclude, rel, isDir) {
		return true
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if f.matchAny(f.exclude, dir, true) {
			return true
		}
	}
	return false
}

// leadsToInclude reports whether an include pattern names a path below the
// directory rel literally, so hidden or excluded parents of an included
// file are still entered.
func (f *Filter) leadsToInclude(rel string) bool {
	for _, p := range f.include {
		if strings.HasPrefix(p, rel+"/") {
			return true
		}
	}
	return false
}
