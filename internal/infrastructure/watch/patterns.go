package watch

import (
	"path/filepath"
	"slices"
	"strings"
)

// tempPrefix marks the files storage writes before renaming them into place.
const tempPrefix = ".tmp-"

// FileSet is the set of workspace file names whose changes trigger a refresh.
type FileSet map[string]struct{}

func NewFileSet(names ...string) FileSet {
	s := make(FileSet, len(names))
	for _, n := range names {
		s[filepath.Base(n)] = struct{}{}
	}
	return s
}

// Contains reports whether path names a watched file. Only the base name is
// compared, and temp files never match.
func (s FileSet) Contains(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, tempPrefix) {
		return false
	}
	_, ok := s[base]
	return ok
}

// Names returns the watched names in sorted order.
func (s FileSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
