// Package anchors tracks the addressable locations of a build (headings and
// documented symbols) and resolves reference keys against them.
package anchors

import (
	"errors"
	"fmt"
	"sort"
)

// Scope controls where an anchor is visible.
type Scope int

const (
	// ScopeGlobal anchors are visible from every file. This is the default.
	ScopeGlobal Scope = iota
	// ScopeLocal anchors are visible from their own file first; other files
	// only reach them when no global anchor matches.
	ScopeLocal
)

var (
	// ErrDuplicate reports a second registration of a key within one scope.
	ErrDuplicate = errors.New("duplicate anchor")
	// ErrNotFound reports a key with no registered anchor in any reachable scope.
	ErrNotFound = errors.New("anchor not found")
	// ErrAmbiguous reports multiple equally-scoped candidates for a key.
	ErrAmbiguous = errors.New("ambiguous anchor")
)

// Anchor is one addressable location.
type Anchor struct {
	Key   string // unique within its scope
	File  string // owning file, relative to the source root
	Label string // display text
	Line  int
}

// Registry holds every anchor registered during a build. Anchors are
// append-only: registration failures leave the first registration intact.
type Registry struct {
	global map[string]*Anchor
	local  map[string]map[string]*Anchor // file -> key -> anchor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		global: make(map[string]*Anchor),
		local:  make(map[string]map[string]*Anchor),
	}
}

// Register adds an anchor in the given scope. A duplicate key within the same
// scope returns ErrDuplicate and keeps the first anchor resolvable.
func (r *Registry) Register(a Anchor, scope Scope) error {
	switch scope {
	case ScopeLocal:
		fileScope := r.local[a.File]
		if fileScope == nil {
			fileScope = make(map[string]*Anchor)
			r.local[a.File] = fileScope
		}
		if prev, ok := fileScope[a.Key]; ok {
			return fmt.Errorf("%w: %q already registered in %s at line %d", ErrDuplicate, a.Key, prev.File, prev.Line)
		}
		anchor := a
		fileScope[a.Key] = &anchor
	default:
		if prev, ok := r.global[a.Key]; ok {
			return fmt.Errorf("%w: %q already registered in %s at line %d", ErrDuplicate, a.Key, prev.File, prev.Line)
		}
		anchor := a
		r.global[a.Key] = &anchor
	}
	return nil
}

// Has reports whether the key resolves from the given file.
func (r *Registry) Has(key, fromFile string) bool {
	_, err := r.Resolve(key, fromFile)
	return err == nil
}

// Resolve finds the anchor for a key as seen from fromFile. Precedence, most
// narrowly scoped first:
//
//  1. the local scope of fromFile itself,
//  2. the global scope,
//  3. the local scopes of other files, but only when exactly one matches —
//     several same-tier matches are ErrAmbiguous, never an arbitrary pick.
func (r *Registry) Resolve(key, fromFile string) (*Anchor, error) {
	if fileScope, ok := r.local[fromFile]; ok {
		if a, ok := fileScope[key]; ok {
			return a, nil
		}
	}
	if a, ok := r.global[key]; ok {
		return a, nil
	}

	var candidates []*Anchor
	for file, fileScope := range r.local {
		if file == fromFile {
			continue
		}
		if a, ok := fileScope[key]; ok {
			candidates = append(candidates, a)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	case 1:
		return candidates[0], nil
	default:
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].File < candidates[j].File })
		files := make([]string, len(candidates))
		for i, c := range candidates {
			files[i] = c.File
		}
		return nil, fmt.Errorf("%w: %q matches local anchors in %v", ErrAmbiguous, key, files)
	}
}

// Len returns the total number of registered anchors.
func (r *Registry) Len() int {
	n := len(r.global)
	for _, fs := range r.local {
		n += len(fs)
	}
	return n
}
