package assets

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
)

// PathMode selects how dependency paths are stored in a document.
type PathMode string

const (
	// Absolute stores every dependency with its absolute path.
	Absolute PathMode = document.PathAbsolute
	// Relative stores bare file names; the files are copied next to the
	// document when it is written.
	Relative PathMode = document.PathRelative
)

// ParsePathMode parses a path mode name. The empty string means [Absolute].
func ParsePathMode(s string) (PathMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Absolute):
		return Absolute, nil
	case string(Relative):
		return Relative, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown path mode %q (want absolute or relative)", s)
	}
}

// Source is a file to stage next to a document written in relative mode.
type Source struct {
	// Path is the absolute location of the asset file.
	Path string
	// Name is the bare file name the document refers to.
	Name string
}

// Finalize turns collected entries into the document manifest. Paths that
// are not absolute are taken relative to baseDir.
//
// In relative mode every dependency is stored as a bare file name and a
// [Source] is returned for it. Distinct files that share a base name get a
// numbered name ("wood.001.png") and a NAME_CONFLICT warning. An entry
// without a path is recorded under its asset name and is not copied.
func Finalize(entries []Entry, mode PathMode, baseDir string) ([]document.Dependency, []Source, []errors.Warning) {
	var (
		deps     = make([]document.Dependency, 0, len(entries))
		sources  []Source
		warnings []errors.Warning
		taken    = make(map[string]string) // bare name -> absolute source
	)

	for _, e := range entries {
		abs := e.Path
		if abs != "" && !filepath.IsAbs(abs) {
			abs = filepath.Join(baseDir, abs)
		}
		if abs != "" {
			abs = filepath.Clean(abs)
		}

		if mode != Relative {
			deps = append(deps, document.Dependency{Kind: e.Kind, Name: e.Name, Path: abs})
			continue
		}

		if abs == "" {
			name := filepath.Base(e.Name)
			deps = append(deps, document.Dependency{Kind: e.Kind, Name: e.Name, Path: name})
			warnings = append(warnings, errors.Warning{
				Code: errors.WarnDependencyLoadFailed, Key: e.Name,
				Message: fmt.Sprintf("%s %q has no source file and is not copied", e.Kind, e.Name),
			})
			continue
		}

		name := filepath.Base(abs)
		if prev, ok := taken[name]; ok && prev != abs {
			renamed := numbered(name, func(s string) bool { _, ok := taken[s]; return ok })
			warnings = append(warnings, errors.Warning{
				Code: errors.WarnNameConflict, Key: e.Name,
				Message: fmt.Sprintf("%s already used by %s, stored as %s", name, prev, renamed),
			})
			name = renamed
		}
		if _, ok := taken[name]; !ok {
			taken[name] = abs
			sources = append(sources, Source{Path: abs, Name: name})
		}
		deps = append(deps, document.Dependency{Kind: e.Kind, Name: e.Name, Path: name})
	}
	return deps, sources, warnings
}

// numbered returns the first "stem.NNN.ext" variant of name not taken.
func numbered(name string, taken func(string) bool) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d%s", stem, i, ext)
		if !taken(candidate) {
			return candidate
		}
	}
}
