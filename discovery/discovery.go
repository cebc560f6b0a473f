// Package discovery expands a directory/file-name-pattern pair into a
// sorted list of matching file paths, the way HistoryFileImporter resolves
// a HistoryFileEvent before it starts reading.
package discovery

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/karrick/godirwalk"
)

// Glob returns every path directly under dir whose base name matches
// pattern (a filepath.Match pattern), sorted ascending. It is the
// non-recursive case: one directory, no descent into children.
func Glob(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// WalkGlob recursively descends dir, returning every regular file anywhere
// beneath it whose base name matches pattern, sorted ascending. It uses
// godirwalk rather than filepath.Walk for the allocation-free callback walk
// the teacher's own log-tailing discovery favors on large directory trees.
func WalkGlob(dir, pattern string) ([]string, error) {
	var out []string
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			ok, err := filepath.Match(pattern, filepath.Base(path))
			if err != nil {
				return err
			}
			if ok {
				out = append(out, path)
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Discover resolves dir/pattern into a sorted file list, recursing when
// recursive is set.
func Discover(dir, pattern string, recursive bool) ([]string, error) {
	if recursive {
		return WalkGlob(dir, pattern)
	}
	return Glob(dir, pattern)
}
