package watcher

import (
	"path/filepath"
	"slices"
	"strings"
)

// FileFilter determines if a file should be watched
type FileFilter func(path string) bool

// Matcher is satisfied by the template scanner.
type Matcher interface {
	Matches(path string) bool
}

// TemplateFilter accepts the files m would scan.
func TemplateFilter(m Matcher) FileFilter {
	return m.Matches
}

// NoVendorFilter rejects anything under a vendor directory.
func NoVendorFilter(path string) bool {
	return !underDir(path, "vendor")
}

// NoGitFilter rejects anything under a .git directory.
func NoGitFilter(path string) bool {
	return !underDir(path, ".git")
}

func underDir(path, dir string) bool {
	return slices.Contains(strings.Split(filepath.ToSlash(filepath.Dir(path)), "/"), dir)
}

// ignoredDir reports directories never watched: hidden ones, vendor and
// node_modules.
func ignoredDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules"
}
