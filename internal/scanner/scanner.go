// Package scanner discovers template files on disk.
//
// The scanner walks the configured template paths, keeps the files whose
// extension selects a grammar and whose name matches no exclude pattern, and
// reads them concurrently. It remembers a CRC32 hash per file so repeated
// scans can tell which templates actually changed.
package scanner

import (
	"context"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/conneroisu/htmlc/internal/compiler"
	"github.com/conneroisu/htmlc/internal/config"
	"github.com/conneroisu/htmlc/internal/validation"
)

// TemplateFile is one discovered template.
type TemplateFile struct {
	// Path is the file path as found on disk.
	Path string
	// Name is Path relative to the scanned root, with forward slashes.
	Name    string
	Syntax  compiler.Syntax
	Source  string
	Hash    string
	ModTime time.Time
}

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

// TemplateScanner finds template files under the configured paths. It is
// safe for concurrent use.
type TemplateScanner struct {
	cfg  config.TemplatesConfig
	opts compiler.Options

	mu     sync.Mutex
	hashes map[string]string
}

// New creates a scanner for cfg.
func New(cfg config.TemplatesConfig) *TemplateScanner {
	return &TemplateScanner{
		cfg: cfg,
		opts: compiler.Options{
			TagExtensions:    cfg.TagExtensions,
			NestedExtensions: cfg.NestedExtensions,
		},
		hashes: make(map[string]string),
	}
}

// CompilerOptions returns the extension settings the scanner selects files
// with, for compiling what it finds.
func (s *TemplateScanner) CompilerOptions() compiler.Options { return s.opts }

// Matches reports whether path is a template the scanner would pick up.
func (s *TemplateScanner) Matches(path string) bool {
	if _, err := compiler.DetectSyntax(path, s.opts); err != nil {
		return false
	}
	return !s.excluded(path)
}

func (s *TemplateScanner) excluded(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range s.cfg.ExcludePatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Discover lists the template files under paths, or under the configured
// paths when none are given. File arguments are taken as they are. The
// result is sorted.
func (s *TemplateScanner) Discover(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = s.cfg.Paths
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		root, err := validation.CleanPath(root)
		if err != nil {
			return nil, fmt.Errorf("invalid template path: %w", err)
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && (skippedDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if s.Matches(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Scan discovers and reads every template under paths. Files are read in
// parallel.
func (s *TemplateScanner) Scan(ctx context.Context, paths ...string) ([]*TemplateFile, error) {
	roots := paths
	if len(roots) == 0 {
		roots = s.cfg.Paths
	}
	files, err := s.Discover(roots...)
	if err != nil {
		return nil, err
	}

	return iter.MapErr(files, func(path *string) (*TemplateFile, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tf, _, err := s.ScanFile(*path)
		if err != nil {
			return nil, err
		}
		tf.Name = RelativeName(roots, *path)
		return tf, nil
	})
}

// ScanFile reads one template and reports whether its content changed since
// the scanner last saw it.
func (s *TemplateScanner) ScanFile(path string) (*TemplateFile, bool, error) {
	cleanPath, err := validation.CleanPath(path)
	if err != nil {
		return nil, false, fmt.Errorf("invalid path: %w", err)
	}
	syntax, err := compiler.DetectSyntax(cleanPath, s.opts)
	if err != nil {
		return nil, false, err
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, false, fmt.Errorf("reading file %s: %w", cleanPath, err)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, false, fmt.Errorf("getting file info for %s: %w", cleanPath, err)
	}

	hash := fmt.Sprintf("%x", crc32.ChecksumIEEE(content))
	s.mu.Lock()
	changed := s.hashes[cleanPath] != hash
	s.hashes[cleanPath] = hash
	s.mu.Unlock()

	return &TemplateFile{
		Path:    cleanPath,
		Name:    filepath.ToSlash(cleanPath),
		Syntax:  syntax,
		Source:  string(content),
		Hash:    hash,
		ModTime: info.ModTime(),
	}, changed, nil
}

// Forget drops the remembered hash of a deleted file.
func (s *TemplateScanner) Forget(path string) {
	s.mu.Lock()
	delete(s.hashes, filepath.Clean(path))
	s.mu.Unlock()
}

// RelativeName names path relative to the first root containing it.
func RelativeName(roots []string, path string) string {
	for _, root := range roots {
		rel, err := filepath.Rel(filepath.Clean(root), path)
		if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}
