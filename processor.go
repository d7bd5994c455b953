package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Walker enumerates candidate files below a root directory.
type Walker struct {
	fs     afero.Fs
	filter FilterConfig
	logger *zap.Logger
}

// NewWalker creates a Walker over fsys. Use afero.NewOsFs() for the real
// filesystem or afero.NewMemMapFs() in tests.
func NewWalker(fsys afero.Fs, filter FilterConfig, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{fs: fsys, filter: filter, logger: logger}
}

// Enumerate walks root and returns every text file that survives the filters,
// in walk order. An empty result is not an error.
func (w *Walker) Enumerate(ctx context.Context, root string) ([]string, error) {
	info, err := w.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, errNotDirectory)
	}

	ignoreMatcher := w.loadGitignore(root)

	var files []string
	err = afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			w.logger.Warn("error accessing path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if path == root {
			return nil
		}

		isDir := info.IsDir()
		if isDir {
			if _, excluded := w.filter.ExcludeDirs[info.Name()]; excluded {
				return filepath.SkipDir
			}
		}
		if ignoreMatcher != nil && ignoreMatcher.Match(path, isDir) {
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}
		if isDir {
			return nil
		}
		if !info.Mode().IsRegular() {
			// Symlinks are followed; pipes, sockets and devices are never opened.
			target, err := w.fs.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				w.logger.Debug("skipping non-regular file", zap.String("path", path))
				return nil
			}
			info = target
		}

		if w.filter.MaxSizeBytes > 0 && info.Size() > w.filter.MaxSizeBytes {
			w.logger.Debug("skipping large file", zap.String("path", path), zap.Int64("size", info.Size()))
			return nil
		}
		// Extension rules are checked before opening the file; the outcome is the same either way.
		if !w.filter.matchesExtensions(info.Name()) {
			return nil
		}
		if !isTextFile(w.fs, path) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", root, err)
	}

	return files, nil
}

// loadGitignore returns a matcher for root/.gitignore when enabled and present.
func (w *Walker) loadGitignore(root string) gitignore.IgnoreMatcher {
	if !w.filter.RespectGitignore {
		return nil
	}
	gitIgnorePath := filepath.Join(root, ".gitignore")
	f, err := w.fs.Open(gitIgnorePath)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("could not open .gitignore", zap.String("path", gitIgnorePath), zap.Error(err))
		}
		return nil
	}
	defer f.Close()
	return gitignore.NewGitIgnoreFromReader(root, f)
}

// matchesExtensions applies the inclusion list, then the exclusion list, to a file name.
func (fc FilterConfig) matchesExtensions(name string) bool {
	lower := strings.ToLower(name)
	if len(fc.IncludeExts) > 0 && !hasAnySuffix(lower, fc.IncludeExts) {
		return false
	}
	if len(fc.ExcludeExts) > 0 && hasAnySuffix(lower, fc.ExcludeExts) {
		return false
	}
	return true
}

func hasAnySuffix(lowerName string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(lowerName, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
