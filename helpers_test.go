package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// wordTokenizer counts whitespace-separated words; deterministic and offline.
type wordTokenizer struct{}

func (wordTokenizer) CountTokens(text string) (int, error) { return len(strings.Fields(text)), nil }
func (wordTokenizer) Name() string                         { return "words" }
func (wordTokenizer) Close()                               {}

// failingTokenizer fails for any text containing marker.
type failingTokenizer struct {
	marker string
	panics bool
}

func (f failingTokenizer) CountTokens(text string) (int, error) {
	if strings.Contains(text, f.marker) {
		if f.panics {
			panic("encoder blew up")
		}
		return 0, errors.New("encoder failure")
	}
	return len(strings.Fields(text)), nil
}
func (failingTokenizer) Name() string { return "failing" }
func (failingTokenizer) Close()       {}

// writeTree creates files on an in-memory filesystem.
func writeTree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

// sampleTree is the three-file tree used throughout the pipeline tests.
func sampleTree(t *testing.T) afero.Fs {
	return writeTree(t, map[string]string{
		"/repo/a.py":  "print(1)",
		"/repo/b.md":  "# Title",
		"/repo/c.bin": "bin\x00ary",
	})
}
