package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// isGitURL checks if the input looks like a remote Git repository URL.
// Existing local paths are never treated as URLs.
func isGitURL(input string) bool {
	if _, err := os.Stat(input); err == nil {
		return false
	}
	return strings.HasPrefix(input, "git@") ||
		strings.HasPrefix(input, "ssh://") ||
		(strings.HasSuffix(input, ".git") &&
			(strings.HasPrefix(input, "https://") || strings.HasPrefix(input, "http://")))
}

// cloneGitRepo shallow-clones url into a temporary directory and returns its path.
// The caller removes the directory.
func cloneGitRepo(ctx context.Context, url string, progress io.Writer) (string, error) {
	tempDir, err := os.MkdirTemp("", "tokscan-git-")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}

	fmt.Fprintf(progress, "Cloning Git repository '%s' into '%s'...\n", url, tempDir)

	_, err = git.PlainCloneContext(ctx, tempDir, false, &git.CloneOptions{
		URL:           url,
		Progress:      progress,
		ReferenceName: plumbing.HEAD,
		SingleBranch:  true,
		Depth:         1,
	})
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return "", fmt.Errorf("failed to clone repository '%s': %w", url, err)
	}

	return tempDir, nil
}
