package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	noExtensionLabel = "No Extension"
	otherLanguage    = "Other"
)

// Labeler derives the breakdown label for a file path.
type Labeler func(path string) string

// extensionLabel returns the lower-cased substring from the last '.' of the
// file name, or "No Extension" when the name has no dot.
func extensionLabel(path string) string {
	name := filepath.Base(path)
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return noExtensionLabel
	}
	return strings.ToLower(name[idx:])
}

// languageLabeler labels files by languages.yml language name.
func languageLabeler(ld *LoadedLanguageData) Labeler {
	return func(path string) string {
		if lang, ok := ld.GetLanguageForFile(path); ok {
			return lang
		}
		return otherLanguage
	}
}

// TokenAdapter turns one file into one TokenRecord.
type TokenAdapter struct {
	fs        afero.Fs
	tokenizer Tokenizer
	labeler   Labeler // nil outside breakdown mode
	logger    *zap.Logger
	ctx       context.Context
}

// NewTokenAdapter creates an adapter. A nil labeler disables labels.
func NewTokenAdapter(fsys afero.Fs, tk Tokenizer, labeler Labeler, logger *zap.Logger) *TokenAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenAdapter{fs: fsys, tokenizer: tk, labeler: labeler, logger: logger}
}

// WithContext ties the adapter to a run. Failures after the run is cancelled
// are logged at debug level.
func (a *TokenAdapter) WithContext(ctx context.Context) *TokenAdapter {
	a.ctx = ctx
	return a
}

// Tokenize counts the tokens of the file at path. Read and encoder failures
// are logged and collapse to the failure sentinel.
func (a *TokenAdapter) Tokenize(path string) TokenRecord {
	count, err := a.count(path)
	if err != nil {
		if a.ctx != nil && a.ctx.Err() != nil {
			a.logger.Debug("file abandoned after interrupt", zap.String("path", path), zap.Error(err))
		} else {
			a.logger.Warn("error processing file", zap.String("path", path), zap.Error(err))
		}
		return failedRecord(path)
	}

	rec := TokenRecord{Path: path, Tokens: count}
	if a.labeler != nil {
		rec.Label = a.labeler(path)
	}
	return rec
}

func (a *TokenAdapter) count(path string) (n int, err error) {
	content, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return 0, err
	}
	text := strings.ToValidUTF8(string(content), "")

	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("encoder panic: %v", r)
		}
	}()
	return a.tokenizer.CountTokens(text)
}
