package main

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestExtensionLabel(t *testing.T) {
	tests := map[string]string{
		"/src/main.go":        ".go",
		"/src/README.MD":      ".md",
		"/src/archive.tar.gz": ".gz",
		"/src/Makefile":       noExtensionLabel,
		"/src/.bashrc":        ".bashrc",
		"/src/dir.d/LICENSE":  noExtensionLabel,
		"trailing.":           ".",
	}
	for path, want := range tests {
		assert.Equal(t, want, extensionLabel(path), path)
	}
}

func TestTokenAdapter_Tokenize(t *testing.T) {
	fs := writeTree(t, map[string]string{
		"/r/a.PY":   "one two three",
		"/r/bad.go": "ok \xff\xfe fine",
	})

	plain := NewTokenAdapter(fs, wordTokenizer{}, nil, nil)
	rec := plain.Tokenize("/r/a.PY")
	assert.Equal(t, TokenRecord{Path: "/r/a.PY", Tokens: 3}, rec)

	labelled := NewTokenAdapter(fs, wordTokenizer{}, extensionLabel, nil)
	rec = labelled.Tokenize("/r/a.PY")
	assert.Equal(t, TokenRecord{Path: "/r/a.PY", Label: ".py", Tokens: 3}, rec)

	// Invalid UTF-8 is dropped rather than failing the file.
	rec = labelled.Tokenize("/r/bad.go")
	assert.False(t, rec.Failed)
	assert.Equal(t, 2, rec.Tokens)
}

func TestTokenAdapter_FailuresBecomeSentinel(t *testing.T) {
	fs := writeTree(t, map[string]string{
		"/r/boom.txt":  "contains BOOM",
		"/r/panic.txt": "contains PANIC",
	})

	tests := []struct {
		name string
		tk   Tokenizer
		path string
	}{
		{"missing file", wordTokenizer{}, "/r/missing.txt"},
		{"encoder error", failingTokenizer{marker: "BOOM"}, "/r/boom.txt"},
		{"encoder panic", failingTokenizer{marker: "PANIC", panics: true}, "/r/panic.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			adapter := NewTokenAdapter(fs, tt.tk, extensionLabel, zap.New(core))

			rec := adapter.Tokenize(tt.path)
			assert.Equal(t, failedRecord(tt.path), rec)
			assert.Empty(t, rec.Label)
			assert.Zero(t, rec.Tokens)

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.path, logs.All()[0].ContextMap()["path"])
		})
	}
}

func TestLanguageLabeler(t *testing.T) {
	ld, err := parseLanguageData([]byte(sampleLanguagesYAML))
	require.NoError(t, err)

	label := languageLabeler(ld)
	assert.Equal(t, "Go", label("/x/main.go"))
	assert.Equal(t, "Makefile", label("/x/Makefile"))
	assert.Equal(t, otherLanguage, label("/x/data.bin2"))
}

func TestTokenAdapter_FailuresAfterCancelAreQuiet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	core, logs := observer.New(zapcore.DebugLevel)
	adapter := NewTokenAdapter(afero.NewMemMapFs(), wordTokenizer{}, extensionLabel, zap.New(core)).WithContext(ctx)

	rec := adapter.Tokenize("/gone/a.py")
	assert.Equal(t, failedRecord("/gone/a.py"), rec)
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.DebugLevel).Len())
}
