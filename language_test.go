package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLanguagesYAML = `
Go:
  type: programming
  extensions:
    - ".go"
Makefile:
  type: programming
  extensions:
    - ".mk"
  filenames:
    - Makefile
Markdown:
  type: prose
  extensions:
    - ".md"
    - ".MARKDOWN"
`

func TestLoadLanguageData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleLanguagesYAML), 0o644))

	ld, err := loadLanguageData(path)
	require.NoError(t, err)
	assert.Len(t, ld.Langs, 3)

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"cmd/main.go", "Go", true},
		{"Makefile", "Makefile", true},
		{"rules.mk", "Makefile", true},
		{"README.markdown", "Markdown", true},
		{"README.MD", "Markdown", true},
		{"image.png", "", false},
		{"LICENSE", "", false},
	}
	for _, tt := range tests {
		lang, ok := ld.GetLanguageForFile(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, lang, tt.path)
	}
}

func TestLoadLanguageData_Errors(t *testing.T) {
	_, err := loadLanguageData(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("Go: [unterminated"), 0o644))
	_, err = loadLanguageData(bad)
	assert.Error(t, err)
}

func TestGetLanguageForFile_NilData(t *testing.T) {
	var ld *LoadedLanguageData
	_, ok := ld.GetLanguageForFile("main.go")
	assert.False(t, ok)
}
