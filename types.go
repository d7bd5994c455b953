package main

// FilterConfig decides which entries of a tree become candidate files.
// Extension entries are stored with their leading dot; matching is a
// case-insensitive suffix match on the file name.
type FilterConfig struct {
	ExcludeDirs map[string]struct{}
	IncludeExts []string // nil means no inclusion filter
	ExcludeExts []string // nil means no exclusion filter

	RespectGitignore bool
	MaxSizeBytes     int64 // 0 for no limit
}

// TokenRecord is the result of tokenizing one file.
// A failed record has an empty Label and zero Tokens.
type TokenRecord struct {
	Path   string
	Label  string
	Tokens int
	Failed bool
}

// failedRecord returns the sentinel record for a file that could not be read or tokenized.
func failedRecord(path string) TokenRecord {
	return TokenRecord{Path: path, Failed: true}
}

// ExtensionStats accumulates counts for one breakdown label.
type ExtensionStats struct {
	Label  string `json:"label" yaml:"label"`
	Files  int    `json:"files" yaml:"files"`
	Tokens int64  `json:"tokens" yaml:"tokens"`
}

// RunTotals holds the grand totals of a run.
type RunTotals struct {
	Files  int   `json:"files" yaml:"files"`
	Tokens int64 `json:"tokens" yaml:"tokens"`
}

// Progress is reported by the aggregator at a fixed cadence.
type Progress struct {
	Processed int
	Total     int
	Tokens    int64
}

// Report is everything handed to the output layer once a run completes.
type Report struct {
	Root      string           `json:"root" yaml:"root"`
	Model     string           `json:"model" yaml:"model"`
	Encoding  string           `json:"encoding" yaml:"encoding"`
	Breakdown bool             `json:"breakdown" yaml:"breakdown"`
	GroupBy   string           `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	Totals    RunTotals        `json:"totals" yaml:"totals"`
	Rows      []ExtensionStats `json:"rows,omitempty" yaml:"rows,omitempty"`
}
