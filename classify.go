package main

import (
	"bytes"
	"io"

	"github.com/spf13/afero"
)

// classifyBlockSize is how many leading bytes are inspected to decide text vs binary.
const classifyBlockSize = 512

// textBytes marks the byte values allowed in a text sample.
var textBytes = func() [256]bool {
	var allowed [256]bool
	for _, b := range []byte{0x07, 0x08, 0x09, 0x0A, 0x0C, 0x0D, 0x1B} {
		allowed[b] = true
	}
	for b := 0x20; b <= 0xFF; b++ {
		allowed[b] = true
	}
	return allowed
}()

// isTextFile reports whether the file at path looks like text.
// Any failure to open or read the file makes it binary.
func isTextFile(fsys afero.Fs, path string) bool {
	f, err := fsys.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, classifyBlockSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false
	}
	return isTextSample(buf[:n])
}

// isTextSample applies the text heuristic to a byte sample. An empty sample is text.
func isTextSample(sample []byte) bool {
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}
	for _, b := range sample {
		if !textBytes[b] {
			return false
		}
	}
	return true
}
