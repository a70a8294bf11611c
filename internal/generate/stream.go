// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

// maxLineBytes bounds a single stream record.
const maxLineBytes = 1 << 20

// Chunk is one record of the newline-delimited response stream. Fields the
// backend adds beyond these are ignored.
type Chunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// ChunkReader pulls chunks from a response body one line at a time. It does
// no read-ahead beyond the scanner buffer, so a caller that stops at the
// completion chunk never consumes the records after it.
type ChunkReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewChunkReader wraps r.
func NewChunkReader(r io.Reader) *ChunkReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &ChunkReader{scanner: sc}
}

// Next returns the next chunk. Blank lines are skipped. It returns io.EOF
// when the stream ends cleanly, an ErrMalformedChunk error for a line that
// is not a chunk record, and an ErrBackendUnavailable error when reading
// the stream fails.
func (r *ChunkReader) Next() (Chunk, error) {
	for r.scanner.Scan() {
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' {
			return Chunk{}, fmt.Errorf("%w: line %d: not an object: %q", ErrMalformedChunk, r.line, truncate(line, 80))
		}
		var c Chunk
		if err := sonic.ConfigStd.Unmarshal(line, &c); err != nil {
			return Chunk{}, fmt.Errorf("%w: line %d: %v", ErrMalformedChunk, r.line, err)
		}
		return c, nil
	}
	if err := r.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return Chunk{}, fmt.Errorf("%w: line %d exceeds %d bytes", ErrMalformedChunk, r.line+1, maxLineBytes)
		}
		return Chunk{}, fmt.Errorf("%w: reading stream: %w", ErrBackendUnavailable, err)
	}
	return Chunk{}, io.EOF
}

// Line returns the number of lines consumed so far.
func (r *ChunkReader) Line() int {
	return r.line
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
