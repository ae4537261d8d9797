package core

// source.go reads CSV files into memory for decoding.
//
// Content passes through a BOM-aware decoder before it reaches the
// tokenizer: a UTF-8 or UTF-16 byte order mark is stripped (UTF-16 input is
// transcoded), and invalid UTF-8 sequences become U+FFFD. Files exported
// from spreadsheet tools on Windows load without manual cleanup.

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxFileSize is the largest source accepted (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// ErrFileTooLarge is returned for sources above the size limit.
var ErrFileTooLarge = errors.New("file too large")

// SourceContent is a fully read source.
type SourceContent struct {
	Name     string // base file name
	Text     string
	Bytes    int    // raw size before decoding
	Checksum string // xxh3 of the raw bytes, hex
}

// Source reads a CSV file by path.
type Source interface {
	ReadAll(path string) (SourceContent, error)
}

// FileSource reads sources from the local filesystem.
type FileSource struct {
	MaxBytes int64 // 0 means DefaultMaxFileSize
}

// ReadAll reads the file at path. A missing file yields a
// *SourceUnavailableError matching ErrSourceNotFound.
func (s FileSource) ReadAll(path string) (SourceContent, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return SourceContent{}, &SourceUnavailableError{Path: path, Err: err}
	}

	f, err := os.Open(abs)
	if err != nil {
		return SourceContent{}, &SourceUnavailableError{
			Path:     path,
			NotFound: errors.Is(err, fs.ErrNotExist),
			Err:      err,
		}
	}
	defer f.Close()

	content, err := ReadSource(f, filepath.Base(abs), s.MaxBytes)
	if err != nil {
		return SourceContent{}, &SourceUnavailableError{Path: path, Err: err}
	}
	return content, nil
}

// ReadSource reads r fully, rejecting input above maxBytes (0 means
// DefaultMaxFileSize), and decodes it to UTF-8 text.
func ReadSource(r io.Reader, name string, maxBytes int64) (SourceContent, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}

	raw, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return SourceContent{}, fmt.Errorf("read: %w", err)
	}
	if int64(len(raw)) > maxBytes {
		return SourceContent{}, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, maxBytes)
	}

	text, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return SourceContent{}, fmt.Errorf("decode: %w", err)
	}

	return SourceContent{
		Name:     name,
		Text:     string(text),
		Bytes:    len(raw),
		Checksum: fmt.Sprintf("%016x", xxh3.Hash(raw)),
	}, nil
}
