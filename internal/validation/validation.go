// Package validation checks source files before they are read into the
// render or classification pipeline: extension, path, size, and content that
// is plainly not text.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	cerrors "github.com/FocuswithJustin/MarkdownViewer/core/errors"
)

// MaxSourceSize is the largest source file accepted (10 MiB), matching the
// preview API's body limit.
const MaxSourceSize = 10 << 20

// MaxPathLength is the maximum allowed path length.
const MaxPathLength = 4096

// Common validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrTooLarge         = errors.New("file too large")
	ErrNotText          = errors.New("file is not text")
)

// Kind is a class of source file.
type Kind string

const (
	KindDrawing  Kind = "drawing"
	KindMarkdown Kind = "markdown"
)

// Extensions returns the accepted extensions for k, lower case.
func (k Kind) Extensions() []string {
	switch k {
	case KindDrawing:
		return []string{".cdxml", ".xml"}
	case KindMarkdown:
		return []string{".md", ".markdown"}
	}
	return nil
}

// ValidatePath rejects empty, oversized and control-character paths.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// CheckExtension reports an unsupported error unless path has one of the
// extensions of k. Case is ignored.
func CheckExtension(path string, k Kind) error {
	ext := strings.ToLower(filepath.Ext(path))
	if slices.Contains(k.Extensions(), ext) {
		return nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return cerrors.NewUnsupported(string(k)+" file type "+ext,
		"expected one of "+strings.Join(k.Extensions(), ", "))
}

// ReadSource validates path as a source of kind k and returns its content.
func ReadSource(path string, k Kind) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", cerrors.NewValidation("path", err.Error())
	}
	if err := CheckExtension(path, k); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", cerrors.NewIO("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", cerrors.NewIO("stat", path, err)
	}
	if info.IsDir() {
		return "", cerrors.NewValidation("path", path+" is a directory")
	}
	if info.Size() > MaxSourceSize {
		return "", fmt.Errorf("%s: %w (%d bytes, limit %d)", path, ErrTooLarge, info.Size(), MaxSourceSize)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxSourceSize+1))
	if err != nil {
		return "", cerrors.NewIO("read", path, err)
	}
	if len(data) > MaxSourceSize {
		return "", fmt.Errorf("%s: %w (limit %d)", path, ErrTooLarge, MaxSourceSize)
	}
	if err := CheckText(data); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return string(data), nil
}

// CheckText rejects content that is a known binary container or does not
// look like text. Empty content is text.
func CheckText(data []byte) error {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if len(head) == 0 {
		return nil
	}
	if name := detectBinary(head); name != "" {
		return fmt.Errorf("%w: looks like %s data", ErrNotText, name)
	}
	if !isLikelyText(head) {
		return ErrNotText
	}
	return nil
}

// magicBytes are signatures of containers a drawing or note is commonly
// mistaken for.
var magicBytes = []struct {
	name   string
	magic  []byte
	offset int
}{
	{"tar", []byte("ustar"), 257},
	{"gzip", []byte{0x1f, 0x8b}, 0},
	{"xz", []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, 0},
	{"zip", []byte{0x50, 0x4b, 0x03, 0x04}, 0},
	{"sqlite", []byte("SQLite format 3"), 0},
	// Binary ChemDraw documents (.cdx) share the drawing vocabulary but
	// not the XML syntax.
	{"binary ChemDraw", []byte("VjCD0100"), 0},
}

func detectBinary(buf []byte) string {
	for _, sig := range magicBytes {
		if sig.offset+len(sig.magic) <= len(buf) {
			if bytes.Equal(buf[sig.offset:sig.offset+len(sig.magic)], sig.magic) {
				return sig.name
			}
		}
	}
	return ""
}

// isLikelyText reports whether buf is mostly printable ASCII or UTF-8.
func isLikelyText(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
		// UTF-8 lead and continuation bytes are neutral
	}

	if control == 0 {
		return true
	}
	return float64(printable)/float64(printable+control) > 0.95
}
