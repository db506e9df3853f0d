package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"smm/internal/domain"
)

// Format identifies a supported container format.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatSevenZip
	FormatRar
	FormatTar
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatSevenZip:
		return "7z"
	case FormatRar:
		return "rar"
	case FormatTar:
		return "tar"
	default:
		return "unknown"
	}
}

// sniffLen covers the tar magic at offset 257 plus slack.
const sniffLen = 512

// DetectFormat sniffs the container format from the file's leading bytes.
// Filename extensions are never consulted.
func DetectFormat(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, []byte("PK\x03\x04")),
		bytes.HasPrefix(header, []byte("PK\x05\x06")):
		return FormatZip
	case bytes.HasPrefix(header, []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}):
		return FormatSevenZip
	case bytes.HasPrefix(header, []byte("Rar!\x1A\x07")):
		return FormatRar
	}
	// tar stores its magic at offset 257; V7 tars without it are not accepted
	if len(header) >= 262 && bytes.Equal(header[257:262], []byte("ustar")) {
		return FormatTar
	}
	return FormatUnknown
}

// Source is one archive supplied by the caller, either on disk or in memory.
type Source struct {
	Path  string
	Bytes []byte
	Label string
}

// DisplayLabel names the source for diagnostics.
func (s Source) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	if s.Path != "" {
		return filepath.Base(s.Path)
	}
	return "(buffer)"
}

func (s Source) header() ([]byte, error) {
	if s.Path != "" {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf := make([]byte, sniffLen)
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, err
		}
		return buf[:n], nil
	}
	if len(s.Bytes) > sniffLen {
		return s.Bytes[:sniffLen], nil
	}
	return s.Bytes, nil
}

// Entry is one file or directory inside an archive. Paths are relative and
// forward-slash separated regardless of the source format.
type Entry struct {
	Path  string
	IsDir bool
	Size  int64
}

// Archive is the uniform capability over one open container: list entries,
// read one entry on demand. Entry contents are never buffered up front.
type Archive interface {
	List() []Entry
	Read(path string) (io.ReadCloser, error)
	Close() error
}

// Open sniffs src's format and opens it behind the Archive interface.
// Unrecognized leading bytes fail with domain.ErrUnknownFormat; recognized
// containers whose structure cannot be parsed fail with domain.ErrCorruptArchive.
func Open(src Source) (Archive, error) {
	header, err := src.header()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.DisplayLabel(), err)
	}

	switch DetectFormat(header) {
	case FormatZip:
		return openZip(src)
	case FormatSevenZip:
		return openSevenZip(src)
	case FormatRar:
		return openRar(src)
	case FormatTar:
		return openTar(src)
	}
	return nil, fmt.Errorf("%s: %w", src.DisplayLabel(), domain.ErrUnknownFormat)
}

// normalizeEntryPath converts a format-native entry name to the canonical
// forward-slash relative form. Returns "" for entries that should be dropped
// (absolute paths, the bare root, Windows drive prefixes).
func normalizeEntryPath(name string) string {
	p := strings.ReplaceAll(name, `\`, "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimSuffix(p, "/")
	if p == "" || p == "." || strings.HasPrefix(p, "/") {
		return ""
	}
	if len(p) >= 2 && p[1] == ':' {
		return ""
	}
	return path.Clean(p)
}

func corrupt(label string, err error) error {
	return fmt.Errorf("%s: %w: %v", label, domain.ErrCorruptArchive, err)
}
