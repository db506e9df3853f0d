package archive

import (
	"fmt"
	"io"
	"os"
	"strings"

	"smm/internal/domain"
)

// junkEntry reports archive noise that never counts as meaningful content:
// macOS resource forks and finder droppings, Windows thumbnail caches.
func junkEntry(p string) bool {
	if p == "__MACOSX" || strings.HasPrefix(p, "__MACOSX/") {
		return true
	}
	base := p
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		base = p[i+1:]
	}
	switch base {
	case ".DS_Store", "Thumbs.db", "desktop.ini":
		return true
	}
	return strings.HasPrefix(base, "._")
}

// Handle couples an open archive with its resolved payload root.
type Handle struct {
	arc   Archive
	root  string // wrapper directory name, "" when the archive root is the payload root
	label string
	spool string // temp file holding an unwrapped nested archive
}

// Resolve opens src and determines its payload root: a single wrapper
// directory at the archive root is stripped, and a payload consisting of
// nothing but one nested archive is unwrapped exactly once. Deeper nesting
// fails with domain.ErrNestedArchiveTooDeep.
func Resolve(src Source) (*Handle, error) {
	return resolve(src, 0)
}

func resolve(src Source, depth int) (*Handle, error) {
	arc, err := Open(src)
	if err != nil {
		return nil, err
	}

	h := &Handle{arc: arc, label: src.DisplayLabel()}
	h.root = payloadRoot(arc.List())

	nested, ok := h.soleNestedArchive()
	if !ok {
		return h, nil
	}
	if depth >= 1 {
		h.Close()
		return nil, fmt.Errorf("%s: %w", h.label, domain.ErrNestedArchiveTooDeep)
	}

	spool, err := h.spoolEntry(nested)
	h.Close()
	if err != nil {
		return nil, err
	}

	inner, err := resolve(Source{Path: spool, Label: src.DisplayLabel()}, depth+1)
	if err != nil {
		os.Remove(spool)
		return nil, err
	}
	inner.spool = spool
	return inner, nil
}

// payloadRoot returns the wrapper directory name when the archive root holds
// exactly one directory and no files; otherwise "".
func payloadRoot(entries []Entry) string {
	topDirs := make(map[string]bool)
	rootFiles := 0
	for _, e := range entries {
		if junkEntry(e.Path) {
			continue
		}
		if i := strings.IndexByte(e.Path, '/'); i >= 0 {
			topDirs[e.Path[:i]] = true
		} else if e.IsDir {
			topDirs[e.Path] = true
		} else {
			rootFiles++
		}
	}
	if rootFiles == 0 && len(topDirs) == 1 {
		for d := range topDirs {
			return d
		}
	}
	return ""
}

// soleNestedArchive returns the payload root's single meaningful file when
// that file itself sniffs as a supported archive.
func (h *Handle) soleNestedArchive() (Entry, bool) {
	var sole Entry
	count := 0
	for _, e := range h.PayloadEntries() {
		if e.IsDir {
			continue
		}
		sole = e
		count++
		if count > 1 {
			return Entry{}, false
		}
	}
	if count != 1 {
		return Entry{}, false
	}

	rc, err := h.ReadPayload(sole.Path)
	if err != nil {
		return Entry{}, false
	}
	defer rc.Close()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Entry{}, false
	}
	if DetectFormat(header[:n]) == FormatUnknown {
		return Entry{}, false
	}
	return sole, true
}

// spoolEntry copies one entry to a temp file so it can be reopened as an
// archive in its own right.
func (h *Handle) spoolEntry(e Entry) (string, error) {
	rc, err := h.ReadPayload(e.Path)
	if err != nil {
		return "", fmt.Errorf("unwrapping %s: %w", h.label, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "smm-nested-*")
	if err != nil {
		return "", fmt.Errorf("unwrapping %s: %w", h.label, err)
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("unwrapping %s: %w", h.label, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("unwrapping %s: %w", h.label, err)
	}
	return tmp.Name(), nil
}

// Label names the originating source for diagnostics.
func (h *Handle) Label() string { return h.label }

// PayloadEntries lists meaningful entries relative to the payload root.
func (h *Handle) PayloadEntries() []Entry {
	prefix := ""
	if h.root != "" {
		prefix = h.root + "/"
	}

	var out []Entry
	for _, e := range h.arc.List() {
		if junkEntry(e.Path) {
			continue
		}
		p := e.Path
		if prefix != "" {
			if !strings.HasPrefix(p, prefix) {
				continue
			}
			p = p[len(prefix):]
		}
		if p == "" {
			continue
		}
		out = append(out, Entry{Path: p, IsDir: e.IsDir, Size: e.Size})
	}
	return out
}

// ReadPayload opens an entry by payload-root-relative path.
func (h *Handle) ReadPayload(rel string) (io.ReadCloser, error) {
	full := rel
	if h.root != "" {
		full = h.root + "/" + rel
	}
	return h.arc.Read(full)
}

// Close releases the archive and any temp file left by nested unwrapping.
func (h *Handle) Close() error {
	err := h.arc.Close()
	if h.spool != "" {
		if rmErr := os.Remove(h.spool); rmErr != nil && err == nil {
			err = rmErr
		}
		h.spool = ""
	}
	return err
}
