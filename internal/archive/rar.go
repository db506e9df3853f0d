package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/nwaples/rardecode/v2"
)

// rarArchive lists entries at open time and re-scans per Read: the RAR
// decoder is stream-oriented and offers no random access.
type rarArchive struct {
	src     Source
	entries []Entry
}

func openRar(src Source) (Archive, error) {
	a := &rarArchive{src: src}

	r, closer, err := a.open()
	if err != nil {
		return nil, corrupt(src.DisplayLabel(), err)
	}
	if closer != nil {
		defer closer.Close()
	}

	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, corrupt(src.DisplayLabel(), err)
		}
		p := normalizeEntryPath(hdr.Name)
		if p == "" {
			continue
		}
		a.entries = append(a.entries, Entry{Path: p, IsDir: hdr.IsDir, Size: hdr.UnPackedSize})
	}
	return a, nil
}

func (a *rarArchive) open() (*rardecode.Reader, io.Closer, error) {
	if a.src.Path != "" {
		rc, err := rardecode.OpenReader(a.src.Path)
		if err != nil {
			return nil, nil, err
		}
		return &rc.Reader, rc, nil
	}
	r, err := rardecode.NewReader(bytes.NewReader(a.src.Bytes))
	if err != nil {
		return nil, nil, err
	}
	return r, nil, nil
}

func (a *rarArchive) List() []Entry { return a.entries }

func (a *rarArchive) Read(path string) (io.ReadCloser, error) {
	r, closer, err := a.open()
	if err != nil {
		return nil, fmt.Errorf("reopening rar: %w", err)
	}
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if closer != nil {
				closer.Close()
			}
			return nil, fmt.Errorf("scanning rar for %q: %w", path, err)
		}
		if !hdr.IsDir && normalizeEntryPath(hdr.Name) == path {
			return &streamEntry{r: r, c: closer}, nil
		}
	}
	if closer != nil {
		closer.Close()
	}
	return nil, fmt.Errorf("rar entry %q: %w", path, os.ErrNotExist)
}

func (a *rarArchive) Close() error { return nil }

// streamEntry adapts a decoder positioned at one entry to io.ReadCloser.
// Shared by the stream-oriented formats (rar, tar).
type streamEntry struct {
	r io.Reader
	c io.Closer
}

func (e *streamEntry) Read(p []byte) (int, error) { return e.r.Read(p) }

func (e *streamEntry) Close() error {
	if e.c != nil {
		return e.c.Close()
	}
	return nil
}
