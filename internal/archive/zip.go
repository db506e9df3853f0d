package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
)

type zipArchive struct {
	entries []Entry
	files   map[string]*zip.File
	closer  io.Closer // non-nil when backed by a file on disk
}

func openZip(src Source) (Archive, error) {
	var (
		r      *zip.Reader
		closer io.Closer
	)
	if src.Path != "" {
		rc, err := zip.OpenReader(src.Path)
		if err != nil {
			return nil, corrupt(src.DisplayLabel(), err)
		}
		r = &rc.Reader
		closer = rc
	} else {
		zr, err := zip.NewReader(bytes.NewReader(src.Bytes), int64(len(src.Bytes)))
		if err != nil {
			return nil, corrupt(src.DisplayLabel(), err)
		}
		r = zr
	}

	a := &zipArchive{
		files:  make(map[string]*zip.File, len(r.File)),
		closer: closer,
	}
	for _, f := range r.File {
		p := normalizeEntryPath(f.Name)
		if p == "" {
			continue
		}
		info := f.FileInfo()
		if !info.IsDir() && !info.Mode().IsRegular() {
			// symlinks and specials never extract
			continue
		}
		a.entries = append(a.entries, Entry{Path: p, IsDir: info.IsDir(), Size: int64(f.UncompressedSize64)})
		if !info.IsDir() {
			a.files[p] = f
		}
	}
	return a, nil
}

func (a *zipArchive) List() []Entry { return a.entries }

func (a *zipArchive) Read(path string) (io.ReadCloser, error) {
	f, ok := a.files[path]
	if !ok {
		return nil, fmt.Errorf("zip entry %q: %w", path, os.ErrNotExist)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening zip entry %q: %w", path, err)
	}
	return rc, nil
}

func (a *zipArchive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
