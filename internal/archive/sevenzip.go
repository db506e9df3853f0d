package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/bodgit/sevenzip"
)

type sevenZipArchive struct {
	entries []Entry
	files   map[string]*sevenzip.File
	closer  io.Closer
}

func openSevenZip(src Source) (Archive, error) {
	var (
		r      *sevenzip.Reader
		closer io.Closer
	)
	if src.Path != "" {
		rc, err := sevenzip.OpenReader(src.Path)
		if err != nil {
			return nil, corrupt(src.DisplayLabel(), err)
		}
		r = &rc.Reader
		closer = rc
	} else {
		zr, err := sevenzip.NewReader(bytes.NewReader(src.Bytes), int64(len(src.Bytes)))
		if err != nil {
			return nil, corrupt(src.DisplayLabel(), err)
		}
		r = zr
	}

	a := &sevenZipArchive{
		files:  make(map[string]*sevenzip.File, len(r.File)),
		closer: closer,
	}
	for _, f := range r.File {
		p := normalizeEntryPath(f.Name)
		if p == "" {
			continue
		}
		info := f.FileInfo()
		if !info.IsDir() && !info.Mode().IsRegular() {
			continue
		}
		a.entries = append(a.entries, Entry{Path: p, IsDir: info.IsDir(), Size: info.Size()})
		if !info.IsDir() {
			a.files[p] = f
		}
	}
	return a, nil
}

func (a *sevenZipArchive) List() []Entry { return a.entries }

// Read opens one entry. Solid 7z archives decompress fastest when entries
// are read in List order.
func (a *sevenZipArchive) Read(path string) (io.ReadCloser, error) {
	f, ok := a.files[path]
	if !ok {
		return nil, fmt.Errorf("7z entry %q: %w", path, os.ErrNotExist)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening 7z entry %q: %w", path, err)
	}
	return rc, nil
}

func (a *sevenZipArchive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
