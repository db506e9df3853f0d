package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
)

// tarArchive lists entries at open time and re-scans per Read, same shape
// as the RAR path.
type tarArchive struct {
	src     Source
	entries []Entry
}

func openTar(src Source) (Archive, error) {
	a := &tarArchive{src: src}

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
		switch hdr.Typeflag {
		case tar.TypeDir, tar.TypeReg:
		default:
			continue
		}
		p := normalizeEntryPath(hdr.Name)
		if p == "" {
			continue
		}
		a.entries = append(a.entries, Entry{Path: p, IsDir: hdr.Typeflag == tar.TypeDir, Size: hdr.Size})
	}
	return a, nil
}

func (a *tarArchive) open() (*tar.Reader, io.Closer, error) {
	if a.src.Path != "" {
		f, err := os.Open(a.src.Path)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(f), f, nil
	}
	return tar.NewReader(bytes.NewReader(a.src.Bytes)), nil, nil
}

func (a *tarArchive) List() []Entry { return a.entries }

func (a *tarArchive) Read(path string) (io.ReadCloser, error) {
	r, closer, err := a.open()
	if err != nil {
		return nil, fmt.Errorf("reopening tar: %w", err)
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
			return nil, fmt.Errorf("scanning tar for %q: %w", path, err)
		}
		if hdr.Typeflag == tar.TypeReg && normalizeEntryPath(hdr.Name) == path {
			return &streamEntry{r: r, c: closer}, nil
		}
	}
	if closer != nil {
		closer.Close()
	}
	return nil, fmt.Errorf("tar entry %q: %w", path, os.ErrNotExist)
}

func (a *tarArchive) Close() error { return nil }
