package cache

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"smm/internal/domain"
)

// Cache keeps a copy of every archive that installed successfully. A bad
// update can then be rolled back by reinstalling the prior version from
// cache, even after the original download disappears from the forums.
type Cache struct {
	basePath string
}

// New creates a cache manager rooted at basePath.
func New(basePath string) *Cache {
	return &Cache{basePath: basePath}
}

// dir returns the directory for one mod version's cached archive.
func (c *Cache) dir(modID, version string) string {
	return filepath.Join(c.basePath, pathKey(modID), versionKey(version))
}

// pathKey folds a mod id into a safe path component.
func pathKey(s string) string {
	if k := domain.SynthesizeID(s); k != "" {
		return k
	}
	return "unknown"
}

// versionKey folds a version string into a safe path component. Dots and
// dashes stay as-is so Versions can report what was stored.
func versionKey(v string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(v) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	k := strings.Trim(b.String(), ".")
	if k == "" {
		return "unversioned"
	}
	return k
}

// Exists checks whether an archive for this mod version is cached.
func (c *Cache) Exists(modID, version string) bool {
	_, ok := c.Find(modID, version)
	return ok
}

// Find returns the cached archive path for a mod version.
func (c *Cache) Find(modID, version string) (string, bool) {
	dirents, err := os.ReadDir(c.dir(modID, version))
	if err != nil {
		return "", false
	}
	for _, de := range dirents {
		if !de.IsDir() {
			return filepath.Join(c.dir(modID, version), de.Name()), true
		}
	}
	return "", false
}

// Store copies the archive at srcPath into the cache, replacing whatever
// was cached for this mod version before.
func (c *Cache) Store(modID, version, srcPath string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	defer src.Close()

	return c.store(modID, version, filepath.Base(srcPath), src)
}

// StoreBytes is Store for archives that only exist in memory.
func (c *Cache) StoreBytes(modID, version, filename string, data []byte) (string, error) {
	return c.store(modID, version, filename, bytes.NewReader(data))
}

func (c *Cache) store(modID, version, filename string, src io.Reader) (string, error) {
	dir := c.dir(modID, version)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("clearing cache entry: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}

	if filename == "" {
		filename = "archive"
	}
	dest := filepath.Join(dir, filepath.Base(filename))

	tmp, err := os.CreateTemp(dir, ".store-*")
	if err != nil {
		return "", fmt.Errorf("writing cached archive: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing cached archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing cached archive: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing cached archive: %w", err)
	}
	return dest, nil
}

// Delete removes the cached archive for one mod version.
func (c *Cache) Delete(modID, version string) error {
	if err := os.RemoveAll(c.dir(modID, version)); err != nil {
		return fmt.Errorf("deleting cached archive: %w", err)
	}
	return nil
}

// DeleteMod removes every cached version of a mod.
func (c *Cache) DeleteMod(modID string) error {
	if err := os.RemoveAll(filepath.Join(c.basePath, pathKey(modID))); err != nil {
		return fmt.Errorf("deleting cached mod: %w", err)
	}
	return nil
}

// Versions lists the cached version keys for a mod, oldest first by
// cache time.
func (c *Cache) Versions(modID string) ([]string, error) {
	modDir := filepath.Join(c.basePath, pathKey(modID))
	dirents, err := os.ReadDir(modDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing cached versions: %w", err)
	}

	type entry struct {
		name  string
		mtime int64
	}
	var entries []entry
	for _, de := range dirents {
		if !de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entry{de.Name(), info.ModTime().UnixNano()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mtime < entries[j].mtime })

	versions := make([]string, len(entries))
	for i, e := range entries {
		versions[i] = e.name
	}
	return versions, nil
}

// Prune deletes the oldest cached versions of a mod beyond keep.
func (c *Cache) Prune(modID string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	versions, err := c.Versions(modID)
	if err != nil {
		return err
	}
	for len(versions) > keep {
		if err := os.RemoveAll(filepath.Join(c.basePath, pathKey(modID), versions[0])); err != nil {
			return fmt.Errorf("pruning cached version: %w", err)
		}
		versions = versions[1:]
	}
	return nil
}
