package versionfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"smm/internal/descriptor"
	"smm/internal/domain"
)

// VersionFile is the update metadata a mod ships alongside its descriptor:
// a *.version file whose masterVersionFile URL points at the author-hosted
// copy of the same file. Comparing the local and remote modVersion is how
// updates are discovered.
type VersionFile struct {
	MasterVersionFile string
	ModName           string
	ModVersion        string
	DirectDownloadURL string
	ChangelogURL      string
	ModThreadID       string // forum thread number, for mods without a direct link
}

type rawVersionFile struct {
	MasterVersionFile string          `json:"masterVersionFile"`
	ModName           string          `json:"modName"`
	ModVersion        json.RawMessage `json:"modVersion"`
	DirectDownloadURL string          `json:"directDownloadURL"`
	ChangelogURL      string          `json:"changelogURL"`
	ModThreadID       json.RawMessage `json:"modThreadId"`
}

// Parse reads a version file. These are hand-maintained and at least as
// messy as descriptors, so the same tolerant ladder applies.
func Parse(data []byte) (*VersionFile, error) {
	var raw rawVersionFile
	if err := descriptor.DecodeTolerant(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing version file: %w", err)
	}

	vf := &VersionFile{
		MasterVersionFile: strings.TrimSpace(raw.MasterVersionFile),
		ModName:           strings.TrimSpace(raw.ModName),
		ModVersion:        descriptor.DecodeVersion(raw.ModVersion),
		DirectDownloadURL: strings.TrimSpace(raw.DirectDownloadURL),
		ChangelogURL:      strings.TrimSpace(raw.ChangelogURL),
		ModThreadID:       descriptor.DecodeVersion(raw.ModThreadID),
	}
	if vf.ModVersion == "" && vf.MasterVersionFile == "" {
		return nil, fmt.Errorf("version file has neither modVersion nor masterVersionFile")
	}
	return vf, nil
}

// ThreadURL returns the mod's forum thread, derived from modThreadId.
// Empty when the version file does not name a thread.
func (vf *VersionFile) ThreadURL() string {
	if vf.ModThreadID == "" {
		return ""
	}
	return "https://fractalsoftworks.com/forum/index.php?topic=" + vf.ModThreadID
}

// FindLocal locates and parses the *.version file in an installed mod
// directory. When several are present the first parseable one wins.
func FindLocal(dir string) (*VersionFile, string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", dir, err)
	}

	var lastErr error
	for _, de := range dirents {
		if de.IsDir() || !strings.EqualFold(filepath.Ext(de.Name()), ".version") {
			continue
		}
		path := filepath.Join(dir, de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		vf, err := Parse(data)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", de.Name(), err)
			continue
		}
		return vf, path, nil
	}

	if lastErr != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrNoVersionFile, lastErr)
	}
	return nil, "", fmt.Errorf("%s: %w", dir, domain.ErrNoVersionFile)
}
