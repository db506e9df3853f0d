package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"smm/internal/descriptor"
	"smm/internal/domain"
)

// ScanIssue records a directory under the mods root that could not be
// read as a mod. Scanning never fails the whole pass for one bad entry.
type ScanIssue struct {
	Dir string
	Err error
}

// Scanner builds a snapshot of the installed mod set from the mods
// directory. Each immediate subdirectory holding a parseable descriptor
// is one installed mod; everything else is reported as a ScanIssue.
type Scanner struct {
	log *log.Logger
}

func NewScanner(logger *log.Logger) *Scanner {
	return &Scanner{log: logger}
}

// Scan reads modsRoot and returns the installed set. A missing root is
// an empty install, not an error. Dot-prefixed entries are invisible:
// that is what keeps in-flight staging directories out of the snapshot.
func (s *Scanner) Scan(modsRoot string) (*domain.Snapshot, []ScanIssue, error) {
	dirents, err := os.ReadDir(modsRoot)
	if os.IsNotExist(err) {
		return domain.NewSnapshot(nil), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scanning mods directory: %w", err)
	}

	enabled, err := ReadEnabled(modsRoot)
	if err != nil {
		s.log.Warn("could not read activation registry", "err", err)
		enabled = map[string]bool{}
	}

	var mods []domain.InstalledMod
	var issues []ScanIssue
	for _, de := range dirents {
		if !de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		dir := filepath.Join(modsRoot, de.Name())

		mod, err := ReadInstalled(dir)
		if err != nil {
			issues = append(issues, ScanIssue{Dir: dir, Err: err})
			s.log.Debug("skipping directory", "dir", de.Name(), "err", err)
			continue
		}
		mod.Enabled = enabled[mod.Key()]
		mods = append(mods, *mod)
	}

	return domain.NewSnapshot(mods), issues, nil
}

// ReadInstalled reads a single installed mod from its directory.
func ReadInstalled(dir string) (*domain.InstalledMod, error) {
	data, _, err := descriptor.FindInDir(dir)
	if err != nil {
		return nil, err
	}
	d, err := descriptor.Parse(data)
	if err != nil {
		return nil, err
	}

	mod := &domain.InstalledMod{
		ModDescriptor: *d,
		InstallPath:   dir,
	}
	if info, err := os.Stat(dir); err == nil {
		mod.InstalledAt = info.ModTime()
	}
	return mod, nil
}
