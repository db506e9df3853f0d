package core

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"smm/internal/archive"
	"smm/internal/domain"
)

// Deployer performs the on-disk half of an install: extract the payload
// into a hidden staging directory inside the mods root, then swap whole
// directories with renames. A readable mod directory is never
// half-written, and staging on the same filesystem keeps the renames
// atomic.
type Deployer struct {
	log *log.Logger
}

func NewDeployer(logger *log.Logger) *Deployer {
	return &Deployer{log: logger}
}

// Deploy extracts h's payload and installs it as modsRoot/destName,
// replacing any directory already at that path. Returns the final
// install directory.
func (d *Deployer) Deploy(ctx context.Context, h *archive.Handle, modsRoot, destName string) (string, error) {
	if err := os.MkdirAll(modsRoot, 0755); err != nil {
		return "", fmt.Errorf("creating mods directory: %w", err)
	}

	stage, err := os.MkdirTemp(modsRoot, ".stage-")
	if err != nil {
		return "", fmt.Errorf("%w: creating staging directory: %v", domain.ErrExtractionFailed, err)
	}
	defer os.RemoveAll(stage)

	if err := d.extract(ctx, h, stage); err != nil {
		return "", err
	}

	dest := filepath.Join(modsRoot, destName)
	if err := d.swap(stage, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (d *Deployer) extract(ctx context.Context, h *archive.Handle, stage string) error {
	for _, e := range h.PayloadEntries() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		destPath, err := sanitizePath(stage, e.Path)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
		}

		if e.IsDir {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
			}
			continue
		}
		if err := d.extractFile(h, e.Path, destPath); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, e.Path, err)
		}
	}
	return nil
}

// extractFile writes one archive entry to destPath.
func (d *Deployer) extractFile(h *archive.Handle, entryPath, destPath string) (err error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

	rc, err := h.ReadPayload(entryPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rc.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, rc)
	return err
}

// sanitizePath keeps extracted paths inside destDir. Archive listings are
// normalized already; this catches anything hostile that slips through,
// like "../../autoexec.bat".
func sanitizePath(destDir, entryPath string) (string, error) {
	destPath := filepath.Join(destDir, filepath.FromSlash(entryPath))
	if !strings.HasPrefix(filepath.Clean(destPath)+string(os.PathSeparator), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("path traversal detected: %s", entryPath)
	}
	return destPath, nil
}

// swap makes stage the new dest. The old directory moves aside first and
// is deleted only once the new one is in place, so a failed rename leaves
// a complete directory at dest.
func (d *Deployer) swap(stage, dest string) error {
	aside := filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+".replaced")

	hadOld := false
	if _, err := os.Lstat(dest); err == nil {
		hadOld = true
		os.RemoveAll(aside) // leftover from an interrupted run
		if err := os.Rename(dest, aside); err != nil {
			return fmt.Errorf("%w: moving %s aside: %v", domain.ErrSwapFailed, filepath.Base(dest), err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: inspecting %s: %v", domain.ErrSwapFailed, dest, err)
	}

	if err := os.Rename(stage, dest); err != nil {
		if hadOld {
			if rbErr := os.Rename(aside, dest); rbErr != nil {
				d.log.Error("could not restore previous version", "dir", dest, "err", rbErr)
			}
		}
		return fmt.Errorf("%w: installing %s: %v", domain.ErrSwapFailed, filepath.Base(dest), err)
	}

	if hadOld {
		if err := os.RemoveAll(aside); err != nil {
			d.log.Warn("could not delete previous version", "dir", aside, "err", err)
		}
	}
	return nil
}

// Remove deletes an installed mod directory. Deletability is probed
// before anything moves: a tree we cannot fully delete is left exactly
// as found rather than half-removed.
func (d *Deployer) Remove(dir string) error {
	info, err := os.Lstat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", dir, domain.ErrModNotFound)
		}
		return fmt.Errorf("%w: %v", domain.ErrRemovalFailed, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrRemovalFailed, dir)
	}

	if err := checkRemovable(dir); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemovalFailed, err)
	}

	aside := filepath.Join(filepath.Dir(dir), "."+filepath.Base(dir)+".removing")
	os.RemoveAll(aside)
	if err := os.Rename(dir, aside); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemovalFailed, err)
	}

	if err := os.RemoveAll(aside); err != nil {
		if rbErr := os.Rename(aside, dir); rbErr != nil {
			d.log.Error("could not restore partially removed mod", "dir", dir, "err", rbErr)
		}
		return fmt.Errorf("%w: %v", domain.ErrRemovalFailed, err)
	}
	return nil
}

// checkRemovable walks the tree and verifies every directory grants the
// write and search permission RemoveAll will need.
func checkRemovable(root string) error {
	return filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !de.IsDir() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return err
		}
		if perm := info.Mode().Perm(); perm&0300 != 0300 {
			return fmt.Errorf("directory %s is not deletable (mode %04o)", path, perm)
		}
		return nil
	})
}
