package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"smm/internal/descriptor"
	"smm/internal/domain"
)

// EnabledRegistryName is the activation registry the game itself reads.
// It lives directly inside the mods directory.
const EnabledRegistryName = "enabled_mods.json"

type enabledFile struct {
	EnabledMods []string `json:"enabledMods"`
}

// ReadEnabled returns the set of enabled mod ids (canonicalized) from the
// registry under modsRoot. A missing registry means nothing is enabled.
// The file is read tolerantly since players hand-edit it.
func ReadEnabled(modsRoot string) (map[string]bool, error) {
	data, err := os.ReadFile(filepath.Join(modsRoot, EnabledRegistryName))
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", EnabledRegistryName, err)
	}

	var reg enabledFile
	if err := descriptor.DecodeTolerant(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", EnabledRegistryName, err)
	}

	enabled := make(map[string]bool, len(reg.EnabledMods))
	for _, id := range reg.EnabledMods {
		if id = domain.CanonicalID(id); id != "" {
			enabled[id] = true
		}
	}
	return enabled, nil
}

// readEnabledList is ReadEnabled but order-preserving, for rewrites.
func readEnabledList(modsRoot string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(modsRoot, EnabledRegistryName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", EnabledRegistryName, err)
	}
	var reg enabledFile
	if err := descriptor.DecodeTolerant(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", EnabledRegistryName, err)
	}
	return reg.EnabledMods, nil
}

// WriteEnabled replaces the registry with the given ids, atomically. The
// game may read this file at any moment, so it is never written in place.
func WriteEnabled(modsRoot string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.MarshalIndent(enabledFile{EnabledMods: ids}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", EnabledRegistryName, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(modsRoot, ".enabled_mods-*.json")
	if err != nil {
		return fmt.Errorf("writing %s: %w", EnabledRegistryName, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", EnabledRegistryName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", EnabledRegistryName, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(modsRoot, EnabledRegistryName)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", EnabledRegistryName, err)
	}
	return nil
}

// SetEnabled toggles a single mod id in the registry, preserving the
// order of entries the player (or the game) already wrote.
func SetEnabled(modsRoot, id string, on bool) error {
	id = domain.CanonicalID(id)
	if id == "" {
		return fmt.Errorf("empty mod id")
	}

	ids, err := readEnabledList(modsRoot)
	if err != nil {
		return err
	}

	var out []string
	present := false
	for _, existing := range ids {
		if domain.CanonicalID(existing) == id {
			present = true
			if !on {
				continue
			}
		}
		out = append(out, existing)
	}
	if on && !present {
		out = append(out, id)
	}

	return WriteEnabled(modsRoot, out)
}
