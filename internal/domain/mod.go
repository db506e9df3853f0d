package domain

import (
	"strings"
	"time"
)

// DescriptorFilenames are the conventional descriptor names looked for
// directly under a payload root, in priority order. Matching is
// case-insensitive.
var DescriptorFilenames = []string{"mod_info.json", "modinfo.json", "mod.json"}

// UpdateProgressFunc is called during update checks with (current 1-based index, total count, mod name).
// Set via context when running "smm -v update" to get per-mod progress.
type UpdateProgressFunc func(n, total int, modName string)

type updateProgressKey struct{}

// UpdateProgressContextKey is the context key for UpdateProgressFunc. Attach with context.WithValue.
var UpdateProgressContextKey = &updateProgressKey{}

// UpdatePolicy determines how a mod handles updates
type UpdatePolicy int

const (
	UpdateNotify UpdatePolicy = iota // Default: show available, require approval
	UpdateAuto                       // Automatically apply updates
	UpdatePinned                     // Never update
)

func (p UpdatePolicy) String() string {
	switch p {
	case UpdateAuto:
		return "auto"
	case UpdatePinned:
		return "pinned"
	default:
		return "notify"
	}
}

// ParseUpdatePolicy converts a policy name to an UpdatePolicy.
func ParseUpdatePolicy(s string) (UpdatePolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "notify":
		return UpdateNotify, true
	case "auto":
		return UpdateAuto, true
	case "pinned", "pin":
		return UpdatePinned, true
	}
	return UpdateNotify, false
}

// Dependency declares another mod this mod requires.
// Version is a required version or constraint; empty means any.
type Dependency struct {
	ID      string
	Version string
}

// ModDescriptor is the parsed metadata of a single mod.
type ModDescriptor struct {
	ID           string
	Name         string
	Version      string
	Author       string
	Description  string
	GameVersion  string
	Dependencies []Dependency
	RawSource    []byte // original descriptor bytes, kept for diagnostics
}

// Key returns the canonical identity key used for matching.
func (d *ModDescriptor) Key() string {
	return CanonicalID(d.ID)
}

// DisplayName returns the name if present, otherwise the id.
func (d *ModDescriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// CanonicalID normalizes a mod id for identity comparison.
func CanonicalID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// SynthesizeID derives a usable id from a display name: lowercased, with
// runs of non-alphanumeric characters collapsed to single underscores.
// Returns "" when the name contains nothing usable.
func SynthesizeID(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		} else {
			pendingSep = true
		}
	}
	return b.String()
}

// InstalledMod is a mod present in the mods directory.
type InstalledMod struct {
	ModDescriptor
	InstallPath string
	Enabled     bool
	InstalledAt time.Time // directory mtime, best effort
}

// Snapshot is an immutable view of the installed mods, taken once per batch
// so matching decisions stay consistent while the batch mutates disk.
type Snapshot struct {
	mods []InstalledMod
	byID map[string]int
}

// NewSnapshot builds a snapshot from a scan result. Later entries with a
// duplicate canonical id are kept (last wins), matching scan order.
func NewSnapshot(mods []InstalledMod) *Snapshot {
	s := &Snapshot{
		mods: make([]InstalledMod, len(mods)),
		byID: make(map[string]int, len(mods)),
	}
	copy(s.mods, mods)
	for i := range s.mods {
		s.byID[s.mods[i].Key()] = i
	}
	return s
}

// ByID looks up an installed mod by canonical id.
func (s *Snapshot) ByID(id string) (*InstalledMod, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.byID[CanonicalID(id)]
	if !ok {
		return nil, false
	}
	return &s.mods[i], true
}

// All returns the snapshot's mods in scan order.
func (s *Snapshot) All() []InstalledMod {
	if s == nil {
		return nil
	}
	return s.mods
}

// Len returns the number of installed mods in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.mods)
}

// Update represents an available update for an installed mod.
type Update struct {
	InstalledMod InstalledMod
	NewVersion   string
	Relation     VersionRelation // relation of NewVersion to the installed version
	DownloadURL  string          // direct archive URL when the version file provides one
	ThreadURL    string          // forum thread, for updates the player fetches by hand
	Policy       UpdatePolicy
}
