package descriptor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"

	"smm/internal/archive"
	"smm/internal/domain"
)

// Tier identifies which parsing strategy produced a descriptor.
type Tier int

const (
	TierStrict Tier = iota + 1
	TierTolerant
	TierForgiving
)

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierTolerant:
		return "tolerant"
	case TierForgiving:
		return "forgiving"
	default:
		return "none"
	}
}

// rawDescriptor mirrors the descriptor dialect's field names. Unknown fields
// are ignored by the decoder.
type rawDescriptor struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Version      json.RawMessage `json:"version"`
	Author       string          `json:"author"`
	Description  string          `json:"description"`
	GameVersion  string          `json:"gameVersion"`
	Dependencies []rawDependency `json:"dependencies"`
}

// rawDependency accepts both {"id": "...", "version": "..."} objects and
// bare-string ids.
type rawDependency struct {
	ID      string
	Version string
}

func (d *rawDependency) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.ID = s
		return nil
	}
	var obj struct {
		ID      string          `json:"id"`
		Name    string          `json:"name"`
		Version json.RawMessage `json:"version"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	d.ID = obj.ID
	if d.ID == "" {
		d.ID = obj.Name
	}
	d.Version = DecodeVersion(obj.Version)
	return nil
}

// parser tiers, tried in order; the first success wins and later tiers are
// never invoked.
var tiers = []struct {
	tier Tier
	fn   func([]byte) (rawDescriptor, error)
}{
	{TierStrict, parseStrict},
	{TierTolerant, parseTolerant},
	{TierForgiving, parseForgiving},
}

// Parse tolerantly parses descriptor bytes into a ModDescriptor, failing
// with domain.ErrUnparsableDescriptor when every tier fails or the result
// carries no usable identity.
func Parse(data []byte) (*domain.ModDescriptor, error) {
	d, _, err := ParseTier(data)
	return d, err
}

// ParseTier is Parse plus the tier that succeeded, for diagnostics.
func ParseTier(data []byte) (*domain.ModDescriptor, Tier, error) {
	var lastErr error
	for _, t := range tiers {
		raw, err := t.fn(data)
		if err != nil {
			lastErr = err
			continue
		}
		d, err := finishDescriptor(raw, data)
		if err != nil {
			return nil, t.tier, err
		}
		return d, t.tier, nil
	}
	return nil, 0, fmt.Errorf("%w: %v", domain.ErrUnparsableDescriptor, lastErr)
}

func parseStrict(data []byte) (rawDescriptor, error) {
	var raw rawDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return rawDescriptor{}, err
	}
	return raw, nil
}

func parseTolerant(data []byte) (rawDescriptor, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return rawDescriptor{}, err
	}
	return parseStrict(std)
}

func parseForgiving(data []byte) (rawDescriptor, error) {
	v, err := repairParse(data)
	if err != nil {
		return rawDescriptor{}, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return rawDescriptor{}, fmt.Errorf("descriptor is not an object")
	}
	std, err := json.Marshal(obj)
	if err != nil {
		return rawDescriptor{}, err
	}
	return parseStrict(std)
}

// DecodeTolerant unmarshals JSON into v with the same three-tier ladder
// Parse uses, for sidecar files written in the descriptors' loose dialect.
func DecodeTolerant(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}
	if std, err := hujson.Standardize(data); err == nil {
		if err := json.Unmarshal(std, v); err == nil {
			return nil
		}
	}
	repaired, err := repairParse(data)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnparsableDescriptor, err)
	}
	std, err := json.Marshal(repaired)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnparsableDescriptor, err)
	}
	if err := json.Unmarshal(std, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnparsableDescriptor, err)
	}
	return nil
}

// DecodeVersion accepts a version as a string, a bare number, or a
// {major, minor, patch} object and renders it as a plain string.
func DecodeVersion(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var obj struct {
		Major json.RawMessage `json:"major"`
		Minor json.RawMessage `json:"minor"`
		Patch json.RawMessage `json:"patch"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		var parts []string
		for _, p := range []json.RawMessage{obj.Major, obj.Minor, obj.Patch} {
			if len(p) == 0 {
				continue
			}
			parts = append(parts, DecodeVersion(p))
		}
		return strings.Join(parts, ".")
	}
	return ""
}

func finishDescriptor(raw rawDescriptor, src []byte) (*domain.ModDescriptor, error) {
	d := &domain.ModDescriptor{
		ID:          strings.TrimSpace(raw.ID),
		Name:        strings.TrimSpace(raw.Name),
		Version:     DecodeVersion(raw.Version),
		Author:      strings.TrimSpace(raw.Author),
		Description: strings.TrimSpace(raw.Description),
		GameVersion: strings.TrimSpace(raw.GameVersion),
		RawSource:   append([]byte(nil), src...),
	}
	for _, dep := range raw.Dependencies {
		id := strings.TrimSpace(dep.ID)
		if id == "" {
			continue
		}
		d.Dependencies = append(d.Dependencies, domain.Dependency{ID: id, Version: strings.TrimSpace(dep.Version)})
	}

	if d.ID == "" {
		d.ID = domain.SynthesizeID(d.Name)
	}
	if d.ID == "" {
		return nil, fmt.Errorf("%w: descriptor has neither id nor name", domain.ErrUnparsableDescriptor)
	}
	return d, nil
}

// Find locates and reads the descriptor file directly under the payload
// root, trying the conventional names case-insensitively.
func Find(h *archive.Handle) ([]byte, string, error) {
	entries := h.PayloadEntries()
	for _, want := range domain.DescriptorFilenames {
		for _, e := range entries {
			if e.IsDir || strings.ContainsRune(e.Path, '/') {
				continue
			}
			if !strings.EqualFold(e.Path, want) {
				continue
			}
			rc, err := h.ReadPayload(e.Path)
			if err != nil {
				return nil, "", fmt.Errorf("reading %s: %w", e.Path, err)
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, "", fmt.Errorf("reading %s: %w", e.Path, err)
			}
			return data, e.Path, nil
		}
	}
	return nil, "", fmt.Errorf("%s: %w", h.Label(), domain.ErrNoDescriptorFound)
}

// FindInDir locates and reads the descriptor of an installed mod directory.
func FindInDir(dir string) ([]byte, string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, want := range domain.DescriptorFilenames {
		for _, de := range dirents {
			if de.IsDir() || !strings.EqualFold(de.Name(), want) {
				continue
			}
			path := filepath.Join(dir, de.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, "", fmt.Errorf("reading %s: %w", path, err)
			}
			return data, path, nil
		}
	}
	return nil, "", fmt.Errorf("%s: %w", dir, domain.ErrNoDescriptorFound)
}
