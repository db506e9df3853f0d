package core

import (
	"strings"

	"github.com/agext/levenshtein"

	"smm/internal/domain"
)

// DefaultSimilarityThreshold is the minimum normalized name similarity
// for two differently-identified mods to be treated as the same mod.
const DefaultSimilarityThreshold = 0.84

// MatchKind says how a candidate was tied to an installed mod.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExactID
	MatchSimilarName
)

func (k MatchKind) String() string {
	switch k {
	case MatchExactID:
		return "exact id"
	case MatchSimilarName:
		return "similar name"
	default:
		return "none"
	}
}

// Match is the outcome of resolving a candidate against the installed set.
type Match struct {
	Kind       MatchKind
	Installed  *domain.InstalledMod
	Similarity float64
	// Ambiguous is set when several installed mods tied for the best
	// name similarity and the winner was picked by id order.
	Ambiguous bool
}

// Matcher decides which installed mod, if any, a candidate descriptor
// refers to. Exact id equality wins outright; otherwise mods are matched
// by fuzzy name similarity so that re-releases with drifting ids (a common
// occurrence on mod forums) still update in place.
type Matcher struct {
	threshold float64
}

func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Matcher{threshold: threshold}
}

// Match resolves cand against snap. A nil snapshot matches nothing.
func (m *Matcher) Match(cand *domain.ModDescriptor, snap *domain.Snapshot) Match {
	if snap == nil {
		return Match{}
	}

	if installed, ok := snap.ByID(cand.ID); ok {
		return Match{Kind: MatchExactID, Installed: installed, Similarity: 1}
	}

	candName := normalizeName(cand.Name)
	if candName == "" {
		return Match{}
	}

	best := Match{}
	all := snap.All()
	for i := range all {
		installed := &all[i]
		name := normalizeName(installed.Name)
		if name == "" {
			continue
		}
		sim := levenshtein.Similarity(candName, name, nil)
		if sim < m.threshold {
			continue
		}
		switch {
		case best.Installed == nil || sim > best.Similarity:
			best = Match{Kind: MatchSimilarName, Installed: installed, Similarity: sim}
		case sim == best.Similarity:
			// Tie: keep the lexicographically smaller id so the
			// outcome does not depend on scan order.
			best.Ambiguous = true
			if domain.CanonicalID(installed.ID) < domain.CanonicalID(best.Installed.ID) {
				best.Installed = installed
			}
		}
	}

	return best
}

// normalizeName folds case and collapses interior whitespace before the
// similarity comparison.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
