package core_test

import (
	"testing"

	"smm/internal/core"
	"smm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withDeps(mod domain.InstalledMod, deps ...domain.Dependency) domain.InstalledMod {
	mod.Dependencies = deps
	return mod
}

func TestDependencyChecker_AllSatisfied(t *testing.T) {
	dc := core.NewDependencyChecker()
	snap := snapshotOf(
		installed("lazylib", "LazyLib", "2.8"),
		installed("magiclib", "MagicLib", "1.4.0"),
	)
	cand := &domain.ModDescriptor{
		ID: "nexerelin", Name: "Nexerelin", Version: "0.11.2b",
		Dependencies: []domain.Dependency{
			{ID: "lazylib", Version: "2.6"},
			{ID: "magiclib"},
		},
	}

	assert.Empty(t, dc.Check(cand, snap))
}

func TestDependencyChecker_Missing(t *testing.T) {
	dc := core.NewDependencyChecker()
	snap := snapshotOf(installed("lazylib", "LazyLib", "2.8"))
	cand := &domain.ModDescriptor{
		ID: "nexerelin", Name: "Nexerelin",
		Dependencies: []domain.Dependency{{ID: "magiclib", Name: "MagicLib"}},
	}

	warns := dc.Check(cand, snap)
	require.Len(t, warns, 1)
	assert.ErrorContains(t, warns[0], "magiclib")
	assert.ErrorContains(t, warns[0], "not installed")
}

func TestDependencyChecker_SemverTooOld(t *testing.T) {
	dc := core.NewDependencyChecker()
	snap := snapshotOf(installed("magiclib", "MagicLib", "1.2.0"))
	cand := &domain.ModDescriptor{
		ID:           "nexerelin",
		Dependencies: []domain.Dependency{{ID: "magiclib", Version: "1.4.0"}},
	}

	warns := dc.Check(cand, snap)
	require.Len(t, warns, 1)
	assert.ErrorContains(t, warns[0], "older than required")
}

func TestDependencyChecker_NonSemverFallback(t *testing.T) {
	dc := core.NewDependencyChecker()

	// Starsector-style versions that semver cannot parse.
	snap := snapshotOf(installed("lazylib", "LazyLib", "2.8b"))

	satisfied := &domain.ModDescriptor{
		ID:           "nexerelin",
		Dependencies: []domain.Dependency{{ID: "lazylib", Version: "2.7"}},
	}
	assert.Empty(t, dc.Check(satisfied, snap))

	tooNew := &domain.ModDescriptor{
		ID:           "nexerelin",
		Dependencies: []domain.Dependency{{ID: "lazylib", Version: "2.9"}},
	}
	warns := dc.Check(tooNew, snap)
	require.Len(t, warns, 1)
	assert.ErrorContains(t, warns[0], "older than required")
}

func TestDependencyChecker_UnversionedRequirement(t *testing.T) {
	dc := core.NewDependencyChecker()
	snap := snapshotOf(installed("lazylib", "LazyLib", "whatever"))
	cand := &domain.ModDescriptor{
		ID:           "nexerelin",
		Dependencies: []domain.Dependency{{ID: "LazyLib"}},
	}

	// Presence is enough when the descriptor names no version.
	assert.Empty(t, dc.Check(cand, snap))
}

func TestDetectCycle_None(t *testing.T) {
	dc := core.NewDependencyChecker()
	snap := snapshotOf(
		withDeps(installed("nexerelin", "Nexerelin", "0.11.2b"), domain.Dependency{ID: "lazylib"}),
		installed("lazylib", "LazyLib", "2.8"),
	)

	err := dc.DetectCycle(nil, snap)
	assert.NoError(t, err)
}

func TestDetectCycle_AcrossBatchAndInstalled(t *testing.T) {
	dc := core.NewDependencyChecker()
	snap := snapshotOf(
		withDeps(installed("mod_a", "Mod A", "1.0"), domain.Dependency{ID: "mod_b"}),
	)
	cands := []*domain.ModDescriptor{
		{ID: "mod_b", Name: "Mod B", Dependencies: []domain.Dependency{{ID: "mod_a"}}},
	}

	err := dc.DetectCycle(cands, snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependencyLoop)
}

func TestDetectCycle_SelfDependency(t *testing.T) {
	dc := core.NewDependencyChecker()
	cands := []*domain.ModDescriptor{
		{ID: "ouroboros", Dependencies: []domain.Dependency{{ID: "ouroboros"}}},
	}

	err := dc.DetectCycle(cands, nil)
	assert.ErrorIs(t, err, domain.ErrDependencyLoop)
}

func TestDetectCycle_IgnoresUnknownDeps(t *testing.T) {
	dc := core.NewDependencyChecker()
	cands := []*domain.ModDescriptor{
		{ID: "nexerelin", Dependencies: []domain.Dependency{{ID: "not_anywhere"}}},
	}

	assert.NoError(t, dc.DetectCycle(cands, nil))
}
