package core

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"smm/internal/domain"
)

// DependencyChecker reports missing or outdated dependencies. Dependency
// problems never block an install: descriptor authors get these fields
// wrong too often for hard failures, so everything surfaces as warnings.
type DependencyChecker struct{}

func NewDependencyChecker() *DependencyChecker {
	return &DependencyChecker{}
}

// Check returns one warning per dependency of cand that is missing from
// snap or installed at an insufficient version.
func (dc *DependencyChecker) Check(cand *domain.ModDescriptor, snap *domain.Snapshot) []error {
	var warns []error
	for _, dep := range cand.Dependencies {
		installed, ok := snap.ByID(dep.ID)
		if !ok {
			warns = append(warns, fmt.Errorf("dependency %s is not installed", dep.ID))
			continue
		}
		if dep.Version == "" {
			continue
		}
		if !satisfies(installed.Version, dep.Version) {
			warns = append(warns, fmt.Errorf("dependency %s %s is older than required %s",
				dep.ID, installed.Version, dep.Version))
		}
	}
	return warns
}

// satisfies reports whether the installed version meets the requirement.
// Semver-shaped versions get real constraint matching; everything else
// falls back to ordering, where only a strictly older install fails.
func satisfies(installedVersion, required string) bool {
	if c, err := semver.NewConstraint(">= " + required); err == nil {
		if v, err := semver.NewVersion(installedVersion); err == nil {
			return c.Check(v)
		}
	}
	return domain.CompareVersions(installedVersion, required) != domain.VersionOlder
}

// DetectCycle looks for circular dependencies across the candidate batch
// and the installed set. Dependencies on mods known to neither are
// ignored here; Check already reports those as missing.
func (dc *DependencyChecker) DetectCycle(cands []*domain.ModDescriptor, snap *domain.Snapshot) error {
	graph := make(map[string][]domain.Dependency)
	for _, m := range snap.All() {
		graph[m.Key()] = m.Dependencies
	}
	for _, d := range cands {
		graph[d.Key()] = d.Dependencies
	}

	keys := make([]string, 0, len(graph))
	for key := range graph {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// 0 = unvisited, 1 = visiting (in stack), 2 = visited
	state := make(map[string]int)
	var visit func(key string) error
	visit = func(key string) error {
		switch state[key] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("%w: involving %s", domain.ErrDependencyLoop, key)
		}
		state[key] = 1
		for _, dep := range graph[key] {
			depKey := domain.CanonicalID(dep.ID)
			if _, ok := graph[depKey]; !ok {
				continue
			}
			if err := visit(depKey); err != nil {
				return err
			}
		}
		state[key] = 2
		return nil
	}

	for _, key := range keys {
		if err := visit(key); err != nil {
			return err
		}
	}
	return nil
}
