package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"smm/internal/archive"
	"smm/internal/descriptor"
	"smm/internal/domain"
)

// Outcome classifies what happened to one install candidate.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeSkipped
	OutcomeInstalled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInstalled:
		return "installed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "rejected"
	}
}

// Result is the per-candidate outcome of a batch install. Results come
// back in the same order the sources went in.
type Result struct {
	Source      string // what the user handed us
	Outcome     Outcome
	Descriptor  *domain.ModDescriptor
	InstallPath string
	Prior       *domain.InstalledMod   // installed mod this candidate matched, if any
	Relation    domain.VersionRelation // candidate vs Prior, valid when Prior != nil
	Reason      error                  // why skipped or rejected
	Warnings    []error
	Planned     bool // dry run: decided but not performed
}

// InstallOptions tune a batch install.
type InstallOptions struct {
	Force   bool // install even when not newer than what is on disk
	DryRun  bool // decide everything, touch nothing
	Workers int  // parallelism for analysis and commits, default DefaultWorkers
}

// DefaultWorkers is the batch parallelism when the caller does not say.
const DefaultWorkers = 4

// Installer runs batch installs in three phases: analyze all candidate
// archives in parallel, decide each against one snapshot of the installed
// set, then commit. Commits for the same mod identity are serialized and
// re-check the directory on disk, which stays authoritative over the
// snapshot.
type Installer struct {
	scanner *Scanner
	matcher *Matcher
	deploy  *Deployer
	deps    *DependencyChecker
	log     *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-identity commit locks
}

func NewInstaller(scanner *Scanner, matcher *Matcher, deployer *Deployer, deps *DependencyChecker, logger *log.Logger) *Installer {
	return &Installer{
		scanner: scanner,
		matcher: matcher,
		deploy:  deployer,
		deps:    deps,
		log:     logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

type candidate struct {
	source archive.Source
	handle *archive.Handle
	result Result

	install  bool
	destName string
	identity string
}

// Install processes a batch of candidate archives against modsRoot.
func (ins *Installer) Install(ctx context.Context, modsRoot string, sources []archive.Source, opts InstallOptions) ([]Result, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	snap, _, err := ins.scanner.Scan(modsRoot)
	if err != nil {
		return nil, err
	}

	cands := ins.analyzeAll(ctx, sources, workers)
	defer func() {
		for _, c := range cands {
			if c.handle != nil {
				c.handle.Close()
			}
		}
	}()

	var analyzed []*domain.ModDescriptor
	for _, c := range cands {
		if c.result.Descriptor != nil {
			analyzed = append(analyzed, c.result.Descriptor)
		}
	}
	if err := ins.deps.DetectCycle(analyzed, snap); err != nil {
		ins.log.Warn("dependency cycle detected", "err", err)
		for _, c := range cands {
			if c.result.Descriptor != nil {
				c.result.Warnings = append(c.result.Warnings, err)
			}
		}
	}

	for _, c := range cands {
		if c.result.Descriptor == nil {
			continue // rejected during analysis
		}
		ins.decide(c, snap, opts.Force)
	}

	if opts.DryRun {
		for _, c := range cands {
			if c.install {
				c.result.Outcome = OutcomeInstalled
				c.result.Planned = true
				c.result.InstallPath = filepath.Join(modsRoot, c.destName)
			}
		}
		return collectResults(cands), nil
	}

	ins.commitAll(ctx, cands, modsRoot, opts, workers)
	return collectResults(cands), nil
}

// analyzeAll opens and inspects every source concurrently. Results keep
// input order regardless of which worker got the job.
func (ins *Installer) analyzeAll(ctx context.Context, sources []archive.Source, workers int) []*candidate {
	cands := make([]*candidate, len(sources))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				cands[i] = ins.analyze(ctx, sources[i])
			}
		}()
	}
	for i := range sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return cands
}

func (ins *Installer) analyze(ctx context.Context, src archive.Source) *candidate {
	c := &candidate{source: src, result: Result{Source: src.DisplayLabel()}}
	reject := func(err error) *candidate {
		c.result.Outcome = OutcomeRejected
		c.result.Reason = err
		return c
	}

	if err := ctx.Err(); err != nil {
		return reject(err)
	}

	h, err := archive.Resolve(src)
	if err != nil {
		return reject(err)
	}

	data, _, err := descriptor.Find(h)
	if err != nil {
		h.Close()
		return reject(err)
	}
	d, err := descriptor.Parse(data)
	if err != nil {
		h.Close()
		return reject(fmt.Errorf("%s: %w", h.Label(), err))
	}

	c.handle = h
	c.result.Descriptor = d
	return c
}

// decide matches the candidate against the snapshot and plans an action.
func (ins *Installer) decide(c *candidate, snap *domain.Snapshot, force bool) {
	d := c.result.Descriptor

	m := ins.matcher.Match(d, snap)
	if m.Ambiguous {
		c.result.Warnings = append(c.result.Warnings,
			fmt.Errorf("%w: several installed mods resemble %q, matched %q",
				domain.ErrAmbiguousMatch, d.DisplayName(), m.Installed.ID))
	}
	c.result.Warnings = append(c.result.Warnings, ins.deps.Check(d, snap)...)

	if m.Installed == nil {
		c.install = true
		c.destName = dirNameFor(d)
		c.identity = d.Key()
		return
	}

	c.result.Prior = m.Installed
	c.result.Relation = domain.CompareVersions(d.Version, m.Installed.Version)
	c.identity = m.Installed.Key()
	c.destName = filepath.Base(m.Installed.InstallPath)

	if c.result.Relation == domain.VersionNewer || force {
		c.install = true
		return
	}
	c.result.Outcome = OutcomeSkipped
	c.result.Reason = skipReason(d, m.Installed, c.result.Relation)
}

// dirNameFor picks a filesystem-safe directory name for a fresh install.
// Descriptor ids come from arbitrary files and cannot be trusted as path
// components.
func dirNameFor(d *domain.ModDescriptor) string {
	if name := domain.SynthesizeID(d.ID); name != "" {
		return name
	}
	if name := domain.SynthesizeID(d.Name); name != "" {
		return name
	}
	return "mod"
}

func skipReason(d *domain.ModDescriptor, prior *domain.InstalledMod, rel domain.VersionRelation) error {
	switch rel {
	case domain.VersionEqual:
		return fmt.Errorf("%s %s is already installed (duplicate of %s)", d.DisplayName(), d.Version, prior.ID)
	case domain.VersionOlder:
		return fmt.Errorf("%s %s is older than installed %s", d.DisplayName(), d.Version, prior.Version)
	default:
		return fmt.Errorf("%s version %q is not comparable with installed %q", d.DisplayName(), d.Version, prior.Version)
	}
}

// commitAll performs the planned installs. Candidates sharing an identity
// are committed by one worker in input order; distinct identities run in
// parallel.
func (ins *Installer) commitAll(ctx context.Context, cands []*candidate, modsRoot string, opts InstallOptions, workers int) {
	groups := make(map[string][]*candidate)
	var order []string
	for _, c := range cands {
		if !c.install {
			continue
		}
		if _, ok := groups[c.identity]; !ok {
			order = append(order, c.identity)
		}
		groups[c.identity] = append(groups[c.identity], c)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				for _, c := range groups[key] {
					ins.commit(ctx, c, modsRoot, opts)
				}
			}
		}()
	}
	for _, key := range order {
		jobs <- key
	}
	close(jobs)
	wg.Wait()
}

func (ins *Installer) commit(ctx context.Context, c *candidate, modsRoot string, opts InstallOptions) {
	if err := ctx.Err(); err != nil {
		c.result.Outcome = OutcomeRejected
		c.result.Reason = err
		return
	}

	mu := ins.lockFor(c.identity)
	mu.Lock()
	defer mu.Unlock()

	d := c.result.Descriptor
	dest := filepath.Join(modsRoot, c.destName)

	// The snapshot may be stale by now: an earlier candidate in this
	// batch, or another process entirely. The directory on disk wins.
	if onDisk, err := ReadInstalled(dest); err == nil {
		c.result.Prior = onDisk
		c.result.Relation = domain.CompareVersions(d.Version, onDisk.Version)
		if c.result.Relation != domain.VersionNewer && !opts.Force {
			c.result.Outcome = OutcomeSkipped
			c.result.Reason = skipReason(d, onDisk, c.result.Relation)
			return
		}
	}

	path, err := ins.deploy.Deploy(ctx, c.handle, modsRoot, c.destName)
	if err != nil {
		c.result.Outcome = OutcomeRejected
		c.result.Reason = err
		return
	}

	c.result.Outcome = OutcomeInstalled
	c.result.InstallPath = path
	ins.log.Info("installed", "mod", d.ID, "version", d.Version, "from", c.result.Source)
}

func (ins *Installer) lockFor(identity string) *sync.Mutex {
	ins.mu.Lock()
	defer ins.mu.Unlock()
	mu, ok := ins.locks[identity]
	if !ok {
		mu = &sync.Mutex{}
		ins.locks[identity] = mu
	}
	return mu
}

func collectResults(cands []*candidate) []Result {
	results := make([]Result, len(cands))
	for i, c := range cands {
		results[i] = c.result
	}
	return results
}
