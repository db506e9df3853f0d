package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"

	"smm/internal/archive"
	"smm/internal/descriptor"
	"smm/internal/domain"
	"smm/internal/source/versionfile"
	"smm/internal/storage/cache"
	"smm/internal/storage/config"
	"smm/internal/storage/db"
)

// ServiceConfig holds configuration for the core service.
type ServiceConfig struct {
	ConfigDir  string // directory for configuration files
	ConfigFile string // explicit config file, takes precedence over ConfigDir
	StateDir   string // directory for the database and archive cache
	ModsDir    string // overrides the configured mods directory when set
	Logger     *log.Logger
}

// Service is the main orchestrator for mod management operations.
type Service struct {
	config *config.Config
	db     *db.DB
	cache  *cache.Cache
	log    *log.Logger

	modsDir string

	scanner    *Scanner
	matcher    *Matcher
	deployer   *Deployer
	deps       *DependencyChecker
	installer  *Installer
	checker    *Checker
	downloader *Downloader
}

// NewService creates a new core service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	var appConfig *config.Config
	var err error
	if cfg.ConfigFile != "" {
		appConfig, err = config.LoadFile(cfg.ConfigFile)
	} else {
		appConfig, err = config.Load(cfg.ConfigDir)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	dbPath := filepath.Join(cfg.StateDir, "smm.db")
	database, err := db.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	cachePath := appConfig.CachePath
	if cachePath == "" {
		cachePath = filepath.Join(cfg.StateDir, "archives")
	}

	modsDir := cfg.ModsDir
	if modsDir == "" {
		modsDir = appConfig.ModsDir
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	httpClient := &http.Client{
		Timeout: time.Duration(appConfig.HTTPTimeoutSeconds) * time.Second,
	}

	scanner := NewScanner(logger)
	matcher := NewMatcher(appConfig.SimilarityThreshold)
	deployer := NewDeployer(logger)
	deps := NewDependencyChecker()

	return &Service{
		config:     appConfig,
		db:         database,
		cache:      cache.New(cachePath),
		log:        logger,
		modsDir:    modsDir,
		scanner:    scanner,
		matcher:    matcher,
		deployer:   deployer,
		deps:       deps,
		installer:  NewInstaller(scanner, matcher, deployer, deps, logger),
		checker:    NewChecker(versionfile.NewClient(httpClient), logger),
		downloader: NewDownloader(httpClient),
	}, nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Config returns the loaded configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// DB returns the database.
func (s *Service) DB() *db.DB {
	return s.db
}

// ModsDir returns the effective mods directory, or an error when neither
// the config file nor the caller provided one.
func (s *Service) ModsDir() (string, error) {
	if s.modsDir == "" {
		return "", fmt.Errorf("%w: no mods directory configured, set mods_dir or pass --mods-dir", domain.ErrInvalidConfig)
	}
	return s.modsDir, nil
}

// Mods scans the mods directory and returns the installed set in scan order,
// along with per-directory issues for anything that did not parse as a mod.
func (s *Service) Mods() ([]domain.InstalledMod, []ScanIssue, error) {
	modsDir, err := s.ModsDir()
	if err != nil {
		return nil, nil, err
	}
	snap, issues, err := s.scanner.Scan(modsDir)
	if err != nil {
		return nil, nil, err
	}
	return snap.All(), issues, nil
}

// Install runs a batch install of the given archive paths. Installed and
// replaced mods are recorded in history and their archives retained in the
// cache. Dry runs touch neither disk nor bookkeeping.
func (s *Service) Install(ctx context.Context, paths []string, opts InstallOptions) ([]Result, error) {
	modsDir, err := s.ModsDir()
	if err != nil {
		return nil, err
	}

	sources := make([]archive.Source, len(paths))
	for i, p := range paths {
		sources[i] = archive.Source{Path: p}
	}

	results, err := s.installer.Install(ctx, modsDir, sources, opts)
	if err != nil {
		return results, err
	}
	if !opts.DryRun {
		s.recordResults(results)
	}
	return results, nil
}

// recordResults persists bookkeeping for completed installs: a history row
// per install, and the source archive retained in the cache. Bookkeeping
// failures are logged but never fail an install that already happened.
func (s *Service) recordResults(results []Result) {
	for i := range results {
		r := &results[i]
		if r.Outcome != OutcomeInstalled || r.Planned || r.Descriptor == nil {
			continue
		}

		entry := db.HistoryEntry{
			ModID:       r.Descriptor.Key(),
			Name:        r.Descriptor.DisplayName(),
			Version:     r.Descriptor.Version,
			Action:      db.ActionInstalled,
			Source:      r.Source,
			InstallPath: r.InstallPath,
		}
		if r.Prior != nil {
			entry.Action = db.ActionReplaced
			entry.PriorVersion = r.Prior.Version
		}
		if err := s.db.RecordHistory(&entry); err != nil {
			s.log.Warn("recording install history", "mod", entry.ModID, "error", err)
		}

		s.retainArchive(r)
	}
}

func (s *Service) retainArchive(r *Result) {
	if r.Source == "" {
		return
	}
	if _, err := os.Stat(r.Source); err != nil {
		return
	}
	key := r.Descriptor.Key()
	if _, err := s.cache.Store(key, r.Descriptor.Version, r.Source); err != nil {
		s.log.Warn("caching archive", "mod", key, "error", err)
		return
	}
	if err := s.cache.Prune(key, s.config.KeepVersions); err != nil {
		s.log.Warn("pruning archive cache", "mod", key, "error", err)
	}
}

// Remove deletes an installed mod by id: the directory leaves the mods root,
// the activation registry entry goes away, and the removal lands in history.
func (s *Service) Remove(id string) (*domain.InstalledMod, error) {
	modsDir, err := s.ModsDir()
	if err != nil {
		return nil, err
	}

	mod, err := s.lookup(modsDir, id)
	if err != nil {
		return nil, err
	}

	if err := s.deployer.Remove(mod.InstallPath); err != nil {
		return nil, err
	}

	if err := SetEnabled(modsDir, mod.Key(), false); err != nil {
		s.log.Warn("updating activation registry", "mod", mod.Key(), "error", err)
	}
	if err := s.db.RemoveUpdatePolicy(mod.Key()); err != nil {
		s.log.Warn("clearing update policy", "mod", mod.Key(), "error", err)
	}

	entry := db.HistoryEntry{
		ModID:       mod.Key(),
		Name:        mod.DisplayName(),
		Version:     mod.Version,
		Action:      db.ActionRemoved,
		InstallPath: mod.InstallPath,
	}
	if err := s.db.RecordHistory(&entry); err != nil {
		s.log.Warn("recording removal history", "mod", mod.Key(), "error", err)
	}

	return mod, nil
}

// Enable marks an installed mod active in the game's activation registry.
func (s *Service) Enable(id string) (*domain.InstalledMod, error) {
	return s.setEnabled(id, true)
}

// Disable drops an installed mod from the game's activation registry. The
// files stay in place.
func (s *Service) Disable(id string) (*domain.InstalledMod, error) {
	return s.setEnabled(id, false)
}

func (s *Service) setEnabled(id string, on bool) (*domain.InstalledMod, error) {
	modsDir, err := s.ModsDir()
	if err != nil {
		return nil, err
	}
	mod, err := s.lookup(modsDir, id)
	if err != nil {
		return nil, err
	}
	if err := SetEnabled(modsDir, mod.Key(), on); err != nil {
		return nil, err
	}
	mod.Enabled = on
	return mod, nil
}

// lookup finds one installed mod by id against a fresh scan.
func (s *Service) lookup(modsDir, id string) (*domain.InstalledMod, error) {
	snap, _, err := s.scanner.Scan(modsDir)
	if err != nil {
		return nil, err
	}
	mod, ok := snap.ByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrModNotFound, id)
	}
	return mod, nil
}

// CheckUpdates polls the remote version files of every installed mod that
// ships one and is not pinned, and reports available updates.
func (s *Service) CheckUpdates(ctx context.Context) ([]domain.Update, error) {
	modsDir, err := s.ModsDir()
	if err != nil {
		return nil, err
	}
	snap, _, err := s.scanner.Scan(modsDir)
	if err != nil {
		return nil, err
	}

	policies, err := s.db.UpdatePolicies()
	if err != nil {
		return nil, err
	}

	return s.checker.CheckUpdates(ctx, snap.All(), policies)
}

// UpdateOutcome is the result of attempting to apply one update.
type UpdateOutcome struct {
	Update domain.Update
	Result *Result // install result, nil when the update could not be attempted
	Err    error
}

// ApplyUpdates downloads and installs the given updates. Updates without a
// direct download link cannot be applied and come back with an error; the
// player fetches those by hand.
func (s *Service) ApplyUpdates(ctx context.Context, updates []domain.Update, progressFn ProgressFunc) []UpdateOutcome {
	outcomes := make([]UpdateOutcome, len(updates))
	for i, u := range updates {
		outcomes[i] = UpdateOutcome{Update: u}
		outcomes[i].Result, outcomes[i].Err = s.applyUpdate(ctx, u, progressFn)
	}
	return outcomes
}

func (s *Service) applyUpdate(ctx context.Context, u domain.Update, progressFn ProgressFunc) (*Result, error) {
	if u.DownloadURL == "" {
		return nil, fmt.Errorf("%s %s has no direct download link", u.InstalledMod.DisplayName(), u.NewVersion)
	}

	tempDir, err := os.MkdirTemp("", "smm-download-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	archivePath := filepath.Join(tempDir, downloadFilename(u))
	if _, err := s.downloader.Download(ctx, u.DownloadURL, archivePath, progressFn); err != nil {
		return nil, err
	}

	results, err := s.Install(ctx, []string{archivePath}, InstallOptions{})
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("expected one install result, got %d", len(results))
	}
	r := results[0]
	if r.Outcome == OutcomeRejected {
		return &r, fmt.Errorf("installing %s: %w", u.InstalledMod.DisplayName(), r.Reason)
	}
	return &r, nil
}

// downloadFilename picks a local name for an update download. The installer
// sniffs content, so the name only has to be plausible.
func downloadFilename(u domain.Update) string {
	if parsed, err := url.Parse(u.DownloadURL); err == nil {
		if name := path.Base(parsed.Path); name != "" && name != "." && name != "/" {
			return filepath.Base(name)
		}
	}
	return u.InstalledMod.Key() + ".zip"
}

// SearchMatch is one installed mod matched by a search query.
type SearchMatch struct {
	Mod   domain.InstalledMod
	Score int
}

// modIndex adapts the installed set for fuzzy matching over name and id.
type modIndex []domain.InstalledMod

func (m modIndex) String(i int) string { return m[i].DisplayName() + " " + m[i].ID }
func (m modIndex) Len() int            { return len(m) }

// Search fuzzy-matches query against installed mod names and ids, best
// match first. An empty query returns everything in scan order.
func (s *Service) Search(query string) ([]SearchMatch, error) {
	mods, _, err := s.Mods()
	if err != nil {
		return nil, err
	}

	if query == "" {
		all := make([]SearchMatch, len(mods))
		for i, m := range mods {
			all[i] = SearchMatch{Mod: m}
		}
		return all, nil
	}

	matches := fuzzy.FindFrom(query, modIndex(mods))
	out := make([]SearchMatch, len(matches))
	for i, m := range matches {
		out[i] = SearchMatch{Mod: mods[m.Index], Score: m.Score}
	}
	return out, nil
}

// InspectReport describes one archive without installing it.
type InspectReport struct {
	Label          string
	DescriptorName string
	Tier           descriptor.Tier
	Descriptor     *domain.ModDescriptor
	Files          int
	TotalSize      int64
	Installed      *domain.InstalledMod   // matching installed mod, if any
	Relation       domain.VersionRelation // archive vs Installed, when matched
}

// Inspect opens an archive, parses its descriptor, and relates it to the
// installed set without touching the mods directory.
func (s *Service) Inspect(path string) (*InspectReport, error) {
	h, err := archive.Resolve(archive.Source{Path: path})
	if err != nil {
		return nil, err
	}
	defer h.Close()

	data, name, err := descriptor.Find(h)
	if err != nil {
		return nil, err
	}
	desc, tier, err := descriptor.ParseTier(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.Label(), err)
	}

	report := &InspectReport{
		Label:          h.Label(),
		DescriptorName: name,
		Tier:           tier,
		Descriptor:     desc,
	}
	for _, e := range h.PayloadEntries() {
		if !e.IsDir {
			report.Files++
			report.TotalSize += e.Size
		}
	}

	// Relating to the installed set is best effort; inspection works
	// without a configured mods directory.
	if s.modsDir != "" {
		if snap, _, err := s.scanner.Scan(s.modsDir); err == nil {
			if m := s.matcher.Match(desc, snap); m.Kind != MatchNone {
				report.Installed = m.Installed
				report.Relation = domain.CompareVersions(desc.Version, m.Installed.Version)
			}
		}
	}

	return report, nil
}

// History returns recent install activity, newest first.
func (s *Service) History(limit int) ([]db.HistoryEntry, error) {
	return s.db.History(limit)
}

// HistoryFor returns recent install activity for one mod, newest first.
func (s *Service) HistoryFor(id string, limit int) ([]db.HistoryEntry, error) {
	return s.db.HistoryFor(id, limit)
}

// SetUpdatePolicy stores the update policy for an installed mod.
func (s *Service) SetUpdatePolicy(id string, policy domain.UpdatePolicy) (*domain.InstalledMod, error) {
	modsDir, err := s.ModsDir()
	if err != nil {
		return nil, err
	}
	mod, err := s.lookup(modsDir, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.SetUpdatePolicy(mod.Key(), policy); err != nil {
		return nil, err
	}
	return mod, nil
}

// UpdatePolicy reads the stored update policy for a mod id.
func (s *Service) UpdatePolicy(id string) (domain.UpdatePolicy, error) {
	return s.db.GetUpdatePolicy(id)
}

// CachedVersions lists the archive versions retained for a mod, oldest
// first.
func (s *Service) CachedVersions(id string) ([]string, error) {
	return s.cache.Versions(domain.CanonicalID(id))
}
