package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"smm/internal/domain"
	"smm/internal/source/versionfile"
)

// Checker discovers updates for installed mods through their version
// files.
type Checker struct {
	client *versionfile.Client
	log    *log.Logger
}

func NewChecker(client *versionfile.Client, logger *log.Logger) *Checker {
	return &Checker{client: client, log: logger}
}

// CheckUpdates checks every installed mod that ships a version file,
// honoring per-mod update policies. Pinned mods are not checked; mods
// without a version file simply have no update channel and are skipped.
// Remote failures for one mod do not stop the rest.
func (c *Checker) CheckUpdates(ctx context.Context, installed []domain.InstalledMod, policies map[string]domain.UpdatePolicy) ([]domain.Update, error) {
	type target struct {
		mod domain.InstalledMod
		vf  *versionfile.VersionFile
	}
	var targets []target
	for _, mod := range installed {
		if policies[mod.Key()] == domain.UpdatePinned {
			continue
		}
		vf, _, err := versionfile.FindLocal(mod.InstallPath)
		if err != nil {
			if !errors.Is(err, domain.ErrNoVersionFile) {
				c.log.Debug("unreadable version file", "mod", mod.ID, "err", err)
			}
			continue
		}
		if vf.MasterVersionFile == "" {
			continue
		}
		targets = append(targets, target{mod: mod, vf: vf})
	}

	progress, _ := ctx.Value(domain.UpdateProgressContextKey).(domain.UpdateProgressFunc)

	var updates []domain.Update
	var checkErrs []error
	for i, t := range targets {
		select {
		case <-ctx.Done():
			return updates, ctx.Err()
		default:
		}
		if progress != nil {
			progress(i+1, len(targets), t.mod.DisplayName())
		}

		remote, err := c.client.FetchMaster(ctx, t.vf.MasterVersionFile)
		if err != nil {
			checkErrs = append(checkErrs, fmt.Errorf("%s: %w", t.mod.ID, err))
			continue
		}

		local := t.vf.ModVersion
		if local == "" {
			local = t.mod.Version
		}
		rel := domain.CompareVersions(remote.ModVersion, local)
		if rel != domain.VersionNewer {
			continue
		}

		threadURL := remote.ThreadURL()
		if threadURL == "" {
			threadURL = t.vf.ThreadURL()
		}
		updates = append(updates, domain.Update{
			InstalledMod: t.mod,
			NewVersion:   remote.ModVersion,
			Relation:     rel,
			DownloadURL:  remote.DirectDownloadURL,
			ThreadURL:    threadURL,
			Policy:       policies[t.mod.Key()],
		})
	}

	if len(checkErrs) > 0 {
		return updates, fmt.Errorf("update check had %d error(s): %w", len(checkErrs), errors.Join(checkErrs...))
	}
	return updates, nil
}

// AutoUpdatable filters updates to those whose policy applies them
// without asking.
func AutoUpdatable(updates []domain.Update) []domain.Update {
	var auto []domain.Update
	for _, u := range updates {
		if u.Policy == domain.UpdateAuto {
			auto = append(auto, u)
		}
	}
	return auto
}
