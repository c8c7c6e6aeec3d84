// Package updater replaces the running lightnode binary with the latest
// GitHub release and keeps one backup of the replaced binary for rollback.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/smazurov/lightnode/internal/version"
)

// DefaultRepository is the release source.
const DefaultRepository = "smazurov/lightnode"

var (
	// ErrNoUpdate is returned by Apply when the running version is current.
	ErrNoUpdate = errors.New("already running the latest release")
	// ErrNoRelease is returned when the repository has no matching release.
	ErrNoRelease = errors.New("no release found")
	// ErrNoBackup is returned by Rollback when nothing was backed up.
	ErrNoBackup = errors.New("no backup available")
)

// Options configures the updater.
type Options struct {
	Repository string // GitHub slug, DefaultRepository when empty
	Prerelease bool
	BackupDir  string // ~/.cache/lightnode/backup when empty
	Executable string // the running binary when empty
}

// Info describes the latest release relative to the running version.
type Info struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes,omitempty"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	AssetSize       int       `json:"asset_size"`
	UpdateAvailable bool      `json:"update_available"`
}

// Updater checks for, applies and rolls back releases.
type Updater struct {
	updater *selfupdate.Updater
	repo    selfupdate.Repository
	exe     string
	backups *backups
	logger  *slog.Logger
}

// New creates an updater. It fails when the binary's directory is not
// writable, since an update could not be applied.
func New(opts Options, logger *slog.Logger) (*Updater, error) {
	if opts.Repository == "" {
		opts.Repository = DefaultRepository
	}

	exe := opts.Executable
	if exe == "" {
		var err error
		if exe, err = selfupdate.ExecutablePath(); err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
	}
	if err := Writable(filepath.Dir(exe)); err != nil {
		return nil, err
	}

	dir := opts.BackupDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache", "lightnode", "backup")
	}
	b, err := openBackups(dir)
	if err != nil {
		return nil, err
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("create GitHub source: %w", err)
	}
	up, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("create updater: %w", err)
	}

	return &Updater{
		updater: up,
		repo:    selfupdate.ParseSlug(opts.Repository),
		exe:     exe,
		backups: b,
		logger:  logger,
	}, nil
}

// Writable reports an error when files cannot be created in dir.
func Writable(dir string) error {
	f, err := os.CreateTemp(dir, ".lightnode-update-*")
	if err != nil {
		return fmt.Errorf("no write permission in %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func (u *Updater) latest(ctx context.Context) (*selfupdate.Release, Info, error) {
	release, found, err := u.updater.DetectLatest(ctx, u.repo)
	if err != nil {
		return nil, Info{}, fmt.Errorf("check for updates: %w", err)
	}
	if !found {
		return nil, Info{}, ErrNoRelease
	}

	current := version.String()
	return release, Info{
		CurrentVersion:  current,
		LatestVersion:   release.Version(),
		ReleaseNotes:    release.ReleaseNotes,
		ReleaseURL:      release.URL,
		PublishedAt:     release.PublishedAt,
		AssetSize:       release.AssetByteSize,
		UpdateAvailable: needsUpdate(current, release.GreaterThan),
	}, nil
}

// needsUpdate treats development builds as always outdated.
func needsUpdate(current string, greaterThan func(string) bool) bool {
	return current == "dev" || greaterThan(current)
}

// Check looks up the latest release without downloading it.
func (u *Updater) Check(ctx context.Context) (Info, error) {
	_, info, err := u.latest(ctx)
	return info, err
}

// Apply backs up the running binary and replaces it with the latest
// release. The new binary takes effect after a restart. A failed download
// restores the backup.
func (u *Updater) Apply(ctx context.Context) (Info, error) {
	release, info, err := u.latest(ctx)
	if err != nil {
		return info, err
	}
	if !info.UpdateAvailable {
		return info, ErrNoUpdate
	}

	if err := u.backups.save(u.exe, info.CurrentVersion); err != nil {
		return info, err
	}

	u.logger.Info("Applying update", "from", info.CurrentVersion, "to", info.LatestVersion)
	if err := u.updater.UpdateTo(ctx, release, u.exe); err != nil {
		if restoreErr := u.backups.restore(); restoreErr != nil {
			u.logger.Error("Failed to restore backup", "error", restoreErr)
		}
		return info, fmt.Errorf("apply update: %w", err)
	}
	u.logger.Info("Update applied, restart to run it", "version", info.LatestVersion)
	return info, nil
}

// Rollback restores the backed up binary and returns its version.
func (u *Updater) Rollback() (string, error) {
	b, ok := u.backups.latest()
	if !ok {
		return "", ErrNoBackup
	}
	if err := u.backups.restore(); err != nil {
		return "", err
	}
	u.logger.Info("Rolled back, restart to run it", "version", b.Version)
	return b.Version, nil
}

// Backup returns the version kept for rollback.
func (u *Updater) Backup() (string, bool) {
	b, ok := u.backups.latest()
	return b.Version, ok
}
