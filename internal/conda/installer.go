package conda

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/giantswarm/nbenv/internal/fileutil"
)

// InstallerConfig configures an Installer.
type InstallerConfig struct {
	// URL of the installer shell archive.
	URL string
	// PayloadPath is where the downloaded installer is staged. It lives on
	// the persistent volume so an interrupted bootstrap can resume without
	// re-downloading.
	PayloadPath string
	// Prefix is the directory Miniconda installs into.
	Prefix string
	// DataDir holds the installer's stdout/stderr logs.
	DataDir string

	// HTTPClient for the download (optional, defaults to http.DefaultClient).
	HTTPClient *http.Client
	// Runner executes the installer (optional, defaults to ExecRunner).
	Runner CommandRunner
	// Logger (optional, defaults to slog.Default()).
	Logger *slog.Logger
}

func (c InstallerConfig) validate() error {
	if c.URL == "" {
		return errors.New("installer URL must not be empty")
	}
	if c.PayloadPath == "" {
		return errors.New("payload path must not be empty")
	}
	if c.Prefix == "" {
		return errors.New("install prefix must not be empty")
	}
	if c.DataDir == "" {
		return errors.New("data dir must not be empty")
	}
	return nil
}

// Installer downloads the Miniconda installer payload and runs it in batch
// mode to produce a conda prefix.
type Installer struct {
	config InstallerConfig
	client *http.Client
	runner CommandRunner
	logger *slog.Logger
}

// NewInstaller creates an Installer with the given configuration. It
// performs no I/O; downloading and installing happen in Download and
// Install.
func NewInstaller(cfg InstallerConfig) (*Installer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid installer config: %w", err)
	}
	inst := &Installer{
		config: cfg,
		client: cfg.HTTPClient,
		runner: cfg.Runner,
		logger: cfg.Logger,
	}
	if inst.client == nil {
		inst.client = http.DefaultClient
	}
	if inst.runner == nil {
		inst.runner = ExecRunner{Logger: cfg.Logger}
	}
	if inst.logger == nil {
		inst.logger = slog.Default()
	}
	return inst, nil
}

// Installed reports whether the prefix already contains a conda binary,
// meaning a previous bootstrap completed this step.
func (i *Installer) Installed() (bool, error) {
	return fileutil.Exists(i.CondaBin())
}

// CondaBin returns the path of the conda executable under the prefix.
func (i *Installer) CondaBin() string {
	return filepath.Join(i.config.Prefix, "bin", "conda")
}

// Download fetches the installer payload to the staging path. An existing
// payload is reused: the URL pins an exact installer release, so the bytes
// never change for a given configuration.
func (i *Installer) Download(ctx context.Context) error {
	ok, err := fileutil.Exists(i.config.PayloadPath)
	if err != nil {
		return fmt.Errorf("check installer payload: %w", err)
	}
	if ok {
		i.logger.Debug("installer payload already present", "path", i.config.PayloadPath)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.config.URL, nil)
	if err != nil {
		return fmt.Errorf("build installer request: %w", err)
	}

	i.logger.Info("downloading installer", "url", i.config.URL)

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("download installer: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download installer: unexpected status %s", resp.Status)
	}

	// Stream to a temp file and rename so a partial download never
	// masquerades as a complete payload on the next attempt.
	if err := fileutil.EnsureDirForFile(i.config.PayloadPath); err != nil {
		return fmt.Errorf("prepare payload directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(i.config.PayloadPath), ".download-*")
	if err != nil {
		return fmt.Errorf("create payload temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write installer payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close installer payload: %w", err)
	}
	if err := os.Rename(tmpName, i.config.PayloadPath); err != nil {
		return fmt.Errorf("finalize installer payload: %w", err)
	}

	i.logger.Info("installer downloaded", "path", i.config.PayloadPath)
	return nil
}

// Install runs the downloaded payload in batch mode (-b) into the prefix,
// then removes the payload to reclaim space on the persistent volume. If
// the prefix already has a conda binary, Install is a no-op.
func (i *Installer) Install(ctx context.Context) error {
	installed, err := i.Installed()
	if err != nil {
		return fmt.Errorf("check existing install: %w", err)
	}
	if installed {
		i.logger.Debug("conda already installed", "prefix", i.config.Prefix)
		return nil
	}

	if err := fileutil.EnsureDir(i.config.DataDir); err != nil {
		return fmt.Errorf("prepare installer data dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", i.config.PayloadPath, "-b", "-p", i.config.Prefix)
	if err := i.runner.Run(ctx, cmd, i.config.DataDir, "miniconda-install"); err != nil {
		return fmt.Errorf("run installer: %w", err)
	}

	// Installer archives are a few hundred MB; do not leave them on the
	// volume. Removal failure is not fatal.
	if err := os.Remove(i.config.PayloadPath); err != nil && !os.IsNotExist(err) {
		i.logger.Warn("remove installer payload", "path", i.config.PayloadPath, "error", err)
	}

	i.logger.Info("conda installed", "prefix", i.config.Prefix)
	return nil
}
