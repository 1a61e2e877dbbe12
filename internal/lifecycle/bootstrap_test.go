package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/giantswarm/nbenv/internal/conda"
	"github.com/giantswarm/nbenv/internal/journal"
	"github.com/giantswarm/nbenv/internal/status"
)

var testEnvs = []conda.EnvSpec{
	{Name: "tensorflow2_p39", Python: "3.9", Packages: []string{"tensorflow==2.11.0", "ipykernel==6.25.2"}},
}

func testBootstrapperConfig(t *testing.T) BootstrapperConfig {
	t.Helper()

	dir := t.TempDir()
	return BootstrapperConfig{
		LockPath:      filepath.Join(dir, "bootstrap.lock"),
		JournalPath:   filepath.Join(dir, "journal.db"),
		InstallerURL:  "https://repo.anaconda.com/miniconda/Miniconda3-py39_23.11.0-2-Linux-x86_64.sh",
		WorkspaceDirs: []string{filepath.Join(dir, "miniconda"), filepath.Join(dir, "logs")},
		Envs:          testEnvs,
	}
}

func testStore(t *testing.T) *status.FileStore {
	t.Helper()

	dir := t.TempDir()
	return status.NewFileStore(
		filepath.Join(dir, "status.json"),
		filepath.Join(dir, "setup-complete"),
	)
}

func TestNewBootstrapper(t *testing.T) {
	t.Parallel()

	validDeps := func() BootstrapperDeps {
		return BootstrapperDeps{Store: testStore(t), Installer: &fakeInstaller{}, Envs: &fakeEnvs{}}
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		if _, err := NewBootstrapper(testBootstrapperConfig(t), validDeps()); err != nil {
			t.Errorf("NewBootstrapper() error = %v", err)
		}
	})

	t.Run("no environments", func(t *testing.T) {
		t.Parallel()

		cfg := testBootstrapperConfig(t)
		cfg.Envs = nil
		if _, err := NewBootstrapper(cfg, validDeps()); !errors.Is(err, ErrNoEnvironments) {
			t.Errorf("NewBootstrapper() error = %v, want ErrNoEnvironments", err)
		}
	})

	t.Run("invalid env spec", func(t *testing.T) {
		t.Parallel()

		cfg := testBootstrapperConfig(t)
		cfg.Envs = []conda.EnvSpec{{Name: "broken"}}
		if _, err := NewBootstrapper(cfg, validDeps()); !errors.Is(err, conda.ErrEmptyPython) {
			t.Errorf("NewBootstrapper() error = %v, want ErrEmptyPython", err)
		}
	})

	t.Run("missing deps", func(t *testing.T) {
		t.Parallel()

		if _, err := NewBootstrapper(testBootstrapperConfig(t), BootstrapperDeps{}); err == nil {
			t.Error("NewBootstrapper(empty deps) error = nil, want error")
		}
	})
}

func TestBootstrapperRun(t *testing.T) {
	t.Parallel()

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		cfg := testBootstrapperConfig(t)
		store := testStore(t)
		installer := &fakeInstaller{}
		envs := &fakeEnvs{}

		b, err := NewBootstrapper(cfg, BootstrapperDeps{Store: store, Installer: installer, Envs: envs})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}

		if err := b.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if installer.downloads != 1 || installer.installs != 1 {
			t.Errorf("installer calls = %d/%d, want 1/1", installer.downloads, installer.installs)
		}
		if len(envs.created) != 1 || envs.created[0] != "tensorflow2_p39" {
			t.Errorf("created envs = %v, want [tensorflow2_p39]", envs.created)
		}
		if len(envs.installed) != 1 {
			t.Errorf("installed envs = %v, want one", envs.installed)
		}

		rec, err := store.Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if rec.State != status.StateSucceeded {
			t.Errorf("final state = %s, want succeeded", rec.State)
		}
		if rec.SpecHash != b.SpecHash() {
			t.Errorf("record hash = %q, want %q", rec.SpecHash, b.SpecHash())
		}
	})

	t.Run("journals every step", func(t *testing.T) {
		t.Parallel()

		cfg := testBootstrapperConfig(t)
		b, err := NewBootstrapper(cfg, BootstrapperDeps{Store: testStore(t), Installer: &fakeInstaller{}, Envs: &fakeEnvs{}})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}
		if err := b.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		jnl, err := journal.Open(context.Background(), cfg.JournalPath)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer func() { _ = jnl.Close() }()

		steps, err := jnl.Steps(context.Background(), b.SpecHash())
		if err != nil {
			t.Fatalf("Steps() error = %v", err)
		}

		got := map[string]journal.Outcome{}
		for _, s := range steps {
			got[s.Name] = s.Outcome
		}
		for _, want := range []string{
			"download-installer", "prepare-workspace", "install-conda",
			"create-env-tensorflow2_p39", "install-packages-tensorflow2_p39",
		} {
			if got[want] != journal.OutcomeSucceeded {
				t.Errorf("step %q outcome = %q, want succeeded", want, got[want])
			}
		}
	})

	t.Run("matching spec hash is a no-op", func(t *testing.T) {
		t.Parallel()

		cfg := testBootstrapperConfig(t)
		store := testStore(t)
		installer := &fakeInstaller{}
		b, err := NewBootstrapper(cfg, BootstrapperDeps{Store: store, Installer: installer, Envs: &fakeEnvs{}})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}

		for range 2 {
			if err := b.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
		}
		if installer.installs != 1 {
			t.Errorf("installer ran %d times, want 1 (second run should short-circuit)", installer.installs)
		}
	})

	t.Run("changed spec re-runs", func(t *testing.T) {
		t.Parallel()

		cfg := testBootstrapperConfig(t)
		store := testStore(t)
		installer := &fakeInstaller{}
		b, err := NewBootstrapper(cfg, BootstrapperDeps{Store: store, Installer: installer, Envs: &fakeEnvs{}})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}
		if err := b.Run(context.Background()); err != nil {
			t.Fatalf("first Run() error = %v", err)
		}

		cfg.Envs = []conda.EnvSpec{{Name: "pytorch_p39", Python: "3.9"}}
		b2, err := NewBootstrapper(cfg, BootstrapperDeps{Store: store, Installer: installer, Envs: &fakeEnvs{}})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}
		if err := b2.Run(context.Background()); err != nil {
			t.Fatalf("second Run() error = %v", err)
		}
		if installer.installs != 2 {
			t.Errorf("installer ran %d times, want 2 (spec changed)", installer.installs)
		}
	})

	t.Run("step failure records failed status", func(t *testing.T) {
		t.Parallel()

		cfg := testBootstrapperConfig(t)
		store := testStore(t)
		wantErr := errors.New("conda create blew up")
		b, err := NewBootstrapper(cfg, BootstrapperDeps{
			Store:     store,
			Installer: &fakeInstaller{},
			Envs:      &fakeEnvs{createErr: wantErr},
		})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}

		if err := b.Run(context.Background()); !errors.Is(err, wantErr) {
			t.Fatalf("Run() error = %v, want %v", err, wantErr)
		}

		rec, err := store.Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if rec.State != status.StateFailed {
			t.Errorf("state = %s, want failed", rec.State)
		}
		if rec.Message == "" {
			t.Error("Message is empty, want failure cause")
		}

		ready, err := store.Ready()
		if err != nil {
			t.Fatalf("Ready() error = %v", err)
		}
		if ready {
			t.Error("Ready() = true after failed bootstrap")
		}
	})

	t.Run("held lock returns in-progress", func(t *testing.T) {
		t.Parallel()

		cfg := testBootstrapperConfig(t)
		b, err := NewBootstrapper(cfg, BootstrapperDeps{Store: testStore(t), Installer: &fakeInstaller{}, Envs: &fakeEnvs{}})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}

		fl := flock.New(cfg.LockPath)
		locked, err := fl.TryLock()
		if err != nil || !locked {
			t.Fatalf("TryLock() = (%v, %v), want held", locked, err)
		}
		defer func() { _ = fl.Close() }()

		if err := b.Run(context.Background()); !errors.Is(err, ErrBootstrapInProgress) {
			t.Errorf("Run() error = %v, want ErrBootstrapInProgress", err)
		}
	})

	t.Run("failed run retries from scratch", func(t *testing.T) {
		t.Parallel()

		cfg := testBootstrapperConfig(t)
		store := testStore(t)
		envs := &fakeEnvs{createErr: errors.New("transient")}
		b, err := NewBootstrapper(cfg, BootstrapperDeps{Store: store, Installer: &fakeInstaller{}, Envs: envs})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}
		if err := b.Run(context.Background()); err == nil {
			t.Fatal("first Run() error = nil, want failure")
		}

		envs.createErr = nil
		if err := b.Run(context.Background()); err != nil {
			t.Fatalf("retry Run() error = %v", err)
		}

		rec, err := store.Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if rec.State != status.StateSucceeded {
			t.Errorf("state after retry = %s, want succeeded", rec.State)
		}
	})
}

func TestBootstrapperDetachValidation(t *testing.T) {
	t.Parallel()

	b, err := NewBootstrapper(testBootstrapperConfig(t), BootstrapperDeps{
		Store: testStore(t), Installer: &fakeInstaller{}, Envs: &fakeEnvs{},
	})
	if err != nil {
		t.Fatalf("NewBootstrapper() error = %v", err)
	}

	if _, err := b.Detach(context.Background()); err == nil {
		t.Error("Detach() without command error = nil, want error")
	}
}

func TestBootstrapperDetach(t *testing.T) {
	t.Parallel()

	detachConfig := func(t *testing.T, command []string) BootstrapperConfig {
		t.Helper()

		cfg := testBootstrapperConfig(t)
		cfg.DetachCommand = command
		cfg.SetupLogPath = filepath.Join(t.TempDir(), "setup.log")
		return cfg
	}

	t.Run("launches worker and records pending", func(t *testing.T) {
		t.Parallel()

		cfg := detachConfig(t, []string{"/bin/sh", "-c", "echo worker-started"})
		store := testStore(t)

		b, err := NewBootstrapper(cfg, BootstrapperDeps{
			Store: store, Installer: &fakeInstaller{}, Envs: &fakeEnvs{},
		})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}

		pid, err := b.Detach(context.Background())
		if err != nil {
			t.Fatalf("Detach() error = %v", err)
		}
		if pid <= 0 {
			t.Errorf("pid = %d, want > 0", pid)
		}

		// Status is observable as soon as the hook returns: a pending
		// record carries the spec hash the worker will run under.
		rec, err := store.Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if rec.State != status.StatePending {
			t.Errorf("state = %s, want pending", rec.State)
		}
		if rec.SpecHash != b.SpecHash() {
			t.Errorf("record hash = %q, want %q", rec.SpecHash, b.SpecHash())
		}
		if rec.StartedAt.IsZero() {
			t.Error("StartedAt is zero, want set")
		}
	})

	t.Run("leaves a completed record untouched", func(t *testing.T) {
		t.Parallel()

		cfg := detachConfig(t, []string{"/bin/sh", "-c", "echo worker-started"})
		store := testStore(t)

		b, err := NewBootstrapper(cfg, BootstrapperDeps{
			Store: store, Installer: &fakeInstaller{}, Envs: &fakeEnvs{},
		})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}
		if err := store.Write(status.Record{State: status.StateSucceeded, SpecHash: b.SpecHash()}); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		if _, err := b.Detach(context.Background()); err != nil {
			t.Fatalf("Detach() error = %v", err)
		}

		rec, err := store.Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if rec.State != status.StateSucceeded {
			t.Errorf("state = %s, want succeeded (completed run must not regress)", rec.State)
		}
	})

	t.Run("changed spec records pending over old success", func(t *testing.T) {
		t.Parallel()

		cfg := detachConfig(t, []string{"/bin/sh", "-c", "echo worker-started"})
		store := testStore(t)
		if err := store.Write(status.Record{State: status.StateSucceeded, SpecHash: "stale-hash"}); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		b, err := NewBootstrapper(cfg, BootstrapperDeps{
			Store: store, Installer: &fakeInstaller{}, Envs: &fakeEnvs{},
		})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}

		if _, err := b.Detach(context.Background()); err != nil {
			t.Fatalf("Detach() error = %v", err)
		}

		rec, err := store.Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if rec.State != status.StatePending {
			t.Errorf("state = %s, want pending (spec changed, re-provisioning)", rec.State)
		}
	})

	t.Run("worker survives caller context cancellation", func(t *testing.T) {
		t.Parallel()

		marker := filepath.Join(t.TempDir(), "worker-done")
		cfg := detachConfig(t, []string{"/bin/sh", "-c", "sleep 0.2 && : > " + marker})

		b, err := NewBootstrapper(cfg, BootstrapperDeps{
			Store: testStore(t), Installer: &fakeInstaller{}, Envs: &fakeEnvs{},
		})
		if err != nil {
			t.Fatalf("NewBootstrapper() error = %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		if _, err := b.Detach(ctx); err != nil {
			t.Fatalf("Detach() error = %v", err)
		}
		// The caller's context ends with the lifecycle hook; the detached
		// worker must keep running regardless.
		cancel()

		deadline := time.Now().Add(10 * time.Second)
		for {
			if _, err := os.Stat(marker); err == nil {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("worker never finished after caller context cancellation")
			}
			time.Sleep(25 * time.Millisecond)
		}
	})
}
