package conda

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeRunner records the commands it is asked to run instead of executing
// them.
type fakeRunner struct {
	mu    sync.Mutex
	calls []fakeCall
	// err, when set, is returned by every Run call.
	err error
	// onRun, when set, runs for each call before returning.
	onRun func(cmd *exec.Cmd)
}

type fakeCall struct {
	name string
	args []string
}

func (r *fakeRunner) Run(_ context.Context, cmd *exec.Cmd, _, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fakeCall{name: name, args: cmd.Args})
	if r.onRun != nil {
		r.onRun(cmd)
	}
	return r.err
}

func (r *fakeRunner) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.calls))
	for i, c := range r.calls {
		names[i] = c.name
	}
	return names
}

func testInstallerConfig(t *testing.T, url string, runner CommandRunner) InstallerConfig {
	t.Helper()
	dir := t.TempDir()
	return InstallerConfig{
		URL:         url,
		PayloadPath: filepath.Join(dir, "payload", "miniconda.sh"),
		Prefix:      filepath.Join(dir, "miniconda"),
		DataDir:     filepath.Join(dir, "logs"),
		Runner:      runner,
	}
}

func TestNewInstaller(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate  func(*InstallerConfig)
		wantErr bool
	}{
		"valid":           {mutate: func(*InstallerConfig) {}},
		"missing url":     {mutate: func(c *InstallerConfig) { c.URL = "" }, wantErr: true},
		"missing payload": {mutate: func(c *InstallerConfig) { c.PayloadPath = "" }, wantErr: true},
		"missing prefix":  {mutate: func(c *InstallerConfig) { c.Prefix = "" }, wantErr: true},
		"missing datadir": {mutate: func(c *InstallerConfig) { c.DataDir = "" }, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := testInstallerConfig(t, "https://example.com/installer.sh", &fakeRunner{})
			tc.mutate(&cfg)

			_, err := NewInstaller(cfg)
			if (err != nil) != tc.wantErr {
				t.Errorf("NewInstaller() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestInstallerDownload(t *testing.T) {
	t.Parallel()

	t.Run("fetches payload", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("#!/bin/sh\necho installer"))
		}))
		defer srv.Close()

		inst, err := NewInstaller(testInstallerConfig(t, srv.URL, &fakeRunner{}))
		if err != nil {
			t.Fatalf("NewInstaller() error = %v", err)
		}
		if err := inst.Download(context.Background()); err != nil {
			t.Fatalf("Download() error = %v", err)
		}

		got, err := os.ReadFile(inst.config.PayloadPath)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if !strings.Contains(string(got), "echo installer") {
			t.Errorf("payload = %q, want installer content", got)
		}
	})

	t.Run("reuses existing payload", func(t *testing.T) {
		t.Parallel()

		requests := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			requests++
			_, _ = w.Write([]byte("payload"))
		}))
		defer srv.Close()

		inst, err := NewInstaller(testInstallerConfig(t, srv.URL, &fakeRunner{}))
		if err != nil {
			t.Fatalf("NewInstaller() error = %v", err)
		}
		if err := os.MkdirAll(filepath.Dir(inst.config.PayloadPath), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(inst.config.PayloadPath, []byte("cached"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		if err := inst.Download(context.Background()); err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if requests != 0 {
			t.Errorf("server saw %d requests, want 0 (payload cached)", requests)
		}
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		}))
		defer srv.Close()

		inst, err := NewInstaller(testInstallerConfig(t, srv.URL, &fakeRunner{}))
		if err != nil {
			t.Fatalf("NewInstaller() error = %v", err)
		}

		err = inst.Download(context.Background())
		if err == nil {
			t.Fatal("Download() error = nil, want status error")
		}
		if _, statErr := os.Stat(inst.config.PayloadPath); !os.IsNotExist(statErr) {
			t.Errorf("payload exists after failed download, Stat error = %v", statErr)
		}
	})
}

func TestInstallerInstall(t *testing.T) {
	t.Parallel()

	t.Run("runs installer and removes payload", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		inst, err := NewInstaller(testInstallerConfig(t, "https://example.com/i.sh", runner))
		if err != nil {
			t.Fatalf("NewInstaller() error = %v", err)
		}
		if err := os.MkdirAll(filepath.Dir(inst.config.PayloadPath), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(inst.config.PayloadPath, []byte("payload"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		if err := inst.Install(context.Background()); err != nil {
			t.Fatalf("Install() error = %v", err)
		}

		names := runner.names()
		if len(names) != 1 || names[0] != "miniconda-install" {
			t.Errorf("runner calls = %v, want [miniconda-install]", names)
		}
		if _, statErr := os.Stat(inst.config.PayloadPath); !os.IsNotExist(statErr) {
			t.Errorf("payload still present after install, Stat error = %v", statErr)
		}
	})

	t.Run("skips when already installed", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		inst, err := NewInstaller(testInstallerConfig(t, "https://example.com/i.sh", runner))
		if err != nil {
			t.Fatalf("NewInstaller() error = %v", err)
		}
		if err := os.MkdirAll(filepath.Dir(inst.CondaBin()), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(inst.CondaBin(), []byte("#!/bin/sh"), 0o755); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		if err := inst.Install(context.Background()); err != nil {
			t.Fatalf("Install() error = %v", err)
		}
		if len(runner.names()) != 0 {
			t.Errorf("runner calls = %v, want none", runner.names())
		}
	})

	t.Run("installer failure propagates", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("exit status 1")
		runner := &fakeRunner{err: wantErr}
		inst, err := NewInstaller(testInstallerConfig(t, "https://example.com/i.sh", runner))
		if err != nil {
			t.Fatalf("NewInstaller() error = %v", err)
		}

		if err := inst.Install(context.Background()); !errors.Is(err, wantErr) {
			t.Errorf("Install() error = %v, want %v", err, wantErr)
		}
	})
}
