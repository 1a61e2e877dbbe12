package conda

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testEnvManager(t *testing.T, runner CommandRunner) *EnvManager {
	t.Helper()

	dir := t.TempDir()
	m, err := NewEnvManager(EnvManagerConfig{
		CondaBin: filepath.Join(dir, "miniconda", "bin", "conda"),
		EnvsRoot: filepath.Join(dir, "miniconda", "envs"),
		DataDir:  filepath.Join(dir, "logs"),
		Runner:   runner,
	})
	if err != nil {
		t.Fatalf("NewEnvManager() error = %v", err)
	}
	return m
}

// materializeEnv creates the on-disk shape of an existing environment.
func materializeEnv(t *testing.T, m *EnvManager, name string) {
	t.Helper()

	binDir := filepath.Join(m.EnvPath(name), "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "python"), []byte("#!/bin/sh"), 0o755); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestNewEnvManager(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg     EnvManagerConfig
		wantErr bool
	}{
		"valid":            {cfg: EnvManagerConfig{CondaBin: "/opt/conda/bin/conda", EnvsRoot: "/opt/conda/envs", DataDir: "/var/log/nbenv"}},
		"missing binary":   {cfg: EnvManagerConfig{EnvsRoot: "/opt/conda/envs", DataDir: "/var/log/nbenv"}, wantErr: true},
		"missing envsroot": {cfg: EnvManagerConfig{CondaBin: "/opt/conda/bin/conda", DataDir: "/var/log/nbenv"}, wantErr: true},
		"missing datadir":  {cfg: EnvManagerConfig{CondaBin: "/opt/conda/bin/conda", EnvsRoot: "/opt/conda/envs"}, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := NewEnvManager(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Errorf("NewEnvManager() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestEnvSpecValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		spec    EnvSpec
		wantErr error
	}{
		"valid":          {spec: EnvSpec{Name: "tensorflow2_p39", Python: "3.9"}},
		"missing name":   {spec: EnvSpec{Python: "3.9"}, wantErr: ErrEmptyEnvName},
		"missing python": {spec: EnvSpec{Name: "tensorflow2_p39"}, wantErr: ErrEmptyPython},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if err := tc.spec.Validate(); !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestEnvManagerCreate(t *testing.T) {
	t.Parallel()

	spec := EnvSpec{Name: "tensorflow2_p39", Python: "3.9"}

	t.Run("invokes conda create", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		m := testEnvManager(t, runner)

		if err := m.Create(context.Background(), spec); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if len(runner.calls) != 1 {
			t.Fatalf("runner saw %d calls, want 1", len(runner.calls))
		}
		call := runner.calls[0]
		if call.name != "conda-create-tensorflow2_p39" {
			t.Errorf("call name = %q, want conda-create-tensorflow2_p39", call.name)
		}
		joined := strings.Join(call.args, " ")
		for _, want := range []string{"create", "--yes", "--name tensorflow2_p39", "python=3.9"} {
			if !strings.Contains(joined, want) {
				t.Errorf("args %q missing %q", joined, want)
			}
		}
	})

	t.Run("skips existing environment", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		m := testEnvManager(t, runner)
		materializeEnv(t, m, spec.Name)

		if err := m.Create(context.Background(), spec); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if len(runner.calls) != 0 {
			t.Errorf("runner saw %d calls, want 0 (env exists)", len(runner.calls))
		}
	})

	t.Run("invalid spec", func(t *testing.T) {
		t.Parallel()

		m := testEnvManager(t, &fakeRunner{})
		if err := m.Create(context.Background(), EnvSpec{Python: "3.9"}); !errors.Is(err, ErrEmptyEnvName) {
			t.Errorf("Create() error = %v, want ErrEmptyEnvName", err)
		}
	})
}

func TestEnvManagerInstallPackages(t *testing.T) {
	t.Parallel()

	t.Run("pip install via env interpreter", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		m := testEnvManager(t, runner)
		spec := EnvSpec{
			Name:     "tensorflow2_p39",
			Python:   "3.9",
			Packages: []string{"tensorflow==2.11.0", "ipykernel==6.25.2"},
		}

		if err := m.InstallPackages(context.Background(), spec); err != nil {
			t.Fatalf("InstallPackages() error = %v", err)
		}

		if len(runner.calls) != 1 {
			t.Fatalf("runner saw %d calls, want 1", len(runner.calls))
		}
		call := runner.calls[0]
		if call.args[0] != m.PythonPath(spec.Name) {
			t.Errorf("interpreter = %q, want %q", call.args[0], m.PythonPath(spec.Name))
		}
		joined := strings.Join(call.args, " ")
		for _, want := range []string{"-m pip install", "tensorflow==2.11.0", "ipykernel==6.25.2"} {
			if !strings.Contains(joined, want) {
				t.Errorf("args %q missing %q", joined, want)
			}
		}
	})

	t.Run("no packages is a no-op", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		m := testEnvManager(t, runner)

		if err := m.InstallPackages(context.Background(), EnvSpec{Name: "bare", Python: "3.9"}); err != nil {
			t.Fatalf("InstallPackages() error = %v", err)
		}
		if len(runner.calls) != 0 {
			t.Errorf("runner saw %d calls, want 0", len(runner.calls))
		}
	})

	t.Run("runner failure propagates", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("pip resolution failed")
		m := testEnvManager(t, &fakeRunner{err: wantErr})
		spec := EnvSpec{Name: "env", Python: "3.9", Packages: []string{"boto3==1.28.57"}}

		if err := m.InstallPackages(context.Background(), spec); !errors.Is(err, wantErr) {
			t.Errorf("InstallPackages() error = %v, want %v", err, wantErr)
		}
	})
}

func TestEnvManagerList(t *testing.T) {
	t.Parallel()

	m := testEnvManager(t, &fakeRunner{})
	for _, name := range []string{"tensorflow2_p39", "pytorch_p39"} {
		materializeEnv(t, m, name)
	}

	got, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"pytorch_p39", "tensorflow2_p39"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEnvManagerExists(t *testing.T) {
	t.Parallel()

	m := testEnvManager(t, &fakeRunner{})
	materializeEnv(t, m, "present")

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		ok, err := m.Exists("present")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if !ok {
			t.Error("Exists(present) = false, want true")
		}
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		ok, err := m.Exists("absent")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if ok {
			t.Error("Exists(absent) = true, want false")
		}
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		if _, err := m.Exists(""); !errors.Is(err, ErrEmptyEnvName) {
			t.Errorf("Exists(\"\") error = %v, want ErrEmptyEnvName", err)
		}
	})
}
