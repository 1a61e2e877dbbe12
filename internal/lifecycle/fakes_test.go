package lifecycle

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/giantswarm/nbenv/internal/conda"
)

// fakeInstaller records Download/Install calls and fails on demand.
type fakeInstaller struct {
	mu          sync.Mutex
	downloads   int
	installs    int
	downloadErr error
	installErr  error
}

func (f *fakeInstaller) Download(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	return f.downloadErr
}

func (f *fakeInstaller) Install(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installs++
	return f.installErr
}

// fakeEnvs records provisioning calls per environment and serves a fixed
// directory listing.
type fakeEnvs struct {
	created    []string
	installed  []string
	createErr  error
	installErr error
	// names is what List reports under the environments root.
	names   []string
	listErr error
	// missing marks environments whose interpreter Exists reports absent.
	missing map[string]bool
}

func (f *fakeEnvs) Create(_ context.Context, spec conda.EnvSpec) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, spec.Name)
	return nil
}

func (f *fakeEnvs) InstallPackages(_ context.Context, spec conda.EnvSpec) error {
	if f.installErr != nil {
		return f.installErr
	}
	f.installed = append(f.installed, spec.Name)
	return nil
}

func (f *fakeEnvs) List() ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.names, nil
}

func (f *fakeEnvs) Exists(name string) (bool, error) {
	return !f.missing[name], nil
}

func (f *fakeEnvs) PythonPath(name string) string {
	return filepath.Join("/envs", name, "bin", "python")
}

// fakeRegistrar records kernel registrations and fails for names in
// failFor.
type fakeRegistrar struct {
	registered []string
	failFor    map[string]error
}

func (f *fakeRegistrar) Register(name, _ string) error {
	if err, ok := f.failFor[name]; ok {
		return err
	}
	f.registered = append(f.registered, name)
	return nil
}

// fakeRestarter records restarts and fails on demand.
type fakeRestarter struct {
	restarts int
	err      error
}

func (f *fakeRestarter) Restart(context.Context) error {
	f.restarts++
	return f.err
}

// fakeProbe records waits and fails on demand.
type fakeProbe struct {
	waits int
	err   error
}

func (f *fakeProbe) Wait(context.Context) error {
	f.waits++
	return f.err
}
