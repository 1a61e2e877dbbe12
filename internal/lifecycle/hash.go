package lifecycle

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"

	"github.com/giantswarm/nbenv/internal/conda"
)

// SpecHash computes a deterministic fingerprint of the environment
// specification: the installer URL plus every environment's name, Python
// version, and package list. Environments and packages are sorted before
// hashing so field order in the configuration file does not change the
// hash. Returns the first 16 hex characters (64 bits) of a SHA256 sum.
//
// A succeeded bootstrap whose recorded hash matches the current
// configuration is skipped entirely; any configuration change produces a
// new hash and triggers a fresh run.
func SpecHash(installerURL string, envs []conda.EnvSpec) string {
	sorted := make([]conda.EnvSpec, len(envs))
	copy(sorted, envs)
	slices.SortFunc(sorted, func(a, b conda.EnvSpec) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})

	h := sha256.New()
	h.Write([]byte(installerURL + "\x00")) // hash.Hash.Write never returns an error

	for _, env := range sorted {
		h.Write([]byte(env.Name + "\x00"))
		h.Write([]byte(env.Python + "\x00"))

		packages := make([]string, len(env.Packages))
		copy(packages, env.Packages)
		slices.Sort(packages)
		for _, pkg := range packages {
			h.Write([]byte(pkg + "\x00"))
		}
		h.Write([]byte{0}) // separator after each env to prevent cross-env collisions
	}

	return hex.EncodeToString(h.Sum(nil))[:16]
}
