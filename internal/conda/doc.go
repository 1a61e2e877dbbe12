// Package conda drives a Miniconda installation on the notebook instance:
// downloading the installer payload, running it, creating named
// environments, and installing pip packages into them.
//
// All external commands go through an injected CommandRunner so the
// lifecycle logic is testable without a real conda binary.
package conda
