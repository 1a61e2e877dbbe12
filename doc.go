// Package nbenv provisions data-science environments on managed notebook
// instances.
//
// It replaces the shell scripts traditionally embedded in notebook
// lifecycle configurations with a single agent binary driven by two
// lifecycle hooks:
//
//   - on-create (once, at provisioning): install Miniconda on the
//     persistent volume, create the configured conda environments, and
//     install their packages. The work runs in a detached worker so the
//     lifecycle hook returns before the platform's time limit.
//   - on-start (every start): if the bootstrap has completed, register a
//     Jupyter kernel for every environment directory on the volume and
//     restart the notebook service so the kernels appear. If not, defer
//     quietly to the next start.
//
// Progress is tracked in a JSON status record and a SQLite step journal on
// the persistent volume, plus a legacy zero-byte marker for compatibility
// with instances provisioned by the old scripts.
//
// Typical use from the lifecycle hooks:
//
//	b, err := nbenv.NewBootstrapper()
//	if err != nil { ... }
//	pid, err := b.Detach(ctx) // on-create returns immediately
//
//	a, err := nbenv.NewActivator()
//	if err != nil { ... }
//	result, err := a.Run(ctx) // on-start
package nbenv
