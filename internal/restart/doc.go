// Package restart restarts the notebook server service so freshly
// registered kernels appear in the UI without manual intervention.
//
// Notebook instance AMIs have shipped with systemd, upstart, and sysvinit
// over the years; the package detects which init system is present and
// issues the matching restart command.
package restart
