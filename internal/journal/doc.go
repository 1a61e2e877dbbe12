// Package journal records bootstrap steps in a local SQLite database.
//
// Each step run (download, install, env create, package install) gets a row
// with its start time, finish time, and outcome. The journal survives
// instance stop/start cycles on the persistent volume, so "nbenv status"
// can show what happened during provisioning long after the setup log has
// rotated away.
package journal
