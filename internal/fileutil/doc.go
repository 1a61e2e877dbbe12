// Package fileutil provides file operation utilities for directory and file management.
//
// EnsureDir creates directories recursively, WriteFileAtomic writes files via
// temp-file-then-rename so readers never observe partial content, Touch creates
// zero-byte marker files, and ListSubdirs enumerates immediate subdirectories.
// These are used throughout nbenv for preparing the working directory, writing
// status records, maintaining the legacy completion marker, and discovering
// named environments at activation time.
package fileutil
