// Package status persists the bootstrap state of a notebook instance.
//
// The state of record is a JSON file written atomically on every
// transition. For compatibility with instances provisioned before the JSON
// record existed, a zero-byte marker file is also written on success, and a
// marker with no record is read back as a completed bootstrap.
package status
