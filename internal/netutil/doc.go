// Package netutil provides network helpers for probing local services.
package netutil
