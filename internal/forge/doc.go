// Package forge implements source.API against the GitHub REST API: repository
// metadata, directory listings of the contents endpoint and raw downloads.
// HTTP failures are returned as classified errors so callers can tell rate
// limits, missing paths and transient faults apart.
package forge
