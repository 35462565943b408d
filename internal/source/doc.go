// Package source holds the repository-facing domain model: references,
// metadata, remote listing entries and retrieved files, plus the API
// boundary that content providers implement.
package source
