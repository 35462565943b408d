// Package server exposes conversions over HTTP. Each request runs an
// independent conversion and receives the theme as a zip archive (or as a
// JSON artifact map), with health and Prometheus endpoints alongside.
package server
