// Package metrics provides the observability hooks of a conversion.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so metrics never require nil checks at call sites:
//
//	conv := convert.New(api, convert.Options{Recorder: metrics.NoopRecorder{}})
//
// The HTTP server and the CLI swap in a PrometheusRecorder registered on a
// dedicated registry; HTTPHandler exposes that registry on /metrics.
package metrics
