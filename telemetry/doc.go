// Package telemetry holds the Prometheus collectors and OpenTelemetry setup used by
// the counter controller and its supporting packages.
//
// A nil *Metrics is valid and records nothing, so libraries can accept one
// unconditionally.
package telemetry
