// Package opentelemetry holds span helpers shared by the replay pipeline.
//
// Metric instruments live in the metrics subpackage.
package opentelemetry
