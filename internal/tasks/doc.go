// Package tasks implements long-running broker operations.
//
// The [WarmEngine] refreshes the cached lists of many sessions concurrently
// with a bounded worker pool and request pacing, reporting per-job results
// and streaming [ProgressUpdate] events for the CLI or UI layer.
package tasks
