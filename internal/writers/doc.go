// Package writers serializes reported clusters.
//
// Design:
//   - Each format registers a handler in ClusterWriters from its own file.
//   - JSON and JSONL go through pkg/api (v1) for a stable wire format.
//   - StartClusterWriter runs the chosen handler on its own goroutine so the
//     producer can stream clusters in.
package writers
