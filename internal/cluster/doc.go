// Package cluster grows Clusters of Orthologous Groups one organism at a time.
//
// Organisms are introduced in ingestion order. Each introduction merges the
// new organism's BBH edges with every earlier organism into the working set.
// From the third organism on, every round runs Extend (existing clusters
// absorb their best-connected candidate) and then Discover (closed triangles
// through the new organism's proteins seed new clusters), and commits.
//
// Everything here is single-threaded: a round sees exactly the working set
// and membership the previous round left behind.
package cluster
