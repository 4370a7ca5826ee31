// Package routegraph builds and searches the time-expanded connection
// graph at the heart of the planner.
//
// Nodes are (location, time) pairs and edges are legs, so temporal
// ordering is inherent: an edge can only leave a node at or after the
// node's time, and back-in-time traversal is impossible by construction.
// The builder splices train "hacker" edges into eligible layovers and the
// extractor runs a time-respecting Dijkstra per weight profile, keeping
// the cheapest, fastest and balanced Pareto-optimal paths.
package routegraph
