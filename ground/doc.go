// Package ground estimates the "last mile": the ground-transport segment
// between an airport and the traveler's true destination.
//
// Available modes (taxi, rail, transit) come from one or more Source
// implementations. The estimator picks the Pareto-best option under a
// configurable cost-vs-time weighting and drops candidates that have no
// usable ground option at all.
package ground
