// Package config loads and validates the planner configuration from yaml.
//
// Every tunable named by the engine (scoring weights, search radius, retry
// bounds, pruning limits, risk tables) lives here and is passed explicitly
// into the component constructors. There is no package-level mutable
// configuration state.
package config
