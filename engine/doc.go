// Package engine is the core's boundary: it accepts validated request
// structs, runs the optimization pipeline (geo expansion, concurrent leg
// fetches, graph build, ranking) under a request-level timeout, and
// returns ranked itineraries with a reason code.
//
// A request that found nothing still succeeds: callers distinguish "found
// nothing" (empty result plus reason) from "failed" (error).
package engine
