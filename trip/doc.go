// Package trip defines the immutable domain records shared by every stage
// of the optimization pipeline: locations, transport legs, itineraries and
// risk profiles.
//
// All values in this package are plain records. They are created once by a
// producer (provider gateway, ground estimator, graph builder) and never
// mutated afterwards, which is what makes the request-scoped pipeline and
// the shared leg cache safe without locking.
package trip
