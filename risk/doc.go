// Package risk scores legs and connections using historical delay
// aggregates keyed by (route, carrier, month-of-year).
//
// The scorer is a synchronous, pure computation over already-fetched
// statistics: it never blocks and never fails. Routes with no history fall
// back to a configured global prior.
package risk
