// Package rank turns a built connection graph into an ordered list of
// itineraries, and intersects two ranked lists for collaborative planning.
//
// Scoring combines normalized price, elapsed time and a risk term derived
// from delay probability and self-transfer feasibility, with an optional
// layover-quality term. The tie-break chain is a total order, so ranking
// the same graph twice always yields the same sequence.
package rank
