// Package geo resolves addresses and airport codes to coordinates and
// finds candidate airports within a great-circle radius of a destination.
//
// The airport dataset is loaded once at startup from a CSV file or URL and
// kept in memory for fast lookups, the same way the static transit index
// is handled elsewhere in this codebase. Address geocoding is an external
// collaborator behind the Geocoder interface.
package geo
