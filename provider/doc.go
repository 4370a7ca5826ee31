// Package provider abstracts the external flight, train and delay-history
// data sources behind a single Gateway.
//
// Concrete adapters (Amadeus-style flight offers, a journey-planning rail
// API, a MySQL leg store, GTFS-RT delay feeds) all normalize into trip.Leg
// records. The gateway adds what the adapters must not care about: bounded
// concurrent fan-out, retry with exponential backoff on transient failures,
// per-pair isolation, and a shared read-through TTL cache.
package provider
