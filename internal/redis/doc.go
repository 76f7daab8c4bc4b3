// Package redis implements the poll snapshot store on top of go-redis.
//
// Writes go through a circuit breaker so a struggling Redis cannot stall the
// engine; the in-memory registry stays authoritative while the breaker is
// open and the next successful write re-snapshots the state.
package redis
